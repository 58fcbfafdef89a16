package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/codyseavey/clutch-picks/backend/internal/analytics"
	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/metrics"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

const (
	// DefaultHistoryDays is the performance chart horizon when none is given
	DefaultHistoryDays = 180
	// DefaultActivityLimit caps the activity feed when no limit is given
	DefaultActivityLimit = 15

	recentSubscriptionLimit = 3
	trendCurrentDays        = 30
	trendPreviousDays       = 60
)

// RecordStore is the read access the dashboard needs to betting records
type RecordStore interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	ListBets(ctx context.Context, q database.BetQuery) ([]models.Bet, error)
	RecentSubscriptions(ctx context.Context, userID uint, limit int) ([]models.Subscription, error)
}

// ClutchCounter counts a user's clutch picks, optionally within [start, end)
type ClutchCounter interface {
	CountClutchPicks(ctx context.Context, userID uint, start, end *time.Time) (int, error)
}

// periodMetric evaluates a metric over a user's bets in [start, end); a nil
// end means up to now.
type periodMetric func(ctx context.Context, userID uint, start time.Time, end *time.Time) (float64, error)

// DashboardService assembles the dashboard views. It holds no state between
// calls and never writes.
type DashboardService struct {
	store  RecordStore
	clutch ClutchCounter
	log    *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store RecordStore, clutch ClutchCounter, log *zap.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		clutch: clutch,
		log:    log,
		now:    time.Now,
	}
}

// GetUserMetrics computes the headline metrics for a user. It returns nil
// without an error when the user does not exist.
func (s *DashboardService) GetUserMetrics(ctx context.Context, userID uint) (snapshot *models.MetricsSnapshot, err error) {
	defer observeDashboard("metrics", time.Now(), &err)

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.log.Debug("dashboard metrics requested for unknown user", zap.Uint("user_id", userID))
		return nil, nil
	}

	allBets, err := s.store.ListBets(ctx, database.BetQuery{OwnerID: userID})
	if err != nil {
		return nil, err
	}
	settled := analytics.Settled(allBets)

	winRateTrend, err := s.trend(ctx, userID, s.periodWinRate, trendCurrentDays, trendPreviousDays)
	if err != nil {
		return nil, err
	}

	profitTrend, err := s.trend(ctx, userID, s.periodProfit, trendCurrentDays, trendPreviousDays)
	if err != nil {
		return nil, err
	}

	clutchPicks, err := s.clutch.CountClutchPicks(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}

	clutchTrend, err := s.trend(ctx, userID, s.periodClutchPicks, trendCurrentDays, trendPreviousDays)
	if err != nil {
		return nil, err
	}

	return &models.MetricsSnapshot{
		WinRate:          analytics.Round(analytics.WinRate(settled), 1),
		WinRateTrend:     analytics.Round(winRateTrend, 1),
		TotalProfit:      analytics.RoundMoney(analytics.SumProfit(settled)),
		ProfitTrend:      analytics.Round(profitTrend, 1),
		ClutchPicks:      clutchPicks,
		ClutchPicksTrend: analytics.Round(clutchTrend, 1),
		Followers:        user.FollowersCount,
		FollowersTrend:   analytics.Round(followersTrend(user), 1),
	}, nil
}

// GetPerformanceHistory returns the cumulative profit chart over the last
// days days. A non-positive days falls back to DefaultHistoryDays.
func (s *DashboardService) GetPerformanceHistory(ctx context.Context, userID uint, days int) (history []models.PerformancePoint, err error) {
	defer observeDashboard("performance", time.Now(), &err)

	if days <= 0 {
		days = DefaultHistoryDays
	}

	start := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	bets, err := s.store.ListBets(ctx, database.BetQuery{
		OwnerID:      userID,
		CreatedAfter: &start,
		SettledOnly:  true,
	})
	if err != nil {
		return nil, err
	}

	return analytics.Resample(analytics.ProfitPoints(bets), days), nil
}

// GetRecentActivity returns the user's latest bets and plan purchases as a
// feed. A non-positive limit falls back to DefaultActivityLimit.
func (s *DashboardService) GetRecentActivity(ctx context.Context, userID uint, limit int) (items []models.ActivityItem, err error) {
	defer observeDashboard("activity", time.Now(), &err)

	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	bets, err := s.store.ListBets(ctx, database.BetQuery{
		OwnerID:     userID,
		NewestFirst: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	subs, err := s.store.RecentSubscriptions(ctx, userID, recentSubscriptionLimit)
	if err != nil {
		return nil, err
	}

	return analytics.MergeActivity(bets, subs, s.now(), limit), nil
}

// trend compares a metric over the last currentDays days with the window
// between previousDays and currentDays ago.
func (s *DashboardService) trend(ctx context.Context, userID uint, metric periodMetric, currentDays, previousDays int) (float64, error) {
	currentStart, previousStart := analytics.TrendWindows(s.now(), currentDays, previousDays)

	current, err := metric(ctx, userID, currentStart, nil)
	if err != nil {
		return 0, err
	}

	previous, err := metric(ctx, userID, previousStart, &currentStart)
	if err != nil {
		return 0, err
	}

	return analytics.PercentageChange(current, previous), nil
}

func (s *DashboardService) periodBets(ctx context.Context, userID uint, start time.Time, end *time.Time) ([]models.Bet, error) {
	return s.store.ListBets(ctx, database.BetQuery{
		OwnerID:       userID,
		CreatedAfter:  &start,
		CreatedBefore: end,
		SettledOnly:   true,
	})
}

func (s *DashboardService) periodWinRate(ctx context.Context, userID uint, start time.Time, end *time.Time) (float64, error) {
	bets, err := s.periodBets(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}
	return analytics.WinRate(bets), nil
}

func (s *DashboardService) periodProfit(ctx context.Context, userID uint, start time.Time, end *time.Time) (float64, error) {
	bets, err := s.periodBets(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}
	return analytics.SumProfit(bets).InexactFloat64(), nil
}

func (s *DashboardService) periodClutchPicks(ctx context.Context, userID uint, start time.Time, end *time.Time) (float64, error) {
	count, err := s.clutch.CountClutchPicks(ctx, userID, &start, end)
	if err != nil {
		return 0, err
	}
	return float64(count), nil
}

// followersTrend is not tracked yet: there is no follower history to compare
// against, so the trend is always 0.
// TODO: compute from follower snapshots once follow events are recorded with timestamps.
func followersTrend(_ *models.User) float64 {
	return 0
}

func observeDashboard(operation string, start time.Time, err *error) {
	result := "ok"
	if *err != nil {
		result = "error"
	}
	metrics.DashboardQueriesTotal.WithLabelValues(operation, result).Inc()
	metrics.DashboardQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
