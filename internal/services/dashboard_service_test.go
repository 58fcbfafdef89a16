package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// stubStore keeps records in memory and filters them the way the real store does
type stubStore struct {
	users []models.User
	bets  []models.Bet
	subs  []models.Subscription
	err   error
	calls int
}

func (s *stubStore) GetUser(_ context.Context, userID uint) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.users {
		if s.users[i].ID == userID {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListBets(_ context.Context, q database.BetQuery) ([]models.Bet, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Bet
	for _, b := range s.bets {
		if b.UserID != q.OwnerID {
			continue
		}
		if q.CreatedAfter != nil && b.CreatedAt.Before(*q.CreatedAfter) {
			continue
		}
		if q.CreatedBefore != nil && !b.CreatedAt.Before(*q.CreatedBefore) {
			continue
		}
		if q.SettledOnly && !b.IsSettled() {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.NewestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *stubStore) RecentSubscriptions(_ context.Context, userID uint, limit int) ([]models.Subscription, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubStore) CountClutchPicks(ctx context.Context, userID uint, start, end *time.Time, minOdds float64) (int, error) {
	bets, err := s.ListBets(ctx, database.BetQuery{OwnerID: userID, CreatedAfter: start, CreatedBefore: end})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, b := range bets {
		if b.Status == models.BetStatusWin && b.Odds.GreaterThanOrEqual(decimal.NewFromFloat(minOdds)) {
			count++
		}
	}
	return count, nil
}

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func profit(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func settledBet(userID uint, daysAgo int, status models.BetStatus, amount, p, odds string) models.Bet {
	return models.Bet{
		UserID:    userID,
		CreatedAt: testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		Status:    status,
		Amount:    decimal.RequireFromString(amount),
		Profit:    profit(p),
		Odds:      decimal.RequireFromString(odds),
	}
}

func newTestDashboard(store *stubStore) *DashboardService {
	svc := NewDashboardService(store, NewBetService(store, DefaultClutchMinOdds), zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestGetUserMetricsUnknownUser(t *testing.T) {
	svc := newTestDashboard(&stubStore{})

	snapshot, err := svc.GetUserMetrics(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestGetUserMetrics(t *testing.T) {
	store := &stubStore{
		users: []models.User{{ID: 1, Username: "sharp", FollowersCount: 42}},
		bets: []models.Bet{
			// previous window: 50 profit, 1 of 2 won
			settledBet(1, 45, models.BetStatusWin, "25", "50", "3.0"),
			settledBet(1, 40, models.BetStatusLoss, "10", "0", "1.5"),
			// current window: 100 profit, 2 of 2 won
			settledBet(1, 10, models.BetStatusWin, "40", "60", "2.5"),
			settledBet(1, 3, models.BetStatusWin, "20", "40", "3.0"),
			{UserID: 1, CreatedAt: testNow.Add(-time.Hour), Status: models.BetStatusPending, Amount: decimal.NewFromInt(100), Odds: decimal.NewFromInt(9)},
		},
	}
	svc := newTestDashboard(store)

	snapshot, err := svc.GetUserMetrics(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, 75.0, snapshot.WinRate)
	assert.Equal(t, 100.0, snapshot.WinRateTrend)
	assert.Equal(t, 150.0, snapshot.TotalProfit)
	assert.Equal(t, 100.0, snapshot.ProfitTrend)
	assert.Equal(t, 2, snapshot.ClutchPicks)
	assert.Equal(t, 0.0, snapshot.ClutchPicksTrend)
	assert.Equal(t, 42, snapshot.Followers)
	assert.Equal(t, 0.0, snapshot.FollowersTrend)
}

func TestGetUserMetricsPendingAndSettledScenario(t *testing.T) {
	store := &stubStore{
		users: []models.User{{ID: 1}},
		bets: []models.Bet{
			{UserID: 1, CreatedAt: testNow.Add(-3 * time.Hour), Status: models.BetStatusPending, Amount: decimal.NewFromInt(10), Odds: decimal.NewFromInt(2)},
			settledBet(1, 0, models.BetStatusWin, "10", "20", "2"),
			settledBet(1, 0, models.BetStatusLoss, "10", "-10", "2"),
		},
	}
	svc := newTestDashboard(store)

	snapshot, err := svc.GetUserMetrics(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 50.0, snapshot.WinRate)
	assert.Equal(t, 10.0, snapshot.TotalProfit)
	assert.Equal(t, 0.0, snapshot.ProfitTrend, "no previous period means no trend")
}

func TestTrendNegativePrevious(t *testing.T) {
	store := &stubStore{
		users: []models.User{{ID: 1}},
		bets: []models.Bet{
			settledBet(1, 50, models.BetStatusLoss, "40", "-40", "2"),
			settledBet(1, 5, models.BetStatusWin, "10", "20", "2"),
		},
	}
	svc := newTestDashboard(store)

	trend, err := svc.trend(context.Background(), 1, svc.periodProfit, trendCurrentDays, trendPreviousDays)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, trend, 1e-9)
}

func TestGetUserMetricsPropagatesStoreErrors(t *testing.T) {
	failure := errors.New("boom")
	store := &stubStore{err: failure}
	svc := newTestDashboard(store)

	_, err := svc.GetUserMetrics(context.Background(), 1)
	assert.ErrorIs(t, err, failure)
}

func TestGetPerformanceHistory(t *testing.T) {
	store := &stubStore{
		bets: []models.Bet{
			settledBet(1, 200, models.BetStatusWin, "10", "500", "2"),
			settledBet(1, 20, models.BetStatusWin, "10", "30", "2"),
			settledBet(1, 18, models.BetStatusLoss, "10", "-10", "2"),
			settledBet(2, 18, models.BetStatusWin, "10", "999", "2"),
		},
	}
	svc := newTestDashboard(store)

	history, err := svc.GetPerformanceHistory(context.Background(), 1, 30)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 30.0, history[0].Profit)
	assert.Equal(t, 30.0, history[1].Profit)
	assert.Equal(t, 20.0, history[2].Profit)
	assert.Equal(t, testNow.Add(-20*24*time.Hour).Format("Jan 02"), history[0].Date)
}

func TestGetPerformanceHistoryDefaultsHorizon(t *testing.T) {
	store := &stubStore{
		bets: []models.Bet{
			settledBet(1, 179, models.BetStatusWin, "10", "5", "2"),
			settledBet(1, 181, models.BetStatusWin, "10", "100", "2"),
		},
	}
	svc := newTestDashboard(store)

	history, err := svc.GetPerformanceHistory(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 5.0, history[0].Profit)
}

func TestGetPerformanceHistoryEmpty(t *testing.T) {
	svc := newTestDashboard(&stubStore{})

	history, err := svc.GetPerformanceHistory(context.Background(), 1, 90)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGetRecentActivity(t *testing.T) {
	store := &stubStore{
		bets: []models.Bet{
			{UserID: 1, CreatedAt: testNow.Add(-2 * time.Hour), Status: models.BetStatusWin, Amount: decimal.NewFromInt(50), Profit: profit("45"), EventName: "Lakers vs Celtics", Odds: decimal.NewFromInt(2)},
			{UserID: 1, CreatedAt: testNow.Add(-30 * time.Minute), Status: models.BetStatusPending, Amount: decimal.NewFromInt(10), Odds: decimal.NewFromInt(2)},
		},
		subs: []models.Subscription{
			{UserID: 1, PlanName: "Pro", CreatedAt: testNow.Add(-3 * 24 * time.Hour)},
			{UserID: 1, PlanName: "Old", CreatedAt: testNow.Add(-10 * 24 * time.Hour)},
			{UserID: 1, PlanName: "Older", CreatedAt: testNow.Add(-20 * 24 * time.Hour)},
			{UserID: 1, PlanName: "Oldest", CreatedAt: testNow.Add(-40 * 24 * time.Hour)},
		},
	}
	svc := newTestDashboard(store)

	items, err := svc.GetRecentActivity(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, items, 5, "two bets plus the three newest subscriptions")

	assert.Equal(t, models.ActivityBet, items[0].Type)
	assert.Equal(t, "Placed $10.00 bet", items[0].Description)
	assert.Equal(t, "30m ago", items[0].Time)

	assert.Equal(t, models.ActivityWin, items[1].Type)
	assert.Equal(t, "Won $50.00 on Lakers vs Celtics ($45.00)", items[1].Description)
	assert.Equal(t, "2h ago", items[1].Time)

	assert.Equal(t, models.ActivityPurchase, items[2].Type)
	assert.Equal(t, "Purchased Pro Plan", items[2].Description)
	assert.Equal(t, "3d ago", items[2].Time)
}

func TestGetRecentActivityLimit(t *testing.T) {
	store := &stubStore{
		bets: []models.Bet{
			{UserID: 1, CreatedAt: testNow.Add(-2 * time.Hour), Status: models.BetStatusWin, Amount: decimal.NewFromInt(5), Profit: profit("5"), Odds: decimal.NewFromInt(2)},
		},
		subs: []models.Subscription{{UserID: 1, PlanName: "Pro", CreatedAt: testNow.Add(-3 * time.Hour)}},
	}
	svc := newTestDashboard(store)

	items, err := svc.GetRecentActivity(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActivityWin, items[0].Type)
}

func TestBetServiceDefaultsMinOdds(t *testing.T) {
	svc := NewBetService(&stubStore{}, 0)
	assert.Equal(t, DefaultClutchMinOdds, svc.MinOdds())

	svc = NewBetService(&stubStore{}, 2.5)
	assert.Equal(t, 2.5, svc.MinOdds())
}
