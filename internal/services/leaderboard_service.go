package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/clutch-picks/backend/internal/analytics"
	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/metrics"
	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

const (
	// DefaultLeaderboardSchedule runs the snapshot at 11 PM every day
	DefaultLeaderboardSchedule = "0 0 23 * * *"
	DefaultLeaderboardLimit    = 10
	maxLeaderboardLimit        = 100
	leaderboardCatchUpHour     = 23
)

type leaderboardSource interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListBets(ctx context.Context, q database.BetQuery) ([]models.Bet, error)
}

// LeaderboardService records a daily ranking of bettors by settled profit
type LeaderboardService struct {
	mu       sync.Mutex
	source   leaderboardSource
	db       *gorm.DB
	log      *zap.Logger
	schedule string
	now      func() time.Time
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(source leaderboardSource, db *gorm.DB, schedule string, log *zap.Logger) *LeaderboardService {
	if schedule == "" {
		schedule = DefaultLeaderboardSchedule
	}
	return &LeaderboardService{
		source:   source,
		db:       db,
		log:      log,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start schedules the daily snapshot and blocks until ctx is cancelled. A
// snapshot missed while the process was down is taken on startup once the
// day's snapshot hour has passed.
func (s *LeaderboardService) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, func() { s.runSnapshot(ctx) }); err != nil {
		return fmt.Errorf("invalid leaderboard schedule %q: %w", s.schedule, err)
	}

	s.log.Info("leaderboard service started", zap.String("schedule", s.schedule))
	s.checkAndSnapshot(ctx)

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	s.log.Info("leaderboard service stopped")
	return nil
}

func (s *LeaderboardService) checkAndSnapshot(ctx context.Context) {
	now := s.now()
	if now.Hour() < leaderboardCatchUpHour {
		return
	}

	exists, err := s.hasSnapshotForDate(ctx, startOfDay(now))
	if err != nil {
		s.log.Warn("leaderboard: checking for today's snapshot", zap.Error(err))
		return
	}
	if !exists {
		s.runSnapshot(ctx)
	}
}

func (s *LeaderboardService) runSnapshot(ctx context.Context) {
	count, err := s.TakeSnapshot(ctx)
	if err != nil {
		metrics.LeaderboardSnapshotsTotal.WithLabelValues("error").Inc()
		s.log.Error("leaderboard: snapshot failed", zap.Error(err))
		return
	}
	metrics.LeaderboardSnapshotsTotal.WithLabelValues("ok").Inc()
	metrics.LeaderboardUsers.Set(float64(count))
}

func (s *LeaderboardService) hasSnapshotForDate(ctx context.Context, day time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.LeaderboardEntry{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", day.UTC(), day.Add(24*time.Hour).UTC()).
		Count(&count).Error
	if err != nil {
		return false, database.WrapDataAccess("check leaderboard snapshot", err)
	}
	return count > 0, nil
}

// TakeSnapshot records today's standing for every user with settled bets and
// returns how many users were ranked. Running it twice on the same day
// overwrites that day's entries.
func (s *LeaderboardService) TakeSnapshot(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// the day boundary follows the server clock; the stored instant is UTC
	snapshotDate := startOfDay(now).UTC()

	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		bets, err := s.source.ListBets(ctx, database.BetQuery{OwnerID: user.ID, SettledOnly: true})
		if err != nil {
			return 0, err
		}
		if len(bets) == 0 {
			continue
		}

		entries = append(entries, models.LeaderboardEntry{
			UserID:       user.ID,
			Username:     user.Username,
			SnapshotDate: snapshotDate,
			WinRate:      analytics.Round(analytics.WinRate(bets), 1),
			TotalProfit:  analytics.SumProfit(bets).Round(2),
			SettledBets:  len(bets),
			CreatedAt:    now.UTC(),
		})
	}

	if len(entries) == 0 {
		s.log.Info("leaderboard: no settled bets to rank", zap.String("date", snapshotDate.Format("2006-01-02")))
		return 0, nil
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "win_rate", "total_profit", "settled_bets"}),
	}).Create(&entries).Error
	if err != nil {
		return 0, database.WrapDataAccess("save leaderboard snapshot", err)
	}

	s.log.Info("leaderboard: recorded snapshot",
		zap.String("date", snapshotDate.Format("2006-01-02")),
		zap.Int("users", len(entries)))

	return len(entries), nil
}

// Top returns the best performers from the most recent snapshot. The
// response has no date and no entries when no snapshot exists yet.
func (s *LeaderboardService) Top(ctx context.Context, limit int) (*models.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	var latest models.LeaderboardEntry
	err := s.db.WithContext(ctx).Order("snapshot_date DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.LeaderboardResponse{Entries: []models.LeaderboardEntry{}}, nil
	}
	if err != nil {
		return nil, database.WrapDataAccess("latest leaderboard", err)
	}

	day := latest.SnapshotDate
	var entries []models.LeaderboardEntry
	err = s.db.WithContext(ctx).
		Where("snapshot_date >= ? AND snapshot_date < ?", day.UTC(), day.Add(24*time.Hour).UTC()).
		Order("total_profit DESC").
		Order("win_rate DESC").
		Order("user_id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, database.WrapDataAccess("leaderboard entries", err)
	}

	return &models.LeaderboardResponse{SnapshotDate: &day, Entries: entries}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
