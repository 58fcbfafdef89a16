package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// ErrDataAccess marks failures talking to the database, as opposed to a
// query that simply found nothing.
var ErrDataAccess = errors.New("data access failure")

// WrapDataAccess tags err as a data access failure during op
func WrapDataAccess(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDataAccess, op, err)
}

// BetQuery filters a user's bets. CreatedAfter is inclusive and CreatedBefore
// exclusive; both are compared in UTC. A zero Limit means no limit.
type BetQuery struct {
	OwnerID       uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SettledOnly   bool
	NewestFirst   bool
	Limit         int
}

// Store is the read side of the betting records used by the dashboard and
// leaderboard. It issues plain reads and never retries.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetUser returns nil without an error when the user does not exist
func (s *Store) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapDataAccess("get user", err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, WrapDataAccess("list users", err)
	}
	return users, nil
}

func (s *Store) ListBets(ctx context.Context, q BetQuery) ([]models.Bet, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", q.OwnerID)
	if q.CreatedAfter != nil {
		query = query.Where("created_at >= ?", q.CreatedAfter.UTC())
	}
	if q.CreatedBefore != nil {
		query = query.Where("created_at < ?", q.CreatedBefore.UTC())
	}
	if q.SettledOnly {
		query = query.Where("status <> ?", models.BetStatusPending)
	}
	if q.NewestFirst {
		query = query.Order("created_at DESC").Order("id DESC")
	} else {
		query = query.Order("created_at ASC").Order("id ASC")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var bets []models.Bet
	if err := query.Find(&bets).Error; err != nil {
		return nil, WrapDataAccess("list bets", err)
	}
	return bets, nil
}

// RecentSubscriptions returns the user's newest subscriptions first
func (s *Store) RecentSubscriptions(ctx context.Context, userID uint, limit int) ([]models.Subscription, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var subs []models.Subscription
	if err := query.Find(&subs).Error; err != nil {
		return nil, WrapDataAccess("recent subscriptions", err)
	}
	return subs, nil
}

// CountClutchPicks counts winning bets placed at decimal odds of at least
// minOdds, optionally bounded to [start, end).
func (s *Store) CountClutchPicks(ctx context.Context, userID uint, start, end *time.Time, minOdds float64) (int, error) {
	query := s.db.WithContext(ctx).Model(&models.Bet{}).
		Where("user_id = ? AND status = ? AND odds >= ?", userID, models.BetStatusWin, minOdds)
	if start != nil {
		query = query.Where("created_at >= ?", start.UTC())
	}
	if end != nil {
		query = query.Where("created_at < ?", end.UTC())
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, WrapDataAccess("count clutch picks", err)
	}
	return int(count), nil
}
