package services

import (
	"context"
	"time"
)

// DefaultClutchMinOdds is the decimal-odds floor for a win to count as clutch
const DefaultClutchMinOdds = 3.0

type clutchStore interface {
	CountClutchPicks(ctx context.Context, userID uint, start, end *time.Time, minOdds float64) (int, error)
}

// BetService answers betting questions that depend on product rules rather
// than raw records. A clutch pick is a winning bet placed at long odds.
type BetService struct {
	store   clutchStore
	minOdds float64
}

// NewBetService creates a new bet service
func NewBetService(store clutchStore, minOdds float64) *BetService {
	if minOdds <= 1 {
		minOdds = DefaultClutchMinOdds
	}
	return &BetService{
		store:   store,
		minOdds: minOdds,
	}
}

// CountClutchPicks counts the user's clutch picks in [start, end); nil bounds
// are open.
func (s *BetService) CountClutchPicks(ctx context.Context, userID uint, start, end *time.Time) (int, error) {
	return s.store.CountClutchPicks(ctx, userID, start, end, s.minOdds)
}

// MinOdds returns the configured clutch odds floor
func (s *BetService) MinOdds() float64 {
	return s.minOdds
}
