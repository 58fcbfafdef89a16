package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWin     BetStatus = "win"
	BetStatusLoss    BetStatus = "loss"
	BetStatusVoid    BetStatus = "void"
)

// Bet is a single wager placed by a user. Profit stays nil until the bet is
// settled; a nil Profit is never the same as a zero Profit.
type Bet struct {
	ID        uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint             `json:"user_id" gorm:"not null;index:idx_bets_user_created,priority:1"`
	CreatedAt time.Time        `json:"created_at" gorm:"index:idx_bets_user_created,priority:2"`
	Status    BetStatus        `json:"status" gorm:"not null;default:'pending';index"`
	Amount    decimal.Decimal  `json:"amount" gorm:"type:numeric(14,2);not null"`
	Profit    *decimal.Decimal `json:"profit" gorm:"type:numeric(14,2)"`
	Odds      decimal.Decimal  `json:"odds" gorm:"type:numeric(10,3);not null;default:1"` // decimal odds
	EventName string           `json:"event_name"`
	Sport     string           `json:"sport"`
	SettledAt *time.Time       `json:"settled_at"`
}

// IsSettled reports whether the outcome of the bet is known.
func (b Bet) IsSettled() bool {
	return b.Status != BetStatusPending
}

// HasProfit reports whether a settled profit value was recorded.
func (b Bet) HasProfit() bool {
	return b.Profit != nil
}

// BeforeSave stores timestamps in UTC so range filters compare like with like
func (b *Bet) BeforeSave(*gorm.DB) error {
	b.CreatedAt = b.CreatedAt.UTC()
	b.SettledAt = utcPtr(b.SettledAt)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
