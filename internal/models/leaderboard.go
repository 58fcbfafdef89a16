package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardEntry stores one user's betting performance for a given day
type LeaderboardEntry struct {
	ID           uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_leaderboard_user_date"`
	Username     string          `json:"username"`
	SnapshotDate time.Time       `json:"snapshot_date" gorm:"not null;uniqueIndex:idx_leaderboard_user_date;index"`
	WinRate      float64         `json:"win_rate"`
	TotalProfit  decimal.Decimal `json:"total_profit" gorm:"type:numeric(14,2);not null"`
	SettledBets  int             `json:"settled_bets"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LeaderboardResponse is the API response for the leaderboard
type LeaderboardResponse struct {
	SnapshotDate *time.Time         `json:"snapshot_date"`
	Entries      []LeaderboardEntry `json:"entries"`
}
