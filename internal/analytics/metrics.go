// Package analytics holds the pure computations behind the betting dashboard:
// win rates, profit sums, trend windows, the cumulative profit resampler and
// the activity feed. Nothing in here touches the database or the clock;
// callers pass records and the evaluation time in.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

const day = 24 * time.Hour

// WinRate returns the percentage (0-100) of bets that won. An empty slice has
// a win rate of 0.
func WinRate(bets []models.Bet) float64 {
	if len(bets) == 0 {
		return 0
	}

	wins := 0
	for _, b := range bets {
		if b.Status == models.BetStatusWin {
			wins++
		}
	}
	return float64(wins) / float64(len(bets)) * 100
}

// SumProfit adds up the recorded profit of the given bets. Bets without a
// profit value are skipped rather than counted as zero.
func SumProfit(bets []models.Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		if !b.HasProfit() {
			continue
		}
		total = total.Add(*b.Profit)
	}
	return total
}

// Settled filters out pending bets
func Settled(bets []models.Bet) []models.Bet {
	settled := make([]models.Bet, 0, len(bets))
	for _, b := range bets {
		if b.IsSettled() {
			settled = append(settled, b)
		}
	}
	return settled
}

// PercentageChange returns the change from previous to current as a
// percentage of |previous|. A previous value of zero yields 0 regardless of
// current.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / abs(previous) * 100
}

// TrendWindows returns the start of the current window and the start of the
// previous one, both measured back from now. The previous window ends where
// the current one starts.
func TrendWindows(now time.Time, currentDays, previousDays int) (currentStart, previousStart time.Time) {
	currentStart = now.Add(-time.Duration(currentDays) * day)
	previousStart = now.Add(-time.Duration(previousDays) * day)
	return currentStart, previousStart
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundMoney converts a monetary amount to a float with two decimals.
func RoundMoney(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
