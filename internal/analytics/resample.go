package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

// ChartDateLayout is the label format used for performance chart buckets
const ChartDateLayout = "Jan 02"

// ProfitPoint is a settled profit at a point in time
type ProfitPoint struct {
	At     time.Time
	Profit decimal.Decimal
}

// ProfitPoints extracts chart input from settled bets. Bets without a profit
// value are left out.
func ProfitPoints(bets []models.Bet) []ProfitPoint {
	points := make([]ProfitPoint, 0, len(bets))
	for _, b := range bets {
		if !b.IsSettled() || !b.HasProfit() {
			continue
		}
		points = append(points, ProfitPoint{At: b.CreatedAt, Profit: *b.Profit})
	}
	return points
}

// BucketDays picks the bucket width in days for a chart covering the given
// number of days.
func BucketDays(horizonDays int) int {
	switch {
	case horizonDays <= 30:
		return 1
	case horizonDays <= 90:
		return 7
	default:
		return 15
	}
}

// Resample groups points into fixed-width calendar buckets starting at
// midnight of the earliest point and returns the running profit total per
// bucket. Buckets without points are kept with an unchanged total, so the
// output has no gaps between the first and last bucket.
func Resample(points []ProfitPoint, horizonDays int) []models.PerformancePoint {
	if len(points) == 0 {
		return []models.PerformancePoint{}
	}

	sorted := make([]ProfitPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	loc := sorted[0].At.Location()
	first := sorted[0].At
	origin := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	width := BucketDays(horizonDays)

	last := sorted[len(sorted)-1].At.In(loc)
	sums := make([]decimal.Decimal, calendarDaysBetween(origin, last)/width+1)
	for i := range sums {
		sums[i] = decimal.Zero
	}

	for _, p := range sorted {
		idx := calendarDaysBetween(origin, p.At.In(loc)) / width
		sums[idx] = sums[idx].Add(p.Profit)
	}

	history := make([]models.PerformancePoint, 0, len(sums))
	running := decimal.Zero
	for i, sum := range sums {
		running = running.Add(sum)
		history = append(history, models.PerformancePoint{
			Date:   origin.AddDate(0, 0, i*width).Format(ChartDateLayout),
			Profit: RoundMoney(running),
		})
	}

	return history
}

// calendarDaysBetween counts midnights crossed between from and to, ignoring
// DST shifts in their shared location.
func calendarDaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / day)
}
