package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/codyseavey/clutch-picks/backend/internal/models"
)

type timedActivity struct {
	at   time.Time
	item models.ActivityItem
}

// MergeActivity builds the reverse-chronological activity feed from a user's
// recent bets and subscription purchases, truncated to limit items.
func MergeActivity(bets []models.Bet, subs []models.Subscription, now time.Time, limit int) []models.ActivityItem {
	if limit <= 0 {
		return []models.ActivityItem{}
	}

	merged := make([]timedActivity, 0, len(bets)+len(subs))
	for _, b := range bets {
		kind, description := DescribeBet(b)
		merged = append(merged, timedActivity{
			at: b.CreatedAt,
			item: models.ActivityItem{
				Type:        kind,
				Description: description,
				Time:        FormatRelativeTime(now, b.CreatedAt),
			},
		})
	}
	for _, s := range subs {
		merged = append(merged, timedActivity{
			at: s.CreatedAt,
			item: models.ActivityItem{
				Type:        models.ActivityPurchase,
				Description: fmt.Sprintf("Purchased %s Plan", s.PlanName),
				Time:        FormatRelativeTime(now, s.CreatedAt),
			},
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].at.After(merged[j].at)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}

	items := make([]models.ActivityItem, len(merged))
	for i, m := range merged {
		items[i] = m.item
	}
	return items
}

// DescribeBet classifies a bet for the activity feed and renders its
// description, e.g. "Won $50.00 on Lakers vs Celtics ($45.00)".
func DescribeBet(b models.Bet) (models.ActivityType, string) {
	kind := models.ActivityBet
	verb := "Placed"
	switch b.Status {
	case models.BetStatusWin:
		kind, verb = models.ActivityWin, "Won"
	case models.BetStatusLoss:
		kind, verb = models.ActivityLoss, "Lost"
	}

	amount := b.Amount.Abs().StringFixed(2)
	description := fmt.Sprintf("%s $%s bet", verb, amount)
	if b.EventName != "" {
		description = fmt.Sprintf("%s $%s on %s", verb, amount, b.EventName)
	}

	if kind != models.ActivityBet && b.HasProfit() {
		description += fmt.Sprintf(" ($%s)", b.Profit.Abs().StringFixed(2))
	}

	return kind, description
}

// FormatRelativeTime renders how long before now ts happened, using the
// largest whole unit: "3d ago", "5h ago", "12m ago" or "just now".
// Timestamps in the future are reported as "just now".
func FormatRelativeTime(now, ts time.Time) string {
	diff := now.Sub(ts)
	if diff < 0 {
		return "just now"
	}

	switch {
	case diff >= day:
		return fmt.Sprintf("%dd ago", int(diff/day))
	case diff >= time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff >= time.Minute:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	default:
		return "just now"
	}
}
