package models

// MetricsSnapshot is the headline block of a user's dashboard. Rates and
// trends are percentages; TotalProfit is in account currency.
type MetricsSnapshot struct {
	WinRate          float64 `json:"winRate"`
	WinRateTrend     float64 `json:"winRateTrend"`
	TotalProfit      float64 `json:"totalProfit"`
	ProfitTrend      float64 `json:"profitTrend"`
	ClutchPicks      int     `json:"clutchPicks"`
	ClutchPicksTrend float64 `json:"clutchPicksTrend"`
	Followers        int     `json:"followers"`
	FollowersTrend   float64 `json:"followersTrend"`
}

// PerformancePoint is one bucket of the cumulative profit chart
type PerformancePoint struct {
	Date   string  `json:"date"`
	Profit float64 `json:"profit"`
}

type ActivityType string

const (
	ActivityWin      ActivityType = "win"
	ActivityLoss     ActivityType = "loss"
	ActivityBet      ActivityType = "bet"
	ActivityPurchase ActivityType = "purchase"
)

type ActivityItem struct {
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	Time        string       `json:"time"`
}
