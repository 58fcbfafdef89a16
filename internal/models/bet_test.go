package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBetIsSettled(t *testing.T) {
	tests := []struct {
		name     string
		status   BetStatus
		expected bool
	}{
		{"Pending is not settled", BetStatusPending, false},
		{"Win is settled", BetStatusWin, true},
		{"Loss is settled", BetStatusLoss, true},
		{"Void is settled", BetStatusVoid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet := Bet{Status: tt.status}
			if got := bet.IsSettled(); got != tt.expected {
				t.Errorf("Bet{Status: %s}.IsSettled() = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestBetHasProfit(t *testing.T) {
	zero := decimal.Zero

	if (Bet{}).HasProfit() {
		t.Error("Bet without profit should report HasProfit() = false")
	}
	if !(Bet{Profit: &zero}).HasProfit() {
		t.Error("Bet with a zero profit should report HasProfit() = true")
	}
}

func TestMetricsSnapshotJSONKeys(t *testing.T) {
	data, err := json.Marshal(MetricsSnapshot{WinRate: 50, TotalProfit: 10})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"winRate", "winRateTrend", "totalProfit", "profitTrend", "clutchPicks", "clutchPicksTrend", "followers", "followersTrend"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
}
