package analysis

import (
	"testing"

	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/matching"
)

func TestSummarizeMinCost(t *testing.T) {
	best := scenarioBest(t)
	shipments := scenarioShipments()
	stats := AccountStats(best, shipments)

	summary := Summarize(stats, best, shipments, PerformerMinCost, 1)

	// Coverage-adjusted: Beta routes ship1+ship2 for 130 and leaves
	// ship3 at its current 70 (total 200) against Acme's 205.
	if summary.TopPerformer != "Beta" {
		t.Fatalf("top performer = %s, want Beta", summary.TopPerformer)
	}
	if !summary.TotalSavings.Equal(dec(20)) {
		t.Fatalf("total savings = %s, want 20", summary.TotalSavings)
	}
	if !summary.CurrentCost.Equal(dec(220)) {
		t.Fatalf("current cost = %s, want 220", summary.CurrentCost)
	}
	if summary.AccountsCompared != 2 {
		t.Fatalf("accounts compared = %d, want 2", summary.AccountsCompared)
	}
	if summary.UnmatchedQuotes != 1 {
		t.Fatalf("unmatched = %d, want 1", summary.UnmatchedQuotes)
	}

	want := dec(20).Div(dec(220)).Mul(dec100)
	if !summary.SavingsPercentage.Equal(want) {
		t.Fatalf("savings pct = %s, want %s", summary.SavingsPercentage, want)
	}
}

func TestSummarizeMaxWinRate(t *testing.T) {
	best := scenarioBest(t)
	shipments := scenarioShipments()
	stats := AccountStats(best, shipments)

	summary := Summarize(stats, best, shipments, PerformerMaxWinRate, 0)

	// Beta wins 2/2 (100%) against Acme's 2/3.
	if summary.TopPerformer != "Beta" {
		t.Fatalf("top performer = %s, want Beta", summary.TopPerformer)
	}
}

func TestSummarizeMaxSavings(t *testing.T) {
	best := scenarioBest(t)
	shipments := scenarioShipments()
	stats := AccountStats(best, shipments)

	summary := Summarize(stats, best, shipments, PerformerMaxSavings, 0)

	// Beta saves 20 total against Acme's 15.
	if summary.TopPerformer != "Beta" {
		t.Fatalf("top performer = %s, want Beta", summary.TopPerformer)
	}
	if !summary.TotalSavings.Equal(dec(20)) {
		t.Fatalf("total savings = %s, want 20", summary.TotalSavings)
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	summary := Summarize(nil, matching.BestRates(nil), nil, PerformerMinCost, 0)

	if summary.TopPerformer != "" {
		t.Fatalf("top performer should be empty, got %s", summary.TopPerformer)
	}
	if !summary.TotalSavings.Equal(decimal.Zero) || !summary.SavingsPercentage.Equal(decimal.Zero) {
		t.Fatal("empty input must yield zeroed summary")
	}
}

func TestParsePerformerRule(t *testing.T) {
	cases := []struct {
		in   string
		want PerformerRule
	}{
		{"", PerformerMinCost},
		{"min_cost", PerformerMinCost},
		{"max_win_rate", PerformerMaxWinRate},
		{"max_savings", PerformerMaxSavings},
	}
	for _, tc := range cases {
		got, err := ParsePerformerRule(tc.in)
		if err != nil {
			t.Fatalf("ParsePerformerRule(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePerformerRule(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParsePerformerRule("bogus"); err == nil {
		t.Fatal("expected error for unknown rule")
	}
}

func TestParseRankKey(t *testing.T) {
	if got, err := ParseRankKey("avg_rate"); err != nil || got != RankAvgRate {
		t.Fatalf("ParseRankKey(avg_rate) = %v, %v", got, err)
	}
	if _, err := ParseRankKey("bogus"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
