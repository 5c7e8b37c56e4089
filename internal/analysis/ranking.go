package analysis

import "fmt"

// PerformerRule selects how the top-performing account is decided.
// The originating dashboards disagreed on the definition, so it is an
// explicit, pluggable choice with MinCost as the canonical default.
type PerformerRule int

const (
	// PerformerMinCost picks the account with the lowest
	// coverage-adjusted total cost: its best-rate cost over every
	// shipment it quotes, plus the current rate for every shipment it
	// cannot quote. An account with cheap rates but thin coverage does
	// not beat one that covers the whole population.
	PerformerMinCost PerformerRule = iota

	// PerformerMaxWinRate picks the account with the highest win rate.
	PerformerMaxWinRate

	// PerformerMaxSavings picks the account with the highest total
	// dollar savings.
	PerformerMaxSavings
)

// ParsePerformerRule maps a config string onto a PerformerRule.
func ParsePerformerRule(s string) (PerformerRule, error) {
	switch s {
	case "", "min_cost":
		return PerformerMinCost, nil
	case "max_win_rate":
		return PerformerMaxWinRate, nil
	case "max_savings":
		return PerformerMaxSavings, nil
	}
	return PerformerMinCost, fmt.Errorf("unknown performer rule %q", s)
}

func (r PerformerRule) String() string {
	switch r {
	case PerformerMaxWinRate:
		return "max_win_rate"
	case PerformerMaxSavings:
		return "max_savings"
	default:
		return "min_cost"
	}
}

// RankKey selects the ordering of per-service account rankings.
type RankKey int

const (
	// RankWinRate orders accounts by win rate, highest first. Default.
	RankWinRate RankKey = iota

	// RankAvgRate orders accounts by average quoted rate, lowest first.
	RankAvgRate

	// RankShipments orders accounts by quoted-shipment count, highest
	// first.
	RankShipments
)

// ParseRankKey maps a config string onto a RankKey.
func ParseRankKey(s string) (RankKey, error) {
	switch s {
	case "", "win_rate":
		return RankWinRate, nil
	case "avg_rate":
		return RankAvgRate, nil
	case "shipments":
		return RankShipments, nil
	}
	return RankWinRate, fmt.Errorf("unknown rank key %q", s)
}

func (k RankKey) String() string {
	switch k {
	case RankAvgRate:
		return "avg_rate"
	case RankShipments:
		return "shipments"
	default:
		return "win_rate"
	}
}
