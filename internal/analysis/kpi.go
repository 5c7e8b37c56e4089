package analysis

import (
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
)

// KPISummary carries the top-level scorecard numbers for a completed
// analysis run.
type KPISummary struct {
	TopPerformer      model.AccountID
	TotalSavings      decimal.Decimal
	CurrentCost       decimal.Decimal
	SavingsPercentage decimal.Decimal
	AccountsCompared  int
	UnmatchedQuotes   int
}

// Summarize derives the scorecard from the aggregated stats. The top
// performer is chosen by rule; TotalSavings is that account's total
// dollar savings, CurrentCost the sum of current rates over the whole
// shipment population. Empty inputs produce a zeroed summary.
func Summarize(stats []AccountStat, best *matching.BestRateSet, shipments []model.ShipmentRecord, rule PerformerRule, unmatched int) KPISummary {
	summary := KPISummary{
		AccountsCompared: len(stats),
		UnmatchedQuotes:  unmatched,
	}

	for _, s := range shipments {
		summary.CurrentCost = summary.CurrentCost.Add(s.CurrentRate)
	}

	top, ok := pickPerformer(stats, best, shipments, rule)
	if !ok {
		return summary
	}

	summary.TopPerformer = top.Account
	summary.TotalSavings = top.TotalSavings
	summary.SavingsPercentage = percentOf(summary.TotalSavings, summary.CurrentCost)
	return summary
}

// pickPerformer applies the configured rule over the stat rows.
// First-seen wins every tie.
func pickPerformer(stats []AccountStat, best *matching.BestRateSet, shipments []model.ShipmentRecord, rule PerformerRule) (AccountStat, bool) {
	if len(stats) == 0 {
		return AccountStat{}, false
	}

	switch rule {
	case PerformerMaxWinRate:
		return maxBy(stats, func(a, b AccountStat) bool {
			return a.WinRate.GreaterThan(b.WinRate)
		}), true
	case PerformerMaxSavings:
		return maxBy(stats, func(a, b AccountStat) bool {
			return a.TotalSavings.GreaterThan(b.TotalSavings)
		}), true
	default:
		top, _ := topPerformer(best, shipments)
		for _, s := range stats {
			if s.Account == top {
				return s, true
			}
		}
		return stats[0], true
	}
}

// maxBy scans stats in input order, keeping the first row that better
// compares against the running winner.
func maxBy(stats []AccountStat, better func(a, b AccountStat) bool) AccountStat {
	winner := stats[0]
	for _, s := range stats[1:] {
		if better(s, winner) {
			winner = s
		}
	}
	return winner
}
