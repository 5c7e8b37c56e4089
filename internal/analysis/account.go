package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
)

// AccountStat summarises one carrier account's performance across every
// shipment it quoted.
type AccountStat struct {
	Account              model.AccountID
	TotalSpend           decimal.Decimal
	ShipmentsQuoted      int
	Wins                 int
	WinRate              decimal.Decimal
	AvgDollarSavings     decimal.Decimal
	AvgPercentSavings    decimal.Decimal
	MedianDollarSavings  decimal.Decimal
	MedianPercentSavings decimal.Decimal
	TotalSavings         decimal.Decimal
	TotalSavingsPercent  decimal.Decimal
}

// AvgRate returns the mean best-rate amount per quoted shipment, zero
// when the account quoted nothing.
func (s AccountStat) AvgRate() decimal.Decimal {
	if s.ShipmentsQuoted == 0 {
		return decimal.Zero
	}
	return s.TotalSpend.Div(decimal.NewFromInt(int64(s.ShipmentsQuoted)))
}

// AccountStats aggregates the reduced best-rate set into one stat row
// per distinct account. Output order: the MinCost top performer first,
// the remainder by TotalSpend descending; ties keep first-seen order so
// the result is deterministic and idempotent.
func AccountStats(best *matching.BestRateSet, shipments []model.ShipmentRecord) []AccountStat {
	stats := make([]AccountStat, 0, len(best.Accounts()))
	for _, account := range best.Accounts() {
		stats = append(stats, accountStat(account, best))
	}

	orderAccountStats(stats, best, shipments)
	return stats
}

// accountStat computes one account's row from its best-rate cells.
func accountStat(account model.AccountID, best *matching.BestRateSet) AccountStat {
	stat := AccountStat{Account: account}

	var dollar, percent []decimal.Decimal
	for _, key := range best.Keys() {
		if key.Account != account {
			continue
		}
		pair, _ := best.Get(key)

		rate := pair.Quote.RateAmount
		current := pair.Shipment.CurrentRate
		saving := current.Sub(rate)

		stat.TotalSpend = stat.TotalSpend.Add(rate)
		stat.ShipmentsQuoted++
		stat.TotalSavings = stat.TotalSavings.Add(saving)
		if saving.GreaterThan(decimal.Zero) {
			stat.Wins++
		}

		dollar = append(dollar, saving)
		percent = append(percent, percentOf(saving, current))
	}

	if stat.ShipmentsQuoted > 0 {
		stat.WinRate = decimal.NewFromInt(int64(stat.Wins)).
			Div(decimal.NewFromInt(int64(stat.ShipmentsQuoted))).
			Mul(dec100)
	}

	stat.AvgDollarSavings = mean(dollar)
	stat.AvgPercentSavings = mean(percent)
	stat.MedianDollarSavings = median(dollar)
	stat.MedianPercentSavings = median(percent)

	// Implied original cost is spend plus savings; the ratio
	// reconstructs the percentage saved against it.
	stat.TotalSavingsPercent = percentOf(stat.TotalSavings, stat.TotalSpend.Add(stat.TotalSavings))

	return stat
}

// orderAccountStats moves the top performer to the front and sorts the
// rest by total spend descending, preserving first-seen order on ties.
func orderAccountStats(stats []AccountStat, best *matching.BestRateSet, shipments []model.ShipmentRecord) {
	if len(stats) < 2 {
		return
	}

	top, ok := topPerformer(best, shipments)
	sort.SliceStable(stats, func(i, j int) bool {
		if ok {
			if stats[i].Account == top {
				return stats[j].Account != top
			}
			if stats[j].Account == top {
				return false
			}
		}
		return stats[i].TotalSpend.GreaterThan(stats[j].TotalSpend)
	})
}

// topPerformer returns the account with the lowest coverage-adjusted
// total cost (see PerformerMinCost). First-seen wins ties.
func topPerformer(best *matching.BestRateSet, shipments []model.ShipmentRecord) (model.AccountID, bool) {
	accounts := best.Accounts()
	if len(accounts) == 0 {
		return "", false
	}

	winner := accounts[0]
	winnerCost := effectiveTotalCost(winner, best, shipments)
	for _, account := range accounts[1:] {
		cost := effectiveTotalCost(account, best, shipments)
		if cost.LessThan(winnerCost) {
			winner = account
			winnerCost = cost
		}
	}
	return winner, true
}

// effectiveTotalCost is the cost of routing every shipment through
// account where it has a quote, and paying the current rate elsewhere.
func effectiveTotalCost(account model.AccountID, best *matching.BestRateSet, shipments []model.ShipmentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shipments {
		if pair, ok := best.Lookup(account, s.Key()); ok {
			total = total.Add(pair.Quote.RateAmount)
		} else {
			total = total.Add(s.CurrentRate)
		}
	}
	return total
}
