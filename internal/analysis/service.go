package analysis

import (
	"sort"

	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
)

// ServiceStat groups account performance for a single service type,
// with accounts ranked by the caller-selected key.
type ServiceStat struct {
	ServiceType   string
	ShipmentCount int
	Accounts      []AccountStat
}

// HasAccount reports whether account appears in this service's ranking,
// i.e. it has at least one quote for a shipment of this service.
func (s ServiceStat) HasAccount(account model.AccountID) bool {
	for _, a := range s.Accounts {
		if a.Account == account {
			return true
		}
	}
	return false
}

// ServiceStats partitions the shipment population by service type and
// aggregates per-account performance inside each partition. Services
// appear in first-seen shipment order; accounts within a service are
// ranked by rankBy, ties preserving first-seen order.
func ServiceStats(best *matching.BestRateSet, shipments []model.ShipmentRecord, rankBy RankKey) []ServiceStat {
	var order []string
	byService := make(map[string][]model.ShipmentRecord)
	for _, s := range shipments {
		if _, ok := byService[s.ServiceType]; !ok {
			order = append(order, s.ServiceType)
		}
		byService[s.ServiceType] = append(byService[s.ServiceType], s)
	}

	stats := make([]ServiceStat, 0, len(order))
	for _, service := range order {
		population := byService[service]
		stat := ServiceStat{ServiceType: service, ShipmentCount: len(population)}

		scoped := scopeToService(best, population)
		for _, account := range scoped.Accounts() {
			stat.Accounts = append(stat.Accounts, accountStat(account, scoped))
		}

		rankAccounts(stat.Accounts, rankBy)
		stats = append(stats, stat)
	}

	return stats
}

// scopeToService rebuilds a best-rate set containing only cells for
// shipments of the given service population.
func scopeToService(best *matching.BestRateSet, population []model.ShipmentRecord) *matching.BestRateSet {
	keep := make(map[string]bool, len(population))
	for _, s := range population {
		keep[s.Key()] = true
	}

	var pairs []matching.MatchedPair
	for _, key := range best.Keys() {
		if !keep[key.Shipment] {
			continue
		}
		pair, _ := best.Get(key)
		pairs = append(pairs, pair)
	}
	return matching.BestRates(pairs)
}

// rankAccounts orders the service-scoped account rows by the selected
// key.
func rankAccounts(accounts []AccountStat, rankBy RankKey) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		switch rankBy {
		case RankAvgRate:
			return a.AvgRate().LessThan(b.AvgRate())
		case RankShipments:
			return a.ShipmentsQuoted > b.ShipmentsQuoted
		default:
			return a.WinRate.GreaterThan(b.WinRate)
		}
	})
}
