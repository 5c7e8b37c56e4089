package matching

import (
	"carrier-rate-optimizer/internal/model"
)

// RateKey identifies one (account, shipment) cell of the rate matrix.
type RateKey struct {
	Account  model.AccountID
	Shipment string
}

// BestRateSet holds the cheapest quote per (account, shipment) while
// preserving first-seen ordering of keys and accounts. Aggregation
// output must be deterministic for a stable input ordering, which a
// bare map cannot guarantee.
type BestRateSet struct {
	byKey    map[RateKey]MatchedPair
	keys     []RateKey
	accounts []model.AccountID
}

// BestRates collapses the matched pairs to the single cheapest quote
// per (account, shipment). The quoting collaborator returns several
// service-level quotes for the same account and shipment; aggregating
// without this reduction double-counts shipments per account.
//
// Ties keep the first-seen quote.
func BestRates(pairs []MatchedPair) *BestRateSet {
	set := &BestRateSet{byKey: make(map[RateKey]MatchedPair, len(pairs))}
	seenAccounts := make(map[model.AccountID]bool)

	for _, p := range pairs {
		key := RateKey{Account: p.Quote.AccountName, Shipment: p.Shipment.Key()}

		current, seen := set.byKey[key]
		if !seen {
			set.keys = append(set.keys, key)
		}
		if !seen || p.Quote.RateAmount.LessThan(current.Quote.RateAmount) {
			set.byKey[key] = p
		}

		if !seenAccounts[p.Quote.AccountName] {
			seenAccounts[p.Quote.AccountName] = true
			set.accounts = append(set.accounts, p.Quote.AccountName)
		}
	}

	return set
}

// Lookup returns the best pair for an (account, shipment) key.
func (s *BestRateSet) Lookup(account model.AccountID, shipmentKey string) (MatchedPair, bool) {
	p, ok := s.byKey[RateKey{Account: account, Shipment: shipmentKey}]
	return p, ok
}

// Keys returns every (account, shipment) key in first-seen order.
func (s *BestRateSet) Keys() []RateKey {
	return s.keys
}

// Accounts returns the distinct account IDs in first-seen order.
func (s *BestRateSet) Accounts() []model.AccountID {
	return s.accounts
}

// Get returns the pair stored under key.
func (s *BestRateSet) Get(key RateKey) (MatchedPair, bool) {
	p, ok := s.byKey[key]
	return p, ok
}

// Len reports the number of (account, shipment) cells.
func (s *BestRateSet) Len() int {
	return len(s.byKey)
}
