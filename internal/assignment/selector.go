package assignment

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/analysis"
	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
)

// Projection is the derived outcome of the current selection state.
type Projection struct {
	TotalOptimizedSavings  decimal.Decimal
	OptimizedShipmentCount int
}

// Selector owns the selection state for one analysis session and keeps
// the projected metrics consistent with it. All derived numbers are
// recomputed in full after every mutation; with thousands of shipments
// and single-digit accounts a full pass is cheap and cannot go stale.
//
// A Selector is not safe for concurrent mutation; the surrounding
// session is expected to serialize calls.
type Selector struct {
	logger    zerolog.Logger
	shipments []model.ShipmentRecord
	best      *matching.BestRateSet
	services  []analysis.ServiceStat

	state      State
	baseline   State
	projection Projection
}

// NewSelector builds a Selector over one immutable analysis snapshot.
// The initial state is seeded from assignments already persisted on the
// shipment records: a majority vote per service when records disagree,
// and the top-ranked account per service where nothing is persisted.
func NewSelector(shipments []model.ShipmentRecord, best *matching.BestRateSet, services []analysis.ServiceStat, logger zerolog.Logger) *Selector {
	s := &Selector{
		logger:    logger.With().Str("component", "selector").Logger(),
		shipments: shipments,
		best:      best,
		services:  services,
	}
	s.baseline = s.seedState()
	s.state = s.baseline.Clone()
	s.recompute()
	return s
}

// seedState derives the baseline service-level selections.
func (s *Selector) seedState() State {
	state := NewState()

	votes := make(map[string]map[model.AccountID]int)
	var serviceOrder []string
	accountOrder := make(map[string][]model.AccountID)
	for _, shipment := range s.shipments {
		if shipment.AccountUsed == "" {
			continue
		}
		if _, ok := votes[shipment.ServiceType]; !ok {
			votes[shipment.ServiceType] = make(map[model.AccountID]int)
			serviceOrder = append(serviceOrder, shipment.ServiceType)
		}
		if votes[shipment.ServiceType][shipment.AccountUsed] == 0 {
			accountOrder[shipment.ServiceType] = append(accountOrder[shipment.ServiceType], shipment.AccountUsed)
		}
		votes[shipment.ServiceType][shipment.AccountUsed]++
	}

	for _, service := range serviceOrder {
		best := model.AccountID("")
		bestVotes := 0
		for _, account := range accountOrder[service] {
			if n := votes[service][account]; n > bestVotes {
				best = account
				bestVotes = n
			}
		}
		state.Service[service] = best
	}

	// Services with no persisted assignment fall back to their
	// top-ranked account.
	for _, svc := range s.services {
		if _, ok := state.Service[svc.ServiceType]; ok {
			continue
		}
		if len(svc.Accounts) == 0 {
			continue
		}
		state.Service[svc.ServiceType] = svc.Accounts[0].Account
	}

	return state
}

// State returns a copy of the current selection state.
func (s *Selector) State() State {
	return s.state.Clone()
}

// Projection returns the metrics derived from the current state.
func (s *Selector) Projection() Projection {
	return s.projection
}

// SetGlobal selects an account for every shipment that has no narrower
// override.
func (s *Selector) SetGlobal(account model.AccountID) {
	s.state.Global = account
	s.recompute()
}

// SetServiceAccount overrides the selection for one service type. The
// set is rejected when the account has no quotes for that service, so
// callers can surface the refusal instead of silently assigning an
// account that cannot carry the freight.
func (s *Selector) SetServiceAccount(serviceType string, account model.AccountID) bool {
	if !s.accountValidForService(serviceType, account) {
		s.logger.Debug().
			Str("service", serviceType).
			Str("account", account.String()).
			Msg("rejected service assignment; account has no quotes for service")
		return false
	}
	s.state.Service[serviceType] = account
	s.recompute()
	return true
}

// SetIndividual overrides the selection for a single shipment.
func (s *Selector) SetIndividual(shipmentKey string, account model.AccountID) {
	s.state.Individual[shipmentKey] = account
	s.recompute()
}

// ClearAll drops every user selection and restores the baseline seeded
// at construction.
func (s *Selector) ClearAll() {
	s.state = s.baseline.Clone()
	s.recompute()
}

// ResetEmpty empties every selection layer, ignoring the baseline.
// Used for what-if projections that must start from a blank slate.
func (s *Selector) ResetEmpty() {
	s.state = NewState()
	s.recompute()
}

// Resolve returns the effective account for a shipment under the
// current state.
func (s *Selector) Resolve(shipment model.ShipmentRecord) (model.AccountID, bool) {
	return s.state.Resolve(shipment)
}

// SelectAccountForAllServices sets the service-level override to
// account for every service where it has quotes. Services it cannot
// serve keep their existing selection.
func (s *Selector) SelectAccountForAllServices(account model.AccountID) {
	for _, svc := range s.services {
		if svc.HasAccount(account) {
			s.state.Service[svc.ServiceType] = account
		}
	}
	s.recompute()
}

// ApplyAssignments resolves every shipment and returns updated copies
// with AccountUsed populated, ready for the persistence collaborator.
// Shipments that resolve to nothing keep their stored value.
func (s *Selector) ApplyAssignments() []model.ShipmentRecord {
	out := make([]model.ShipmentRecord, len(s.shipments))
	copy(out, s.shipments)
	for i := range out {
		if account, ok := s.state.Resolve(out[i]); ok {
			out[i].AccountUsed = account
		}
	}
	return out
}

func (s *Selector) accountValidForService(serviceType string, account model.AccountID) bool {
	for _, svc := range s.services {
		if svc.ServiceType == serviceType {
			return svc.HasAccount(account)
		}
	}
	return false
}

// recompute rebuilds the projection by resolving every shipment and
// summing the savings of its effective account's best rate.
func (s *Selector) recompute() {
	proj := Projection{TotalOptimizedSavings: decimal.Zero}

	for _, shipment := range s.shipments {
		account, ok := s.state.Resolve(shipment)
		if !ok {
			continue
		}
		pair, ok := s.best.Lookup(account, shipment.Key())
		if !ok {
			continue
		}
		proj.TotalOptimizedSavings = proj.TotalOptimizedSavings.Add(
			shipment.CurrentRate.Sub(pair.Quote.RateAmount))
		proj.OptimizedShipmentCount++
	}

	s.projection = proj
}
