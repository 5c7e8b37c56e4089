package assignment

import (
	"carrier-rate-optimizer/internal/model"
)

// State holds the account selection at its three precedence layers.
// Resolution order for a shipment is individual, then service, then
// global; setting a broader layer never clears a narrower one.
type State struct {
	Global     model.AccountID
	Service    map[string]model.AccountID
	Individual map[string]model.AccountID
}

// NewState returns an empty selection state.
func NewState() State {
	return State{
		Service:    make(map[string]model.AccountID),
		Individual: make(map[string]model.AccountID),
	}
}

// Clone deep-copies the state so a baseline can be restored later.
func (s State) Clone() State {
	out := State{
		Global:     s.Global,
		Service:    make(map[string]model.AccountID, len(s.Service)),
		Individual: make(map[string]model.AccountID, len(s.Individual)),
	}
	for k, v := range s.Service {
		out.Service[k] = v
	}
	for k, v := range s.Individual {
		out.Individual[k] = v
	}
	return out
}

// Resolve returns the effective account for a shipment, walking the
// precedence chain. ok is false when no layer applies.
func (s State) Resolve(shipment model.ShipmentRecord) (model.AccountID, bool) {
	if account, ok := s.Individual[shipment.Key()]; ok {
		return account, true
	}
	if account, ok := s.Service[shipment.ServiceType]; ok {
		return account, true
	}
	if s.Global != "" {
		return s.Global, true
	}
	return "", false
}
