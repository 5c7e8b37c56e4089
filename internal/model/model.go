package model

import (
	"github.com/shopspring/decimal"
)

// AccountID identifies a carrier account, the unit of rate comparison.
// A dedicated type keeps account keys from mixing with service-type or
// shipment-key strings.
type AccountID string

func (a AccountID) String() string { return string(a) }

// ShipmentRecord is one row per physical shipment under analysis.
// Immutable after ingestion except for AccountUsed, which the
// assignment save-point populates.
type ShipmentRecord struct {
	ID            string
	TrackingID    string
	CurrentRate   decimal.Decimal
	Weight        decimal.Decimal
	ServiceType   string
	ShipmentIndex int
	AccountUsed   AccountID
}

// Key returns the stable join key for a shipment: the tracking ID when
// present, otherwise the record ID.
func (s ShipmentRecord) Key() string {
	if s.TrackingID != "" {
		return s.TrackingID
	}
	return s.ID
}

// ShipmentRef is the denormalized shipment identity embedded in each
// quote by the quoting collaborator. Either field may be empty
// depending on the import format that produced the shipment.
type ShipmentRef struct {
	TrackingID string
	ShipmentID string
}

// RateQuote is one (shipment, account, service) price quote returned
// by the remote quoting collaborator. Read-only to the analysis core.
type RateQuote struct {
	ShipmentIndex int
	AccountName   AccountID
	CarrierType   string
	ServiceCode   string
	ServiceName   string
	RateAmount    decimal.Decimal
	IsNegotiated  bool
	ShipmentRef   ShipmentRef
}
