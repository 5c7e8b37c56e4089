package assignment

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/analysis"
	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func fixtureShipments() []model.ShipmentRecord {
	return []model.ShipmentRecord{
		{ID: "1", TrackingID: "T1", CurrentRate: dec(100), ServiceType: "Ground", ShipmentIndex: 0},
		{ID: "2", TrackingID: "T2", CurrentRate: dec(50), ServiceType: "Ground", ShipmentIndex: 1},
		{ID: "7", TrackingID: "T7", CurrentRate: dec(70), ServiceType: "Express", ShipmentIndex: 2},
	}
}

func fixtureQuotes() []model.RateQuote {
	return []model.RateQuote{
		{ShipmentRef: model.ShipmentRef{TrackingID: "T1"}, AccountName: "A", RateAmount: dec(80)},
		{ShipmentRef: model.ShipmentRef{TrackingID: "T1"}, AccountName: "B", RateAmount: dec(90)},
		{ShipmentRef: model.ShipmentRef{TrackingID: "T2"}, AccountName: "A", RateAmount: dec(60)},
		{ShipmentRef: model.ShipmentRef{TrackingID: "T2"}, AccountName: "B", RateAmount: dec(40)},
		{ShipmentRef: model.ShipmentRef{TrackingID: "T7"}, AccountName: "A", RateAmount: dec(65)},
		{ShipmentRef: model.ShipmentRef{TrackingID: "T7"}, AccountName: "C", RateAmount: dec(60)},
	}
}

func fixtureSelector(t *testing.T, shipments []model.ShipmentRecord) *Selector {
	t.Helper()
	m := matching.NewMatcher(zerolog.Nop())
	pairs, _ := m.MatchAll(fixtureQuotes(), shipments)
	best := matching.BestRates(pairs)
	services := analysis.ServiceStats(best, shipments, analysis.RankWinRate)
	return NewSelector(shipments, best, services, zerolog.Nop())
}

func TestResolvePrecedence(t *testing.T) {
	shipments := fixtureShipments()
	sel := fixtureSelector(t, shipments)

	sel.ResetEmpty()
	sel.SetGlobal("A")
	if ok := sel.SetServiceAccount("Ground", "B"); !ok {
		t.Fatal("B quotes ground and must be accepted")
	}
	sel.SetIndividual("T7", "C")

	if got, _ := sel.Resolve(shipments[2]); got != "C" {
		t.Fatalf("individual override should win, got %s", got)
	}
	if got, _ := sel.Resolve(shipments[0]); got != "B" {
		t.Fatalf("service override should beat global, got %s", got)
	}

	other := model.ShipmentRecord{ID: "9", TrackingID: "T9", ServiceType: "Overnight"}
	if got, _ := sel.Resolve(other); got != "A" {
		t.Fatalf("global should apply absent overrides, got %s", got)
	}
}

func TestSetServiceAccountRejectsInvalid(t *testing.T) {
	sel := fixtureSelector(t, fixtureShipments())

	// C only quotes express shipments.
	if sel.SetServiceAccount("Ground", "C") {
		t.Fatal("account without ground quotes must be rejected")
	}
	if sel.SetServiceAccount("Overnight", "A") {
		t.Fatal("unknown service must be rejected")
	}
}

func TestProjectionRecomputesOnChange(t *testing.T) {
	sel := fixtureSelector(t, fixtureShipments())
	sel.ResetEmpty()

	if sel.Projection().OptimizedShipmentCount != 0 {
		t.Fatal("empty state should project nothing")
	}

	sel.SetGlobal("A")
	proj := sel.Projection()
	// A everywhere: (100-80) + (50-60) + (70-65) = 15 over 3 shipments.
	if !proj.TotalOptimizedSavings.Equal(dec(15)) {
		t.Fatalf("projected savings = %s, want 15", proj.TotalOptimizedSavings)
	}
	if proj.OptimizedShipmentCount != 3 {
		t.Fatalf("projected count = %d, want 3", proj.OptimizedShipmentCount)
	}

	sel.SetServiceAccount("Ground", "B")
	proj = sel.Projection()
	// B on ground, A on express: (100-90) + (50-40) + (70-65) = 25.
	if !proj.TotalOptimizedSavings.Equal(dec(25)) {
		t.Fatalf("projected savings = %s, want 25", proj.TotalOptimizedSavings)
	}
}

func TestSelectAccountForAllServices(t *testing.T) {
	sel := fixtureSelector(t, fixtureShipments())
	sel.ResetEmpty()

	sel.SetServiceAccount("Express", "C")
	sel.SelectAccountForAllServices("B")

	// B quotes ground only; the express selection must survive.
	if got := sel.State().Service["Ground"]; got != "B" {
		t.Fatalf("ground should select B, got %s", got)
	}
	if got := sel.State().Service["Express"]; got != "C" {
		t.Fatalf("express selection must be untouched, got %s", got)
	}
}

func TestSeedFromPersistedAssignments(t *testing.T) {
	shipments := fixtureShipments()
	shipments[0].AccountUsed = "A"
	shipments[1].AccountUsed = "A"
	sel := fixtureSelector(t, shipments)

	if got := sel.State().Service["Ground"]; got != "A" {
		t.Fatalf("persisted majority should seed ground = A, got %s", got)
	}
	// Express has nothing persisted, so its top-ranked account seeds
	// the baseline. A and C both win 1/1; the stable sort keeps A, the
	// first seen in the quote stream.
	if got := sel.State().Service["Express"]; got != "A" {
		t.Fatalf("unpersisted service should seed from ranking, got %s", got)
	}
}

func TestClearAllRestoresBaseline(t *testing.T) {
	shipments := fixtureShipments()
	shipments[0].AccountUsed = "B"
	shipments[1].AccountUsed = "B"
	sel := fixtureSelector(t, shipments)

	sel.SetGlobal("A")
	sel.SetIndividual("T7", "C")
	sel.ClearAll()

	state := sel.State()
	if state.Global != "" {
		t.Fatalf("global should reset, got %s", state.Global)
	}
	if len(state.Individual) != 0 {
		t.Fatal("individual overrides should reset")
	}
	if got := state.Service["Ground"]; got != "B" {
		t.Fatalf("baseline ground selection should return, got %s", got)
	}
}

func TestApplyAssignments(t *testing.T) {
	shipments := fixtureShipments()
	sel := fixtureSelector(t, shipments)
	sel.ResetEmpty()
	sel.SetGlobal("A")
	sel.SetIndividual("T7", "C")

	updated := sel.ApplyAssignments()
	if updated[0].AccountUsed != "A" || updated[1].AccountUsed != "A" {
		t.Fatal("ground shipments should carry the global account")
	}
	if updated[2].AccountUsed != "C" {
		t.Fatalf("overridden shipment should carry C, got %s", updated[2].AccountUsed)
	}

	// Inputs are never mutated.
	if shipments[0].AccountUsed != "" {
		t.Fatal("original shipment records must stay untouched")
	}
}
