package analysis

import (
	"testing"
)

func TestServiceStatsPartitions(t *testing.T) {
	best := scenarioBest(t)
	stats := ServiceStats(best, scenarioShipments(), RankWinRate)

	if len(stats) != 2 {
		t.Fatalf("expected 2 services, got %d", len(stats))
	}

	// First-seen shipment order: Ground before Express.
	if stats[0].ServiceType != "Ground" || stats[1].ServiceType != "Express" {
		t.Fatalf("unexpected service order: %s, %s", stats[0].ServiceType, stats[1].ServiceType)
	}
	if stats[0].ShipmentCount != 2 || stats[1].ShipmentCount != 1 {
		t.Fatalf("unexpected shipment counts: %d, %d", stats[0].ShipmentCount, stats[1].ShipmentCount)
	}
}

func TestServiceStatsScopedTotals(t *testing.T) {
	best := scenarioBest(t)
	stats := ServiceStats(best, scenarioShipments(), RankWinRate)

	ground := stats[0]
	acme := findStat(t, ground.Accounts, "Acme")
	// Ground shipments only: 80 + 60.
	if !acme.TotalSpend.Equal(dec(140)) {
		t.Fatalf("Acme ground spend = %s, want 140", acme.TotalSpend)
	}
	if acme.ShipmentsQuoted != 2 {
		t.Fatalf("Acme ground quoted = %d, want 2", acme.ShipmentsQuoted)
	}

	express := stats[1]
	if express.HasAccount("Beta") {
		t.Fatal("Beta has no express quotes and must not appear")
	}
	if !express.HasAccount("Acme") {
		t.Fatal("Acme should appear for express")
	}
}

func TestServiceStatsRankByWinRate(t *testing.T) {
	best := scenarioBest(t)
	stats := ServiceStats(best, scenarioShipments(), RankWinRate)

	// Ground: Acme wins 1/2 (50%), Beta wins 2/2 (100%).
	ground := stats[0]
	if ground.Accounts[0].Account != "Beta" {
		t.Fatalf("win-rate ranking should lead with Beta, got %s", ground.Accounts[0].Account)
	}
}

func TestServiceStatsRankByAvgRate(t *testing.T) {
	best := scenarioBest(t)
	stats := ServiceStats(best, scenarioShipments(), RankAvgRate)

	// Ground averages: Acme 70, Beta 65. Lowest first.
	ground := stats[0]
	if ground.Accounts[0].Account != "Beta" {
		t.Fatalf("avg-rate ranking should lead with Beta, got %s", ground.Accounts[0].Account)
	}
}

func TestServiceStatsRankByShipments(t *testing.T) {
	best := scenarioBest(t)
	stats := ServiceStats(best, scenarioShipments(), RankShipments)

	// Equal counts on ground keep first-seen order.
	ground := stats[0]
	if ground.Accounts[0].Account != "Acme" {
		t.Fatalf("shipment-count tie should keep first-seen order, got %s", ground.Accounts[0].Account)
	}
}

func TestServiceStatsEmptyInput(t *testing.T) {
	best := scenarioBest(t)

	if got := ServiceStats(best, nil, RankWinRate); len(got) != 0 {
		t.Fatalf("no shipments should produce no services, got %d", len(got))
	}
}
