package ingest

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestReadShipments(t *testing.T) {
	input := strings.Join([]string{
		"id,tracking_id,current_rate,weight,service_type",
		`101,1Z001,"$1,204.50",2.5,Ground`,
		"102,,35.00,1.0,Express",
	}, "\n")

	l := NewLoader(zerolog.Nop())
	shipments, err := l.ReadShipments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadShipments: %v", err)
	}

	if len(shipments) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(shipments))
	}

	first := shipments[0]
	if first.ID != "101" || first.TrackingID != "1Z001" {
		t.Fatalf("unexpected identity: %+v", first)
	}
	if !first.CurrentRate.Equal(decimal.NewFromFloat(1204.50)) {
		t.Fatalf("currency formatting should be tolerated, got %s", first.CurrentRate)
	}
	if first.ShipmentIndex != 0 || shipments[1].ShipmentIndex != 1 {
		t.Fatal("row position should become the shipment index")
	}
	if shipments[1].TrackingID != "" {
		t.Fatal("missing tracking ID should stay empty")
	}
}

func TestReadShipmentsMissingColumns(t *testing.T) {
	l := NewLoader(zerolog.Nop())

	if _, err := l.ReadShipments(strings.NewReader("tracking_id,current_rate\nx,1")); err == nil {
		t.Fatal("missing id column should fail")
	}
	if _, err := l.ReadShipments(strings.NewReader("id,weight\n1,2")); err == nil {
		t.Fatal("missing current_rate column should fail")
	}
}

func TestReadQuotes(t *testing.T) {
	input := strings.Join([]string{
		"shipment_index,account_name,carrier_type,service_code,service_name,rate_amount,is_negotiated,tracking_id,shipment_id",
		"0,Acme Logistics,ups,03,Ground,11.42,true,1Z001,101",
		",Beta Freight,fedex,FG,Ground,9.80,false,,102",
	}, "\n")

	l := NewLoader(zerolog.Nop())
	quotes, err := l.ReadQuotes(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadQuotes: %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	first := quotes[0]
	if first.AccountName != "Acme Logistics" || !first.IsNegotiated {
		t.Fatalf("unexpected quote: %+v", first)
	}
	if first.ShipmentIndex != 0 {
		t.Fatalf("index 0 must parse as 0, got %d", first.ShipmentIndex)
	}
	if first.ShipmentRef.TrackingID != "1Z001" {
		t.Fatalf("tracking ref = %s", first.ShipmentRef.TrackingID)
	}

	// A blank index is not index zero.
	if quotes[1].ShipmentIndex != -1 {
		t.Fatalf("blank index should stay -1, got %d", quotes[1].ShipmentIndex)
	}
}

func TestReadQuotesBadRate(t *testing.T) {
	l := NewLoader(zerolog.Nop())
	input := "account_name,rate_amount\nAcme,not-a-number"
	if _, err := l.ReadQuotes(strings.NewReader(input)); err == nil {
		t.Fatal("invalid rate should fail")
	}
}
