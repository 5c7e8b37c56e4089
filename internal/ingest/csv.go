// Package ingest loads shipment and quote populations from CSV files.
// It reads plain RFC-4180 CSV; dialect detection and column-mapping UI
// live with upstream collaborators.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/model"
)

// Loader reads analysis inputs from CSV files.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger.With().Str("component", "ingest").Logger()}
}

// LoadShipments reads a shipment file. Recognised headers: id,
// tracking_id, current_rate, weight, service_type. The row position
// becomes the shipment index, which the matcher uses as its last
// fallback.
func (l *Loader) LoadShipments(path string) ([]model.ShipmentRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shipments file: %w", err)
	}
	defer file.Close()

	shipments, err := l.ReadShipments(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return shipments, nil
}

// ReadShipments parses shipment rows from r.
func (l *Loader) ReadShipments(r io.Reader) ([]model.ShipmentRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := indexColumns(header)
	idIdx, ok := cols["id"]
	if !ok {
		return nil, fmt.Errorf("shipments file missing id column")
	}
	rateIdx, ok := cols["current_rate"]
	if !ok {
		return nil, fmt.Errorf("shipments file missing current_rate column")
	}
	trackingIdx := columnOr(cols, "tracking_id", -1)
	weightIdx := columnOr(cols, "weight", -1)
	serviceIdx := columnOr(cols, "service_type", -1)

	var shipments []model.ShipmentRecord
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err)
		}

		rate, err := parseAmount(field(record, rateIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: current_rate: %w", row+2, err)
		}

		shipment := model.ShipmentRecord{
			ID:            field(record, idIdx),
			TrackingID:    field(record, trackingIdx),
			CurrentRate:   rate,
			ServiceType:   field(record, serviceIdx),
			ShipmentIndex: row,
		}
		if w := field(record, weightIdx); w != "" {
			weight, err := parseAmount(w)
			if err != nil {
				return nil, fmt.Errorf("row %d: weight: %w", row+2, err)
			}
			shipment.Weight = weight
		}

		shipments = append(shipments, shipment)
	}

	l.logger.Debug().Int("shipments", len(shipments)).Msg("loaded shipment rows")
	return shipments, nil
}

// LoadQuotes reads a quote file. Recognised headers: shipment_index,
// account_name, carrier_type, service_code, service_name, rate_amount,
// is_negotiated, tracking_id, shipment_id.
func (l *Loader) LoadQuotes(path string) ([]model.RateQuote, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quotes file: %w", err)
	}
	defer file.Close()

	quotes, err := l.ReadQuotes(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return quotes, nil
}

// ReadQuotes parses quote rows from r.
func (l *Loader) ReadQuotes(r io.Reader) ([]model.RateQuote, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := indexColumns(header)
	accountIdx, ok := cols["account_name"]
	if !ok {
		return nil, fmt.Errorf("quotes file missing account_name column")
	}
	rateIdx, ok := cols["rate_amount"]
	if !ok {
		return nil, fmt.Errorf("quotes file missing rate_amount column")
	}
	indexIdx := columnOr(cols, "shipment_index", -1)
	carrierIdx := columnOr(cols, "carrier_type", -1)
	codeIdx := columnOr(cols, "service_code", -1)
	nameIdx := columnOr(cols, "service_name", -1)
	negotiatedIdx := columnOr(cols, "is_negotiated", -1)
	trackingIdx := columnOr(cols, "tracking_id", -1)
	shipmentIdx := columnOr(cols, "shipment_id", -1)

	var quotes []model.RateQuote
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err)
		}

		rate, err := parseAmount(field(record, rateIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: rate_amount: %w", row+2, err)
		}

		quote := model.RateQuote{
			ShipmentIndex: -1,
			AccountName:   model.AccountID(field(record, accountIdx)),
			CarrierType:   field(record, carrierIdx),
			ServiceCode:   field(record, codeIdx),
			ServiceName:   field(record, nameIdx),
			RateAmount:    rate,
			ShipmentRef: model.ShipmentRef{
				TrackingID: field(record, trackingIdx),
				ShipmentID: field(record, shipmentIdx),
			},
		}
		if v := field(record, indexIdx); v != "" {
			idx, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: shipment_index: %w", row+2, err)
			}
			quote.ShipmentIndex = idx
		}
		if v := field(record, negotiatedIdx); v != "" {
			negotiated, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: is_negotiated: %w", row+2, err)
			}
			quote.IsNegotiated = negotiated
		}

		quotes = append(quotes, quote)
	}

	l.logger.Debug().Int("quotes", len(quotes)).Msg("loaded quote rows")
	return quotes, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	return cols
}

func columnOr(cols map[string]int, name string, fallback int) int {
	if idx, ok := cols[name]; ok {
		return idx
	}
	return fallback
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	// Tolerate currency formatting from spreadsheet exports.
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	return decimal.NewFromString(s)
}
