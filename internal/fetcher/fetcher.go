package fetcher

import (
	"context"

	"carrier-rate-optimizer/internal/model"
)

// QuoteFetcher retrieves carrier-account rate quotes for a shipment
// population from the remote quoting service.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, shipments []model.ShipmentRecord) ([]model.RateQuote, error)
}
