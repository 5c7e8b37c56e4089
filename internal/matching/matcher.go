package matching

import (
	"github.com/rs/zerolog"

	"carrier-rate-optimizer/internal/model"
)

// MatchedPair associates a quote with the shipment it prices. Derived
// per analysis run, never persisted.
type MatchedPair struct {
	Shipment model.ShipmentRecord
	Quote    model.RateQuote
}

// Matcher resolves which shipment a rate quote belongs to.
//
// Historical import formats populate shipment identifiers
// inconsistently, so resolution walks a strict fallback chain: embedded
// tracking ID, then embedded shipment ID, then the positional shipment
// index. Equality is exact at every stage; no fuzzy matching.
type Matcher struct {
	logger zerolog.Logger
}

// NewMatcher constructs a Matcher.
func NewMatcher(logger zerolog.Logger) *Matcher {
	return &Matcher{logger: logger.With().Str("component", "matcher").Logger()}
}

// Match returns the shipment the quote prices, or ok=false when every
// fallback stage fails. The first stage that applies wins; later
// stages are not consulted.
func (m *Matcher) Match(quote model.RateQuote, shipments []model.ShipmentRecord) (model.ShipmentRecord, bool) {
	if ref := quote.ShipmentRef.TrackingID; ref != "" {
		for _, s := range shipments {
			if s.TrackingID == ref {
				return s, true
			}
		}
	}

	if ref := quote.ShipmentRef.ShipmentID; ref != "" {
		for _, s := range shipments {
			if s.ID == ref {
				return s, true
			}
		}
	}

	// Positional fallback. Index 0 is a valid position.
	if quote.ShipmentIndex >= 0 && quote.ShipmentIndex < len(shipments) {
		return shipments[quote.ShipmentIndex], true
	}

	return model.ShipmentRecord{}, false
}

// MatchAll resolves every quote against the shipment population.
// Quotes that fail all fallback stages are dropped from the result and
// counted; callers surface the count diagnostically.
func (m *Matcher) MatchAll(quotes []model.RateQuote, shipments []model.ShipmentRecord) ([]MatchedPair, int) {
	pairs := make([]MatchedPair, 0, len(quotes))
	unmatched := 0

	for _, q := range quotes {
		shipment, ok := m.Match(q, shipments)
		if !ok {
			unmatched++
			m.logger.Debug().
				Str("account", q.AccountName.String()).
				Str("tracking_id", q.ShipmentRef.TrackingID).
				Str("shipment_id", q.ShipmentRef.ShipmentID).
				Int("shipment_index", q.ShipmentIndex).
				Msg("quote matched no shipment; excluded from aggregates")
			continue
		}
		pairs = append(pairs, MatchedPair{Shipment: shipment, Quote: q})
	}

	if unmatched > 0 {
		m.logger.Info().
			Int("unmatched", unmatched).
			Int("matched", len(pairs)).
			Msg("quote matching finished with discards")
	}

	return pairs, unmatched
}
