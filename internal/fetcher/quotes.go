package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/model"
)

const ratesPath = "/v1/rates"

// QuoteOptions parameterise the remote quoting client.
type QuoteOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches rate quotes over the quoting service's HTTP API.
type Client struct {
	opts    QuoteOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a quoting client.
func NewClient(opts QuoteOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "quote_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

type rateRequest struct {
	Shipments []rateRequestShipment `json:"shipments"`
}

type rateRequestShipment struct {
	ShipmentID  string `json:"shipmentId,omitempty"`
	TrackingID  string `json:"trackingId,omitempty"`
	Weight      string `json:"weight"`
	ServiceType string `json:"serviceType"`
	Index       int    `json:"index"`
}

type rateResponse struct {
	Quotes []rateResponseQuote `json:"quotes"`
}

type rateResponseQuote struct {
	ShipmentIndex int             `json:"shipmentIndex"`
	AccountName   string          `json:"accountName"`
	CarrierType   string          `json:"carrierType"`
	ServiceCode   string          `json:"serviceCode"`
	ServiceName   string          `json:"serviceName"`
	RateAmount    decimal.Decimal `json:"rateAmount"`
	IsNegotiated  bool            `json:"isNegotiated"`
	ShipmentData  struct {
		TrackingID string `json:"trackingId"`
		ShipmentID string `json:"shipmentId"`
	} `json:"shipmentData"`
}

// FetchQuotes posts the shipment population to the quoting service and
// decodes the per-account quotes it returns. Quotes with a negative
// rate are dropped; the service occasionally emits them for lanes an
// account cannot serve.
func (c *Client) FetchQuotes(ctx context.Context, shipments []model.ShipmentRecord) ([]model.RateQuote, error) {
	if c.baseURL == "" {
		return nil, errors.New("quoting base URL not configured")
	}
	if len(shipments) == 0 {
		return nil, nil
	}

	payload := rateRequest{Shipments: make([]rateRequestShipment, 0, len(shipments))}
	for _, s := range shipments {
		payload.Shipments = append(payload.Shipments, rateRequestShipment{
			ShipmentID:  s.ID,
			TrackingID:  s.TrackingID,
			Weight:      s.Weight.String(),
			ServiceType: s.ServiceType,
			Index:       s.ShipmentIndex,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ratesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quoting service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}

	quotes := make([]model.RateQuote, 0, len(decoded.Quotes))
	dropped := 0
	for _, q := range decoded.Quotes {
		if q.RateAmount.IsNegative() {
			dropped++
			continue
		}
		quotes = append(quotes, model.RateQuote{
			ShipmentIndex: q.ShipmentIndex,
			AccountName:   model.AccountID(q.AccountName),
			CarrierType:   q.CarrierType,
			ServiceCode:   q.ServiceCode,
			ServiceName:   q.ServiceName,
			RateAmount:    q.RateAmount,
			IsNegotiated:  q.IsNegotiated,
			ShipmentRef: model.ShipmentRef{
				TrackingID: q.ShipmentData.TrackingID,
				ShipmentID: q.ShipmentData.ShipmentID,
			},
		})
	}

	c.logger.Info().
		Int("shipments", len(shipments)).
		Int("quotes", len(quotes)).
		Int("dropped_negative", dropped).
		Msg("fetched rate quotes")

	return quotes, nil
}

var _ QuoteFetcher = (*Client)(nil)
