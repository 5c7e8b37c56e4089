package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"carrier-rate-optimizer/internal/alerting"
	"carrier-rate-optimizer/internal/config"
	"carrier-rate-optimizer/internal/fetcher"
	"carrier-rate-optimizer/internal/ingest"
	"carrier-rate-optimizer/internal/model"
	"carrier-rate-optimizer/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newQuoteFetcher() fetcher.QuoteFetcher {
	return fetcher.NewClient(fetcher.QuoteOptions{
		BaseURL:   a.Config.Quoting.BaseURL,
		APIKey:    a.Config.Quoting.APIKey,
		Timeout:   a.Config.Quoting.RequestTimeout,
		UserAgent: a.Config.Quoting.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// loadShipments reads the shipment population from the CSV path when
// given, otherwise from the database.
func (a *App) loadShipments(ctx context.Context, store *storage.Store, csvPath string) ([]model.ShipmentRecord, error) {
	if csvPath != "" {
		return ingest.NewLoader(a.Logger).LoadShipments(csvPath)
	}
	if store == nil {
		return nil, errors.New("no shipments source: provide --shipments or configure database.dsn")
	}
	shipments, err := store.ListShipments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shipments from store: %w", err)
	}
	return shipments, nil
}

// loadQuotes reads quotes from the CSV path when given, otherwise
// fetches them from the remote quoting service.
func (a *App) loadQuotes(ctx context.Context, shipments []model.ShipmentRecord, csvPath string) ([]model.RateQuote, error) {
	if csvPath != "" {
		return ingest.NewLoader(a.Logger).LoadQuotes(csvPath)
	}
	if a.Config.Quoting.BaseURL == "" {
		return nil, errors.New("no quotes source: provide --quotes or configure quoting.base_url")
	}
	return a.newQuoteFetcher().FetchQuotes(ctx, shipments)
}

// AnalyzeOptions hold parameters for an analysis pass.
type AnalyzeOptions struct {
	ShipmentsCSV string
	QuotesCSV    string
	Persist      bool
	Watch        bool
}

// AssignOptions configure selection-state mutations.
type AssignOptions struct {
	ShipmentsCSV string
	QuotesCSV    string
	Global       string
	Services     map[string]string
	Shipments    map[string]string
	AllServices  string
	Apply        bool
}

// WhatIfOptions configure a single-account simulation.
type WhatIfOptions struct {
	ShipmentsCSV string
	QuotesCSV    string
	Account      string
}

// ExportOptions hold parameters for exporting stored runs.
type ExportOptions struct {
	PNGPath string
	CSVPath string
	MaxRows int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
