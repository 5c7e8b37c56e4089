package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/alerting"
	"carrier-rate-optimizer/internal/analysis"
	"carrier-rate-optimizer/internal/config"
	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
	"carrier-rate-optimizer/internal/storage"
)

// Result bundles everything one analysis pass produces.
type Result struct {
	RunAt           time.Time
	Shipments       []model.ShipmentRecord
	QuoteCount      int
	UnmatchedQuotes int
	Best            *matching.BestRateSet
	AccountStats    []analysis.AccountStat
	ServiceStats    []analysis.ServiceStat
	Summary         analysis.KPISummary
	RunID           int64
}

// Service orchestrates matching, aggregation, persistence, and
// alerting for analysis passes.
type Service struct {
	matcher       *matching.Matcher
	shipmentStore storage.ShipmentStore
	analysisStore storage.AnalysisStore
	notifier      alerting.Notifier
	logger        zerolog.Logger

	performerRule analysis.PerformerRule
	rankBy        analysis.RankKey
	threshold     decimal.Decimal
	channels      []string
	alertsOn      bool
	locker        storage.AdvisoryLocker
	lockKey       int64
}

// New constructs the analysis service. Stores and notifier may be nil;
// the corresponding step is skipped.
func New(cfg *config.Config, shipmentStore storage.ShipmentStore, analysisStore storage.AnalysisStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	threshold := decimal.Zero
	if cfg.Alerting.Enabled && cfg.Alerting.MinSavingsPct > 0 {
		threshold = decimal.NewFromFloat(cfg.Alerting.MinSavingsPct)
	}

	var locker storage.AdvisoryLocker
	if l, ok := shipmentStore.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		matcher:       matching.NewMatcher(logger),
		shipmentStore: shipmentStore,
		analysisStore: analysisStore,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		performerRule: cfg.PerformerRule(),
		rankBy:        cfg.RankKey(),
		threshold:     threshold,
		channels:      cfg.Alerting.Channels,
		alertsOn:      cfg.Alerting.Enabled,
		locker:        locker,
		lockKey:       cfg.Watch.AdvisoryLockKey,
	}
}

// Analyze runs the full pipeline over one immutable input snapshot:
// match quotes to shipments, reduce to best rates, aggregate, persist,
// and alert when projected savings clear the threshold. Inputs are
// never mutated; empty inputs yield a zeroed result, not an error.
func (s *Service) Analyze(ctx context.Context, shipments []model.ShipmentRecord, quotes []model.RateQuote) (*Result, error) {
	runAt := time.Now().UTC()

	pairs, unmatched := s.matcher.MatchAll(quotes, shipments)
	best := matching.BestRates(pairs)

	result := &Result{
		RunAt:           runAt,
		Shipments:       shipments,
		QuoteCount:      len(quotes),
		UnmatchedQuotes: unmatched,
		Best:            best,
		AccountStats:    analysis.AccountStats(best, shipments),
		ServiceStats:    analysis.ServiceStats(best, shipments, s.rankBy),
	}
	result.Summary = analysis.Summarize(result.AccountStats, best, shipments, s.performerRule, unmatched)

	s.logger.Info().
		Int("shipments", len(shipments)).
		Int("quotes", len(quotes)).
		Int("unmatched", unmatched).
		Int("accounts", result.Summary.AccountsCompared).
		Str("top_performer", result.Summary.TopPerformer.String()).
		Str("total_savings", result.Summary.TotalSavings.String()).
		Msg("analysis pass complete")

	if err := s.persist(ctx, result); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist analysis run")
	}

	s.maybeAlert(ctx, result)

	return result, nil
}

// AnalyzeLocked wraps Analyze with the advisory lock so concurrent
// watch-mode instances do not run overlapping sweeps.
func (s *Service) AnalyzeLocked(ctx context.Context, shipments []model.ShipmentRecord, quotes []model.RateQuote) (*Result, error) {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	if !proceed {
		s.logger.Debug().Msg("skip sweep because advisory lock held elsewhere")
		return nil, nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.Analyze(ctx, shipments, quotes)
}

func (s *Service) persist(ctx context.Context, result *Result) error {
	if s.analysisStore == nil {
		return nil
	}

	run := storage.AnalysisRun{
		RunAt:            result.RunAt,
		ShipmentCount:    len(result.Shipments),
		QuoteCount:       result.QuoteCount,
		UnmatchedQuotes:  result.UnmatchedQuotes,
		TopPerformer:     result.Summary.TopPerformer,
		TotalSavings:     result.Summary.TotalSavings,
		CurrentCost:      result.Summary.CurrentCost,
		SavingsPct:       result.Summary.SavingsPercentage,
		AccountsCompared: result.Summary.AccountsCompared,
	}

	saved, err := s.analysisStore.InsertAnalysisRun(ctx, run)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	result.RunID = saved.ID

	rows := make([]storage.AccountStatRow, 0, len(result.AccountStats))
	for _, stat := range result.AccountStats {
		rows = append(rows, storage.AccountStatRow{
			RunID:                saved.ID,
			Account:              stat.Account,
			TotalSpend:           stat.TotalSpend,
			ShipmentsQuoted:      stat.ShipmentsQuoted,
			Wins:                 stat.Wins,
			WinRate:              stat.WinRate,
			AvgDollarSavings:     stat.AvgDollarSavings,
			AvgPercentSavings:    stat.AvgPercentSavings,
			MedianDollarSavings:  stat.MedianDollarSavings,
			MedianPercentSavings: stat.MedianPercentSavings,
			TotalSavings:         stat.TotalSavings,
			TotalSavingsPercent:  stat.TotalSavingsPercent,
		})
	}
	if err := s.analysisStore.SaveAccountStats(ctx, rows); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

func (s *Service) maybeAlert(ctx context.Context, result *Result) {
	if !s.alertsOn || s.notifier == nil || s.threshold.IsZero() {
		return
	}
	if !result.Summary.SavingsPercentage.GreaterThan(s.threshold) {
		return
	}

	note := alerting.Notification{
		RunAt:         result.RunAt,
		TopPerformer:  result.Summary.TopPerformer,
		TotalSavings:  result.Summary.TotalSavings,
		CurrentCost:   result.Summary.CurrentCost,
		SavingsPct:    result.Summary.SavingsPercentage,
		ThresholdPct:  s.threshold,
		ShipmentCount: len(result.Shipments),
		Channels:      s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Msg("failed to dispatch savings alert")
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
