package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"carrier-rate-optimizer/internal/scheduler"
	"carrier-rate-optimizer/internal/service"
	"carrier-rate-optimizer/internal/storage"
)

// Analyze runs one analysis pass, or a periodic loop with --watch, and
// prints the resulting scorecard and account table.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var shipmentStore storage.ShipmentStore
	var analysisStore storage.AnalysisStore
	if store != nil && opts.Persist {
		shipmentStore = store
		analysisStore = store
	}
	if opts.Persist && store == nil {
		return errors.New("database not configured; cannot persist")
	}

	svc := service.New(a.Config, shipmentStore, analysisStore, a.newNotifier(), a.Logger)

	runOnce := func(ctx context.Context) error {
		shipments, err := a.loadShipments(ctx, store, opts.ShipmentsCSV)
		if err != nil {
			return err
		}
		if shipmentStore != nil && opts.ShipmentsCSV != "" {
			if err := shipmentStore.UpsertShipments(ctx, shipments); err != nil {
				a.Logger.Error().Err(err).Msg("failed to persist shipments")
			}
		}

		quotes, err := a.loadQuotes(ctx, shipments, opts.QuotesCSV)
		if err != nil {
			return err
		}

		result, err := svc.AnalyzeLocked(ctx, shipments, quotes)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		printResult(result)
		return nil
	}

	if !opts.Watch {
		return runOnce(ctx)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		AlignToStart: a.Config.Watch.AlignToInterval,
		StartupDelay: a.Config.Watch.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Watch.Interval).Msg("starting watch loop")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return runOnce(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printResult(result *service.Result) {
	fmt.Fprintf(os.Stdout, "Shipments analyzed: %d\n", len(result.Shipments))
	fmt.Fprintf(os.Stdout, "Quotes received:    %d (%d unmatched)\n", result.QuoteCount, result.UnmatchedQuotes)
	fmt.Fprintf(os.Stdout, "Accounts compared:  %d\n", result.Summary.AccountsCompared)
	if result.Summary.TopPerformer != "" {
		fmt.Fprintf(os.Stdout, "Top performer:      %s\n", result.Summary.TopPerformer)
		fmt.Fprintf(os.Stdout, "Projected savings:  $%s (%s%% of $%s)\n",
			result.Summary.TotalSavings.StringFixed(2),
			result.Summary.SavingsPercentage.StringFixed(1),
			result.Summary.CurrentCost.StringFixed(2))
	}
	fmt.Fprintln(os.Stdout)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Account\tSpend\tQuoted\tWins\tWin%\tAvg $\tMedian $\tTotal $\tTotal %")
	for _, stat := range result.AccountStats {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			stat.Account,
			stat.TotalSpend.StringFixed(2),
			stat.ShipmentsQuoted,
			stat.Wins,
			stat.WinRate.StringFixed(1),
			stat.AvgDollarSavings.StringFixed(2),
			stat.MedianDollarSavings.StringFixed(2),
			stat.TotalSavings.StringFixed(2),
			stat.TotalSavingsPercent.StringFixed(1),
		)
	}
	writer.Flush()

	for _, svcStat := range result.ServiceStats {
		fmt.Fprintf(os.Stdout, "\nService: %s (%d shipments)\n", svcStat.ServiceType, svcStat.ShipmentCount)
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Rank\tAccount\tWin%\tAvg rate\tQuoted")
		for i, acct := range svcStat.Accounts {
			fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%d\n",
				i+1, acct.Account, acct.WinRate.StringFixed(1), acct.AvgRate().StringFixed(2), acct.ShipmentsQuoted)
		}
		writer.Flush()
	}
}
