package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent analysis runs and the account table of the most
// recent one.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show runs")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runs, err := store.ListRecentRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no analysis runs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Run\tTime (UTC)\tShipments\tQuotes\tUnmatched\tAccounts\tTop performer\tSavings\tSavings%")
	for _, run := range runs {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			run.ID,
			run.RunAt.UTC().Format(time.RFC3339),
			run.ShipmentCount,
			run.QuoteCount,
			run.UnmatchedQuotes,
			run.AccountsCompared,
			run.TopPerformer,
			formatDecimal(run.TotalSavings, 2),
			formatDecimal(run.SavingsPct, 1),
		)
	}
	writer.Flush()

	stats, err := store.ListRunStats(ctx, runs[0].ID)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	fmt.Fprintf(os.Stdout, "\nAccounts in run %d:\n", runs[0].ID)
	writer = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Account\tSpend\tQuoted\tWins\tWin%\tTotal $\tTotal %")
	for _, stat := range stats {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			stat.Account,
			formatDecimal(stat.TotalSpend, 2),
			stat.ShipmentsQuoted,
			stat.Wins,
			formatDecimal(stat.WinRate, 1),
			formatDecimal(stat.TotalSavings, 2),
			formatDecimal(stat.TotalSavingsPercent, 1),
		)
	}
	writer.Flush()
	return nil
}
