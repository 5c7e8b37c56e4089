package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"carrier-rate-optimizer/internal/storage"
)

// Export writes the latest stored run's account stats as CSV and/or a
// PNG savings chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxRows = a.Config.ResolveMaxRows(opts.MaxRows)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runs, err := store.ListRecentRuns(ctx, 1)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		a.Logger.Info().Msg("no analysis runs stored; nothing to export")
		return nil
	}
	run := runs[0]

	stats, err := store.ListRunStats(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(stats) > opts.MaxRows {
		stats = stats[:opts.MaxRows]
	}

	a.Logger.Info().
		Int64("run_id", run.ID).
		Time("run_at", run.RunAt).
		Int("accounts", len(stats)).
		Msg("exporting run")

	if opts.CSVPath != "" {
		if err := writeStatsCSV(opts.CSVPath, run, stats); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSavingsPNG(opts.PNGPath, stats); err != nil {
			return err
		}
	}

	return nil
}

func writeStatsCSV(path string, run storage.AnalysisRun, stats []storage.AccountStatRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"run_at", "account", "total_spend", "shipments_quoted", "wins", "win_rate", "avg_dollar_savings", "median_dollar_savings", "total_savings", "total_savings_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, stat := range stats {
		record := []string{
			run.RunAt.Format(time.RFC3339),
			stat.Account.String(),
			stat.TotalSpend.String(),
			fmt.Sprintf("%d", stat.ShipmentsQuoted),
			fmt.Sprintf("%d", stat.Wins),
			stat.WinRate.String(),
			stat.AvgDollarSavings.String(),
			stat.MedianDollarSavings.String(),
			stat.TotalSavings.String(),
			stat.TotalSavingsPercent.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSavingsPNG(path string, stats []storage.AccountStatRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(stats))
	for _, stat := range stats {
		bars = append(bars, chart.Value{
			Label: stat.Account.String(),
			Value: stat.TotalSavings.InexactFloat64(),
		})
	}

	graph := chart.BarChart{
		Title:  "Total savings by account",
		Width:  1280,
		Height: 720,
		YAxis: chart.YAxis{
			Name: "Savings ($)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
