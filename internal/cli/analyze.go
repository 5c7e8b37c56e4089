package cli

import (
	"github.com/spf13/cobra"

	"carrier-rate-optimizer/internal/app"
)

var (
	analyzeShipmentsCSV string
	analyzeQuotesCSV    string
	analyzePersist      bool
	analyzeWatch        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match quotes to shipments and print the savings scorecard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Analyze(cmd.Context(), app.AnalyzeOptions{
			ShipmentsCSV: analyzeShipmentsCSV,
			QuotesCSV:    analyzeQuotesCSV,
			Persist:      analyzePersist,
			Watch:        analyzeWatch,
		})
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeShipmentsCSV, "shipments", "", "Path to shipments CSV (defaults to database)")
	analyzeCmd.Flags().StringVar(&analyzeQuotesCSV, "quotes", "", "Path to quotes CSV (defaults to quoting service)")
	analyzeCmd.Flags().BoolVar(&analyzePersist, "persist", false, "Store the run and account stats in the database")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "Re-run on the configured interval until interrupted")
}
