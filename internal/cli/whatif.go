package cli

import (
	"github.com/spf13/cobra"

	"carrier-rate-optimizer/internal/app"
)

var (
	whatifShipmentsCSV string
	whatifQuotesCSV    string
	whatifAccount      string
)

var whatifCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Project savings if a single account carried every shipment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().WhatIf(cmd.Context(), app.WhatIfOptions{
			ShipmentsCSV: whatifShipmentsCSV,
			QuotesCSV:    whatifQuotesCSV,
			Account:      whatifAccount,
		})
	},
}

func init() {
	whatifCmd.Flags().StringVar(&whatifShipmentsCSV, "shipments", "", "Path to shipments CSV (defaults to database)")
	whatifCmd.Flags().StringVar(&whatifQuotesCSV, "quotes", "", "Path to quotes CSV (defaults to quoting service)")
	whatifCmd.Flags().StringVar(&whatifAccount, "account", "", "Account to simulate")
}
