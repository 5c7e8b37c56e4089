package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"carrier-rate-optimizer/internal/app"
)

var (
	assignShipmentsCSV string
	assignQuotesCSV    string
	assignGlobal       string
	assignAllServices  string
	assignServices     []string
	assignShipments    []string
	assignApply        bool
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Select accounts at the global, service, or shipment level",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := parsePairs(assignServices, "--service")
		if err != nil {
			return err
		}
		shipments, err := parsePairs(assignShipments, "--shipment")
		if err != nil {
			return err
		}

		return getApp().Assign(cmd.Context(), app.AssignOptions{
			ShipmentsCSV: assignShipmentsCSV,
			QuotesCSV:    assignQuotesCSV,
			Global:       assignGlobal,
			AllServices:  assignAllServices,
			Services:     services,
			Shipments:    shipments,
			Apply:        assignApply,
		})
	},
}

// parsePairs turns repeated KEY=ACCOUNT flags into a map.
func parsePairs(pairs []string, flag string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid %s value %q: expected KEY=ACCOUNT", flag, pair)
		}
		out[key] = value
	}
	return out, nil
}

func init() {
	assignCmd.Flags().StringVar(&assignShipmentsCSV, "shipments", "", "Path to shipments CSV (defaults to database)")
	assignCmd.Flags().StringVar(&assignQuotesCSV, "quotes", "", "Path to quotes CSV (defaults to quoting service)")
	assignCmd.Flags().StringVar(&assignGlobal, "global", "", "Account to select for every shipment")
	assignCmd.Flags().StringVar(&assignAllServices, "all-services", "", "Account to select on every service it quotes")
	assignCmd.Flags().StringArrayVar(&assignServices, "service", nil, "Service override as SERVICE=ACCOUNT (repeatable)")
	assignCmd.Flags().StringArrayVar(&assignShipments, "shipment", nil, "Shipment override as KEY=ACCOUNT (repeatable)")
	assignCmd.Flags().BoolVar(&assignApply, "apply", false, "Write resolved assignments back to the database")
}
