package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"carrier-rate-optimizer/internal/model"
)

// WhatIf projects the outcome of routing everything possible through a
// single account, without touching any persisted state.
func (a *App) WhatIf(ctx context.Context, opts WhatIfOptions) error {
	if opts.Account == "" {
		return errors.New("--account is required")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	selector, shipments, err := a.buildSelector(ctx, store, opts.ShipmentsCSV, opts.QuotesCSV)
	if err != nil {
		return err
	}

	selector.ResetEmpty()
	selector.SetGlobal(model.AccountID(opts.Account))

	proj := selector.Projection()
	fmt.Fprintf(os.Stdout, "If %s carried every shipment it quotes:\n", opts.Account)
	fmt.Fprintf(os.Stdout, "  covered shipments: %d of %d\n", proj.OptimizedShipmentCount, len(shipments))
	fmt.Fprintf(os.Stdout, "  projected savings: $%s\n", proj.TotalOptimizedSavings.StringFixed(2))
	return nil
}
