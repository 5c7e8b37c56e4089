package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"carrier-rate-optimizer/internal/analysis"
	"carrier-rate-optimizer/internal/assignment"
	"carrier-rate-optimizer/internal/matching"
	"carrier-rate-optimizer/internal/model"
	"carrier-rate-optimizer/internal/storage"
)

// Assign mutates account selection state over a fresh analysis
// snapshot, prints the projected outcome, and optionally flushes the
// resolved assignments back to storage.
func (a *App) Assign(ctx context.Context, opts AssignOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}
	if opts.Apply && store == nil {
		return errors.New("database not configured; cannot apply assignments")
	}

	selector, shipments, err := a.buildSelector(ctx, store, opts.ShipmentsCSV, opts.QuotesCSV)
	if err != nil {
		return err
	}

	if opts.Global != "" {
		selector.SetGlobal(model.AccountID(opts.Global))
	}
	if opts.AllServices != "" {
		selector.SelectAccountForAllServices(model.AccountID(opts.AllServices))
	}
	for serviceType, account := range opts.Services {
		if !selector.SetServiceAccount(serviceType, model.AccountID(account)) {
			fmt.Fprintf(os.Stdout, "rejected: %s has no quotes for service %q\n", account, serviceType)
		}
	}
	for shipmentKey, account := range opts.Shipments {
		selector.SetIndividual(shipmentKey, model.AccountID(account))
	}

	printProjection(selector, shipments)

	if !opts.Apply {
		return nil
	}

	updated := selector.ApplyAssignments()
	if err := store.SaveAssignments(ctx, updated); err != nil {
		return fmt.Errorf("apply assignments: %w", err)
	}
	a.Logger.Info().Int("shipments", len(updated)).Msg("assignments saved")
	return nil
}

// buildSelector assembles the full pipeline up to an assignment
// selector: load inputs, match, reduce, aggregate per service.
func (a *App) buildSelector(ctx context.Context, store *storage.Store, shipmentsCSV, quotesCSV string) (*assignment.Selector, []model.ShipmentRecord, error) {
	shipments, err := a.loadShipments(ctx, store, shipmentsCSV)
	if err != nil {
		return nil, nil, err
	}
	quotes, err := a.loadQuotes(ctx, shipments, quotesCSV)
	if err != nil {
		return nil, nil, err
	}

	matcher := matching.NewMatcher(a.Logger)
	pairs, unmatched := matcher.MatchAll(quotes, shipments)
	if unmatched > 0 {
		fmt.Fprintf(os.Stdout, "warning: %d quotes could not be matched\n", unmatched)
	}
	best := matching.BestRates(pairs)
	services := analysis.ServiceStats(best, shipments, a.Config.RankKey())

	return assignment.NewSelector(shipments, best, services, a.Logger), shipments, nil
}

func printProjection(selector *assignment.Selector, shipments []model.ShipmentRecord) {
	proj := selector.Projection()
	fmt.Fprintf(os.Stdout, "Optimized shipments: %d of %d\n", proj.OptimizedShipmentCount, len(shipments))
	fmt.Fprintf(os.Stdout, "Projected savings:   $%s\n\n", proj.TotalOptimizedSavings.StringFixed(2))

	state := selector.State()
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Scope\tKey\tAccount")
	if state.Global != "" {
		fmt.Fprintf(writer, "global\t\t%s\n", state.Global)
	}
	for serviceType, account := range state.Service {
		fmt.Fprintf(writer, "service\t%s\t%s\n", serviceType, account)
	}
	for shipmentKey, account := range state.Individual {
		fmt.Fprintf(writer, "shipment\t%s\t%s\n", shipmentKey, account)
	}
	writer.Flush()
}
