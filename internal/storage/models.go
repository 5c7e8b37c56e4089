package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/model"
)

// AnalysisRun records one completed optimization pass for auditing and
// later display.
type AnalysisRun struct {
	ID               int64
	RunAt            time.Time
	ShipmentCount    int
	QuoteCount       int
	UnmatchedQuotes  int
	TopPerformer     model.AccountID
	TotalSavings     decimal.Decimal
	CurrentCost      decimal.Decimal
	SavingsPct       decimal.Decimal
	AccountsCompared int
	CreatedAt        time.Time
}

// AccountStatRow is the persisted form of one account's aggregate
// statistics within a run.
type AccountStatRow struct {
	RunID                int64
	Account              model.AccountID
	TotalSpend           decimal.Decimal
	ShipmentsQuoted      int
	Wins                 int
	WinRate              decimal.Decimal
	AvgDollarSavings     decimal.Decimal
	AvgPercentSavings    decimal.Decimal
	MedianDollarSavings  decimal.Decimal
	MedianPercentSavings decimal.Decimal
	TotalSavings         decimal.Decimal
	TotalSavingsPercent  decimal.Decimal
}
