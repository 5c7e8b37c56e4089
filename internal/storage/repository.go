package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/model"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertShipmentSQL = `INSERT INTO shipments (
        id,
        tracking_id,
        current_rate,
        weight,
        service_type,
        shipment_index,
        account_used
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (id) DO UPDATE
    SET
        tracking_id    = EXCLUDED.tracking_id,
        current_rate   = EXCLUDED.current_rate,
        weight         = EXCLUDED.weight,
        service_type   = EXCLUDED.service_type,
        shipment_index = EXCLUDED.shipment_index;`

	listShipmentsSQL = `SELECT
        id,
        tracking_id,
        current_rate,
        weight,
        service_type,
        shipment_index,
        account_used
    FROM shipments
    ORDER BY shipment_index;`

	updateShipmentAccountSQL = `UPDATE shipments
    SET account_used = $2
    WHERE id = $1;`

	insertAnalysisRunSQL = `INSERT INTO analysis_runs (
        run_at,
        shipment_count,
        quote_count,
        unmatched_quotes,
        top_performer,
        total_savings,
        current_cost,
        savings_pct,
        accounts_compared
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	insertAccountStatSQL = `INSERT INTO account_stats (
        run_id,
        account_name,
        total_spend,
        shipments_quoted,
        wins,
        win_rate,
        avg_dollar_savings,
        avg_percent_savings,
        median_dollar_savings,
        median_percent_savings,
        total_savings,
        total_savings_pct
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    );`

	listRecentRunsSQL = `SELECT
        id,
        run_at,
        shipment_count,
        quote_count,
        unmatched_quotes,
        top_performer,
        total_savings,
        current_cost,
        savings_pct,
        accounts_compared,
        created_at
    FROM analysis_runs
    ORDER BY run_at DESC
    LIMIT $1;`

	listRunStatsSQL = `SELECT
        run_id,
        account_name,
        total_spend,
        shipments_quoted,
        wins,
        win_rate,
        avg_dollar_savings,
        avg_percent_savings,
        median_dollar_savings,
        median_percent_savings,
        total_savings,
        total_savings_pct
    FROM account_stats
    WHERE run_id = $1
    ORDER BY total_spend DESC;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ShipmentStore defines operations for the persisted shipment table.
type ShipmentStore interface {
	UpsertShipments(ctx context.Context, shipments []model.ShipmentRecord) error
	ListShipments(ctx context.Context) ([]model.ShipmentRecord, error)
	SaveAssignments(ctx context.Context, shipments []model.ShipmentRecord) error
}

// AnalysisStore defines operations for run and stat persistence.
type AnalysisStore interface {
	InsertAnalysisRun(ctx context.Context, run AnalysisRun) (AnalysisRun, error)
	SaveAccountStats(ctx context.Context, stats []AccountStatRow) error
	ListRecentRuns(ctx context.Context, limit int) ([]AnalysisRun, error)
	ListRunStats(ctx context.Context, runID int64) ([]AccountStatRow, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to shipments, runs, and stats.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertShipments persists the ingested shipment population. The
// upsert deliberately leaves account_used alone so ingestion never
// clobbers a stored assignment.
func (s *Store) UpsertShipments(ctx context.Context, shipments []model.ShipmentRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, sh := range shipments {
		var tracking interface{}
		if sh.TrackingID != "" {
			tracking = sh.TrackingID
		}
		var account interface{}
		if sh.AccountUsed != "" {
			account = sh.AccountUsed.String()
		}
		batch.Queue(upsertShipmentSQL,
			sh.ID,
			tracking,
			sh.CurrentRate.String(),
			sh.Weight.String(),
			sh.ServiceType,
			sh.ShipmentIndex,
			account,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for range shipments {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert shipment: %w", execErr)
		}
	}
	return nil
}

// ListShipments loads the stored shipment population in upload order.
func (s *Store) ListShipments(ctx context.Context) ([]model.ShipmentRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listShipmentsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list shipments: %w", queryErr)
	}
	defer rows.Close()

	shipments := make([]model.ShipmentRecord, 0)
	for rows.Next() {
		shipment, scanErr := scanShipment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		shipments = append(shipments, shipment)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return shipments, nil
}

// SaveAssignments flushes resolved account assignments back to the
// shipment table. Shipments without an assignment are skipped.
func (s *Store) SaveAssignments(ctx context.Context, shipments []model.ShipmentRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, sh := range shipments {
		if sh.AccountUsed == "" {
			continue
		}
		batch.Queue(updateShipmentAccountSQL, sh.ID, sh.AccountUsed.String())
		queued++
	}
	if queued == 0 {
		return nil
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < queued; i++ {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("save assignment: %w", execErr)
		}
	}
	return nil
}

// InsertAnalysisRun persists a run header and returns it with its ID.
func (s *Store) InsertAnalysisRun(ctx context.Context, run AnalysisRun) (AnalysisRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return AnalysisRun{}, err
	}

	row := pool.QueryRow(ctx, insertAnalysisRunSQL,
		run.RunAt,
		run.ShipmentCount,
		run.QuoteCount,
		run.UnmatchedQuotes,
		run.TopPerformer.String(),
		run.TotalSavings.String(),
		run.CurrentCost.String(),
		run.SavingsPct.String(),
		run.AccountsCompared,
	)
	if scanErr := row.Scan(&run.ID, &run.CreatedAt); scanErr != nil {
		return AnalysisRun{}, fmt.Errorf("insert analysis run: %w", scanErr)
	}
	return run, nil
}

// SaveAccountStats persists the per-account stat rows of a run.
func (s *Store) SaveAccountStats(ctx context.Context, stats []AccountStatRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, st := range stats {
		batch.Queue(insertAccountStatSQL,
			st.RunID,
			st.Account.String(),
			st.TotalSpend.String(),
			st.ShipmentsQuoted,
			st.Wins,
			st.WinRate.String(),
			st.AvgDollarSavings.String(),
			st.AvgPercentSavings.String(),
			st.MedianDollarSavings.String(),
			st.MedianPercentSavings.String(),
			st.TotalSavings.String(),
			st.TotalSavingsPercent.String(),
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()
	for range stats {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("save account stat: %w", execErr)
		}
	}
	return nil
}

// ListRecentRuns lists the latest run headers, newest first.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]AnalysisRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]AnalysisRun, 0, limit)
	for rows.Next() {
		run, scanErr := scanAnalysisRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, run)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

// ListRunStats loads the stat rows of one run ordered by spend.
func (s *Store) ListRunStats(ctx context.Context, runID int64) ([]AccountStatRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRunStatsSQL, runID)
	if queryErr != nil {
		return nil, fmt.Errorf("list run stats: %w", queryErr)
	}
	defer rows.Close()

	stats := make([]AccountStatRow, 0)
	for rows.Next() {
		stat, scanErr := scanAccountStat(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stats = append(stats, stat)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return stats, nil
}

func scanShipment(rows pgx.Rows) (model.ShipmentRecord, error) {
	var (
		shipment model.ShipmentRecord
		tracking *string
		current  decimal.Decimal
		weight   decimal.Decimal
		account  *string
	)
	if err := rows.Scan(
		&shipment.ID,
		&tracking,
		&current,
		&weight,
		&shipment.ServiceType,
		&shipment.ShipmentIndex,
		&account,
	); err != nil {
		return model.ShipmentRecord{}, fmt.Errorf("scan shipment: %w", err)
	}
	if tracking != nil {
		shipment.TrackingID = *tracking
	}
	if account != nil {
		shipment.AccountUsed = model.AccountID(*account)
	}
	shipment.CurrentRate = current
	shipment.Weight = weight
	return shipment, nil
}

func scanAnalysisRun(rows pgx.Rows) (AnalysisRun, error) {
	var (
		run AnalysisRun
		top string
	)
	if err := rows.Scan(
		&run.ID,
		&run.RunAt,
		&run.ShipmentCount,
		&run.QuoteCount,
		&run.UnmatchedQuotes,
		&top,
		&run.TotalSavings,
		&run.CurrentCost,
		&run.SavingsPct,
		&run.AccountsCompared,
		&run.CreatedAt,
	); err != nil {
		return AnalysisRun{}, fmt.Errorf("scan analysis run: %w", err)
	}
	run.TopPerformer = model.AccountID(top)
	return run, nil
}

func scanAccountStat(rows pgx.Rows) (AccountStatRow, error) {
	var (
		stat    AccountStatRow
		account string
	)
	if err := rows.Scan(
		&stat.RunID,
		&account,
		&stat.TotalSpend,
		&stat.ShipmentsQuoted,
		&stat.Wins,
		&stat.WinRate,
		&stat.AvgDollarSavings,
		&stat.AvgPercentSavings,
		&stat.MedianDollarSavings,
		&stat.MedianPercentSavings,
		&stat.TotalSavings,
		&stat.TotalSavingsPercent,
	); err != nil {
		return AccountStatRow{}, fmt.Errorf("scan account stat: %w", err)
	}
	stat.Account = model.AccountID(account)
	return stat, nil
}

var (
	_ ShipmentStore  = (*Store)(nil)
	_ AnalysisStore  = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
