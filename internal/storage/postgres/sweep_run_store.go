package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// SweepRunStore implements storage.SweepRunStore using PostgreSQL.
type SweepRunStore struct {
	pool *Pool
}

// NewSweepRunStore creates a new SweepRunStore.
func NewSweepRunStore(pool *Pool) *SweepRunStore {
	return &SweepRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SweepRunStore = (*SweepRunStore)(nil)

const sweepRunColumns = `
	run_id, symbol, frequency, adjust, start_date, end_date,
	initial_cash, min_up_ratio, max_up_ratio, min_down_ratio, max_down_ratio, step_size,
	day_count, attempted, simulated, skipped,
	best_up_ratio, best_down_ratio, best_total_return, best_annual_return,
	best_max_drawdown, best_sharpe_ratio, best_stock_return, best_excess_return, best_total_trades,
	created_at
`

// Save adds a new run header. Returns ErrDuplicateKey if run_id exists.
// Nil best fields persist as NULL for runs without a viable result.
func (s *SweepRunStore) Save(ctx context.Context, run *domain.SweepRun) error {
	query := `
		INSERT INTO sweep_runs (` + sweepRunColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20,
			$21, $22, $23, $24, $25,
			$26
		)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.Symbol, run.Frequency, run.Adjust, run.StartDate, run.EndDate,
		run.InitialCash, run.MinUpRatio, run.MaxUpRatio, run.MinDownRatio, run.MaxDownRatio, run.StepSize,
		run.DayCount, run.Attempted, run.Simulated, run.Skipped,
		run.BestUpRatio, run.BestDownRatio, run.BestTotalReturn, run.BestAnnualReturn,
		run.BestMaxDrawdown, run.BestSharpeRatio, run.BestStockReturn, run.BestExcessReturn, run.BestTotalTrades,
		run.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sweep run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SweepRunStore) GetByID(ctx context.Context, runID string) (*domain.SweepRun, error) {
	query := `
		SELECT ` + sweepRunColumns + `
		FROM sweep_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	run, err := scanSweepRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sweep run by id: %w", err)
	}
	return run, nil
}

// ListBySymbol retrieves all runs for a symbol, newest first.
func (s *SweepRunStore) ListBySymbol(ctx context.Context, symbol string) ([]*domain.SweepRun, error) {
	query := `
		SELECT ` + sweepRunColumns + `
		FROM sweep_runs
		WHERE symbol = $1
		ORDER BY created_at DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("list sweep runs by symbol: %w", err)
	}
	defer rows.Close()

	var runs []*domain.SweepRun
	for rows.Next() {
		run, err := scanSweepRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweep run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep run rows: %w", err)
	}

	return runs, nil
}

// Delete removes a run header. Returns ErrNotFound if not exists.
func (s *SweepRunStore) Delete(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sweep_runs WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("delete sweep run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanSweepRun scans a single row into a SweepRun.
func scanSweepRun(row pgx.Row) (*domain.SweepRun, error) {
	var run domain.SweepRun

	err := row.Scan(
		&run.RunID, &run.Symbol, &run.Frequency, &run.Adjust, &run.StartDate, &run.EndDate,
		&run.InitialCash, &run.MinUpRatio, &run.MaxUpRatio, &run.MinDownRatio, &run.MaxDownRatio, &run.StepSize,
		&run.DayCount, &run.Attempted, &run.Simulated, &run.Skipped,
		&run.BestUpRatio, &run.BestDownRatio, &run.BestTotalReturn, &run.BestAnnualReturn,
		&run.BestMaxDrawdown, &run.BestSharpeRatio, &run.BestStockReturn, &run.BestExcessReturn, &run.BestTotalTrades,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}
