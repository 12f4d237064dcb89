package storage

import (
	"context"
	"time"

	"grid-strategy-lab/internal/domain"
)

// PriceBarStore provides access to price_bars storage, the local cache of
// raw bars fetched from the quote API.
type PriceBarStore interface {
	// Save adds a single bar. Returns ErrDuplicateKey if
	// (symbol, frequency, adjust, timestamp) exists.
	Save(ctx context.Context, bar *domain.PriceBar) error

	// SaveBatch upserts multiple bars. Existing bars for the same key are
	// overwritten, so a re-fetch refreshes the cache in place.
	SaveBatch(ctx context.Context, bars []*domain.PriceBar) error

	// GetByRange retrieves bars for a symbol/frequency/adjust within
	// [start, end] (inclusive), ordered by timestamp ASC.
	GetByRange(ctx context.Context, symbol string, freq domain.Frequency, adjust domain.Adjust, start, end time.Time) ([]*domain.PriceBar, error)

	// Count returns the number of cached bars for a symbol/frequency/adjust.
	Count(ctx context.Context, symbol string, freq domain.Frequency, adjust domain.Adjust) (int, error)

	// DeleteBySymbol removes all cached bars for a symbol, all frequencies
	// and adjust modes. Returns the number of bars removed.
	DeleteBySymbol(ctx context.Context, symbol string) (int, error)
}

// SweepRunStore provides access to sweep_runs storage.
type SweepRunStore interface {
	// Save adds a new run header. Returns ErrDuplicateKey if run_id exists.
	Save(ctx context.Context, run *domain.SweepRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SweepRun, error)

	// ListBySymbol retrieves all runs for a symbol, newest first.
	ListBySymbol(ctx context.Context, symbol string) ([]*domain.SweepRun, error)

	// Delete removes a run header. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, runID string) error
}

// TradeRecordStore provides access to trade_records storage, the ledger of
// the best parameter pair of each run.
type TradeRecordStore interface {
	// SaveAll adds the full ledger of a run atomically, assigning sequence
	// numbers in slice order. Returns ErrDuplicateKey if the run already
	// has trades.
	SaveAll(ctx context.Context, runID string, trades []*domain.TradeRecord) error

	// GetByRun retrieves all trades for a run, ordered by sequence ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.TradeRecord, error)

	// DeleteByRun removes all trades for a run. Returns the number removed.
	DeleteByRun(ctx context.Context, runID string) (int, error)
}

// SweepPointStore provides access to sweep_points storage, the full
// parameter-grid table of each run.
type SweepPointStore interface {
	// SaveBatch adds all rows of a run's sweep table.
	SaveBatch(ctx context.Context, runID string, rows []*domain.SweepRow) error

	// GetByRun retrieves all rows for a run, ordered by (up_ratio, down_ratio).
	GetByRun(ctx context.Context, runID string) ([]*domain.SweepRow, error)

	// CountByRun returns the number of stored rows for a run.
	CountByRun(ctx context.Context, runID string) (int, error)
}

// SnapshotStore provides access to daily_snapshots storage, the day-by-day
// portfolio trace of each run's best simulation.
type SnapshotStore interface {
	// SaveBatch adds the full daily trace of a run.
	SaveBatch(ctx context.Context, runID string, snapshots []*domain.DailySnapshot) error

	// GetByRun retrieves all snapshots for a run, ordered by date ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.DailySnapshot, error)
}
