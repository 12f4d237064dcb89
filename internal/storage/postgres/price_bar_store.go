package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using PostgreSQL.
type PriceBarStore struct {
	pool *Pool
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(pool *Pool) *PriceBarStore {
	return &PriceBarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

const priceBarColumns = `
	symbol, frequency, adjust, ts,
	open, high, low, close,
	volume, amount, prev_close, suspended
`

// Save adds a single bar. Returns ErrDuplicateKey if the bar exists.
func (s *PriceBarStore) Save(ctx context.Context, bar *domain.PriceBar) error {
	query := `
		INSERT INTO price_bars (` + priceBarColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		bar.Symbol, bar.Frequency, bar.Adjust, bar.Timestamp,
		bar.Open, bar.High, bar.Low, bar.Close,
		bar.Volume, bar.Amount, bar.PrevClose, bar.Suspended,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert price bar: %w", err)
	}
	return nil
}

// SaveBatch upserts multiple bars atomically. Re-fetched bars overwrite the
// cached row, so corrected closes and late suspension flags win.
func (s *PriceBarStore) SaveBatch(ctx context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO price_bars (` + priceBarColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (symbol, frequency, adjust, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			amount = EXCLUDED.amount,
			prev_close = EXCLUDED.prev_close,
			suspended = EXCLUDED.suspended
	`

	for _, bar := range bars {
		_, err := tx.Exec(ctx, query,
			bar.Symbol, bar.Frequency, bar.Adjust, bar.Timestamp,
			bar.Open, bar.High, bar.Low, bar.Close,
			bar.Volume, bar.Amount, bar.PrevClose, bar.Suspended,
		)
		if err != nil {
			return fmt.Errorf("upsert price bar: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRange retrieves bars within [start, end] (inclusive), ordered by timestamp ASC.
func (s *PriceBarStore) GetByRange(ctx context.Context, symbol string, freq domain.Frequency, adjust domain.Adjust, start, end time.Time) ([]*domain.PriceBar, error) {
	query := `
		SELECT ` + priceBarColumns + `
		FROM price_bars
		WHERE symbol = $1 AND frequency = $2 AND adjust = $3
		  AND ts >= $4 AND ts <= $5
		ORDER BY ts ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, freq, adjust, start, end)
	if err != nil {
		return nil, fmt.Errorf("get price bars by range: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// Count returns the number of cached bars for a symbol/frequency/adjust.
func (s *PriceBarStore) Count(ctx context.Context, symbol string, freq domain.Frequency, adjust domain.Adjust) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM price_bars
		WHERE symbol = $1 AND frequency = $2 AND adjust = $3
	`

	var count int
	if err := s.pool.QueryRow(ctx, query, symbol, freq, adjust).Scan(&count); err != nil {
		return 0, fmt.Errorf("count price bars: %w", err)
	}
	return count, nil
}

// DeleteBySymbol removes all cached bars for a symbol. Returns the number removed.
func (s *PriceBarStore) DeleteBySymbol(ctx context.Context, symbol string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_bars WHERE symbol = $1`, symbol)
	if err != nil {
		return 0, fmt.Errorf("delete price bars by symbol: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// scanPriceBars scans multiple rows into a slice of PriceBar.
func scanPriceBars(rows pgx.Rows) ([]*domain.PriceBar, error) {
	var bars []*domain.PriceBar

	for rows.Next() {
		var bar domain.PriceBar

		err := rows.Scan(
			&bar.Symbol, &bar.Frequency, &bar.Adjust, &bar.Timestamp,
			&bar.Open, &bar.High, &bar.Low, &bar.Close,
			&bar.Volume, &bar.Amount, &bar.PrevClose, &bar.Suspended,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price bar row: %w", err)
		}

		bars = append(bars, &bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bar rows: %w", err)
	}

	return bars, nil
}
