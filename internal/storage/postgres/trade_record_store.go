package postgres

import (
	"context"
	"fmt"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// SaveAll adds the full ledger of a run atomically, assigning sequence
// numbers in slice order. Returns ErrDuplicateKey if the run already has
// trades. An empty ledger is a no-op.
func (s *TradeRecordStore) SaveAll(ctx context.Context, runID string, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trade_records WHERE run_id = $1)`, runID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check trade ledger: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trade_records (
			run_id, seq, ts, price, side, quantity,
			cash_after, stock_value_after, total_value_after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for seq, t := range trades {
		_, err := tx.Exec(ctx, query,
			runID, seq, t.Timestamp, t.Price, t.Side, t.Quantity,
			t.CashAfter, t.StockValueAfter, t.TotalValueAfter,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRun retrieves all trades for a run, ordered by sequence ASC.
func (s *TradeRecordStore) GetByRun(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ts, price, side, quantity,
		       cash_after, stock_value_after, total_value_after
		FROM trade_records
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by run: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord

		err := rows.Scan(
			&t.Timestamp, &t.Price, &t.Side, &t.Quantity,
			&t.CashAfter, &t.StockValueAfter, &t.TotalValueAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}

// DeleteByRun removes all trades for a run. Returns the number removed.
func (s *TradeRecordStore) DeleteByRun(ctx context.Context, runID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_records WHERE run_id = $1`, runID)
	if err != nil {
		return 0, fmt.Errorf("delete trade records by run: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
