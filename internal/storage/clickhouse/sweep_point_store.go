package clickhouse

import (
	"context"
	"fmt"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// SweepPointStore implements storage.SweepPointStore using ClickHouse.
type SweepPointStore struct {
	conn *Conn
}

// NewSweepPointStore creates a new SweepPointStore.
func NewSweepPointStore(conn *Conn) *SweepPointStore {
	return &SweepPointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SweepPointStore = (*SweepPointStore)(nil)

// SaveBatch adds all rows of a run's sweep table via a prepared batch.
func (s *SweepPointStore) SaveBatch(ctx context.Context, runID string, rows []*domain.SweepRow) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sweep_points (
			run_id, up_ratio, down_ratio,
			excess_return, total_return, stock_return, annual_return,
			max_drawdown, sharpe_ratio,
			total_trades, buy_trades, sell_trades
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			runID, row.UpRatio, row.DownRatio,
			row.ExcessReturn, row.TotalReturn, row.StockReturn, row.AnnualReturn,
			row.MaxDrawdown, row.SharpeRatio,
			uint32(row.TotalTrades), uint32(row.BuyTrades), uint32(row.SellTrades),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all rows for a run, ordered by (up_ratio, down_ratio).
func (s *SweepPointStore) GetByRun(ctx context.Context, runID string) ([]*domain.SweepRow, error) {
	query := `
		SELECT up_ratio, down_ratio,
		       excess_return, total_return, stock_return, annual_return,
		       max_drawdown, sharpe_ratio,
		       total_trades, buy_trades, sell_trades
		FROM sweep_points
		WHERE run_id = ?
		ORDER BY up_ratio ASC, down_ratio ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query sweep points by run: %w", err)
	}
	defer rows.Close()

	return scanSweepRows(rows)
}

// CountByRun returns the number of stored rows for a run.
func (s *SweepPointStore) CountByRun(ctx context.Context, runID string) (int, error) {
	query := `SELECT count(*) FROM sweep_points WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sweep points: %w", err)
	}
	return int(count), nil
}

// scanSweepRows scans multiple rows into a slice of SweepRow.
func scanSweepRows(rows chRows) ([]*domain.SweepRow, error) {
	var result []*domain.SweepRow

	for rows.Next() {
		var row domain.SweepRow
		var totalTrades, buyTrades, sellTrades uint32

		err := rows.Scan(
			&row.UpRatio, &row.DownRatio,
			&row.ExcessReturn, &row.TotalReturn, &row.StockReturn, &row.AnnualReturn,
			&row.MaxDrawdown, &row.SharpeRatio,
			&totalTrades, &buyTrades, &sellTrades,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sweep point row: %w", err)
		}

		row.TotalTrades = int(totalTrades)
		row.BuyTrades = int(buyTrades)
		row.SellTrades = int(sellTrades)
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep point rows: %w", err)
	}

	return result, nil
}
