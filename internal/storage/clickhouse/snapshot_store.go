package clickhouse

import (
	"context"
	"fmt"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// SaveBatch adds the full daily trace of a run via a prepared batch.
func (s *SnapshotStore) SaveBatch(ctx context.Context, runID string, snapshots []*domain.DailySnapshot) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_snapshots (
			run_id, date, total_value, cash, stock_value, price
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			runID, snap.Date, snap.TotalValue, snap.Cash, snap.StockValue, snap.Price,
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

// GetByRun retrieves all snapshots for a run, ordered by date ASC.
func (s *SnapshotStore) GetByRun(ctx context.Context, runID string) ([]*domain.DailySnapshot, error) {
	query := `
		SELECT date, total_value, cash, stock_value, price
		FROM daily_snapshots
		WHERE run_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by run: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.DailySnapshot
	for rows.Next() {
		var snap domain.DailySnapshot

		err := rows.Scan(
			&snap.Date, &snap.TotalValue, &snap.Cash, &snap.StockValue, &snap.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.Date = snap.Date.UTC()
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
