package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-strategy-lab/internal/domain"
)

func sampleSnapshots() []*domain.DailySnapshot {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	return []*domain.DailySnapshot{
		{Date: day(1), TotalValue: 100000, Cash: 50000, StockValue: 50000, Price: 10.00},
		{Date: day(4), TotalValue: 99100, Cash: 50000, StockValue: 49100, Price: 9.82},
		{Date: day(5), TotalValue: 101350, Cash: 50000, StockValue: 51350, Price: 10.27},
	}
}

func TestSnapshotStore_SaveBatchAndGetByRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	// Empty batch is a no-op
	require.NoError(t, store.SaveBatch(ctx, "run-001", nil))

	require.NoError(t, store.SaveBatch(ctx, "run-001", sampleSnapshots()))

	got, err := store.GetByRun(ctx, "run-001")
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date), "snapshots must be ordered by date")
	}

	first := got[0]
	assert.Equal(t, 2024, first.Date.Year())
	assert.Equal(t, time.March, first.Date.Month())
	assert.Equal(t, 1, first.Date.Day())
	assert.InDelta(t, 100000, first.TotalValue, 0.0001)
	assert.InDelta(t, 50000, first.Cash, 0.0001)
	assert.InDelta(t, 50000, first.StockValue, 0.0001)
	assert.InDelta(t, 10.00, first.Price, 0.0001)
}

func TestSnapshotStore_RunsAreIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	require.NoError(t, store.SaveBatch(ctx, "run-001", sampleSnapshots()))
	require.NoError(t, store.SaveBatch(ctx, "run-002", sampleSnapshots()[:1]))

	first, err := store.GetByRun(ctx, "run-001")
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := store.GetByRun(ctx, "run-002")
	require.NoError(t, err)
	assert.Len(t, second, 1)
}
