package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

func createTestRun(runID, symbol string, createdAt time.Time) *domain.SweepRun {
	return &domain.SweepRun{
		RunID:        runID,
		Symbol:       symbol,
		Frequency:    domain.FrequencyDaily,
		Adjust:       domain.AdjustForward,
		StartDate:    time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		InitialCash:  100000,
		MinUpRatio:   0.01,
		MaxUpRatio:   0.10,
		MinDownRatio: 0.01,
		MaxDownRatio: 0.10,
		StepSize:     0.001,
		DayCount:     243,
		Attempted:    8281,
		Simulated:    8281,
		Skipped:      0,

		BestUpRatio:      ptr(0.014),
		BestDownRatio:    ptr(0.026),
		BestTotalReturn:  ptr(0.1873),
		BestAnnualReturn: ptr(0.1881),
		BestMaxDrawdown:  ptr(-0.0712),
		BestSharpeRatio:  ptr(1.42),
		BestStockReturn:  ptr(0.0521),
		BestExcessReturn: ptr(0.1352),
		BestTotalTrades:  ptr(47),

		CreatedAt: createdAt,
	}
}

func TestSweepRunStore_SaveAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepRunStore(pool)

	run := createTestRun("run-001", "000001.SZ", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.Save(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, retrieved.RunID)
	assert.Equal(t, run.Symbol, retrieved.Symbol)
	assert.Equal(t, run.Frequency, retrieved.Frequency)
	assert.Equal(t, run.Adjust, retrieved.Adjust)
	assert.True(t, run.StartDate.Equal(retrieved.StartDate))
	assert.True(t, run.EndDate.Equal(retrieved.EndDate))
	assert.InDelta(t, run.InitialCash, retrieved.InitialCash, 0.0001)
	assert.InDelta(t, run.StepSize, retrieved.StepSize, 1e-9)
	assert.Equal(t, run.DayCount, retrieved.DayCount)
	assert.Equal(t, run.Attempted, retrieved.Attempted)
	assert.Equal(t, run.Simulated, retrieved.Simulated)
	assert.Equal(t, run.Skipped, retrieved.Skipped)

	require.True(t, retrieved.Viable())
	assert.InDelta(t, *run.BestUpRatio, *retrieved.BestUpRatio, 1e-9)
	assert.InDelta(t, *run.BestDownRatio, *retrieved.BestDownRatio, 1e-9)
	assert.InDelta(t, *run.BestTotalReturn, *retrieved.BestTotalReturn, 0.0001)
	assert.InDelta(t, *run.BestAnnualReturn, *retrieved.BestAnnualReturn, 0.0001)
	assert.InDelta(t, *run.BestMaxDrawdown, *retrieved.BestMaxDrawdown, 0.0001)
	assert.InDelta(t, *run.BestSharpeRatio, *retrieved.BestSharpeRatio, 0.0001)
	assert.InDelta(t, *run.BestStockReturn, *retrieved.BestStockReturn, 0.0001)
	assert.InDelta(t, *run.BestExcessReturn, *retrieved.BestExcessReturn, 0.0001)
	require.NotNil(t, retrieved.BestTotalTrades)
	assert.Equal(t, 47, *retrieved.BestTotalTrades)
}

func TestSweepRunStore_SaveDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepRunStore(pool)

	run := createTestRun("run-001", "000001.SZ", time.Now().UTC())
	require.NoError(t, store.Save(ctx, run))

	err := store.Save(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSweepRunStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepRunStore(pool)

	_, err := store.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSweepRunStore_NonViableRunRoundTrips(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepRunStore(pool)

	// A sweep where every cell was skipped persists NULL best columns
	run := createTestRun("run-002", "000001.SZ", time.Now().UTC())
	run.BestUpRatio = nil
	run.BestDownRatio = nil
	run.BestTotalReturn = nil
	run.BestAnnualReturn = nil
	run.BestMaxDrawdown = nil
	run.BestSharpeRatio = nil
	run.BestStockReturn = nil
	run.BestExcessReturn = nil
	run.BestTotalTrades = nil
	run.Simulated = 0
	run.Skipped = run.Attempted

	require.NoError(t, store.Save(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-002")
	require.NoError(t, err)
	assert.False(t, retrieved.Viable())
	assert.Nil(t, retrieved.BestUpRatio)
	assert.Nil(t, retrieved.BestExcessReturn)
	assert.Nil(t, retrieved.BestTotalTrades)
}

func TestSweepRunStore_ListBySymbolNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepRunStore(pool)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, createTestRun("run-old", "000001.SZ", base)))
	require.NoError(t, store.Save(ctx, createTestRun("run-new", "000001.SZ", base.Add(2*time.Hour))))
	require.NoError(t, store.Save(ctx, createTestRun("run-other", "600519.SH", base.Add(time.Hour))))

	runs, err := store.ListBySymbol(ctx, "000001.SZ")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-old", runs[1].RunID)
}

func TestSweepRunStore_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepRunStore(pool)

	require.NoError(t, store.Save(ctx, createTestRun("run-001", "000001.SZ", time.Now().UTC())))
	require.NoError(t, store.Delete(ctx, "run-001"))

	_, err := store.GetByID(ctx, "run-001")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Delete(ctx, "run-001")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
