package memory

import (
	"context"
	"testing"
	"time"

	"grid-strategy-lab/internal/domain"
)

func testSnapshot(day int, total float64) *domain.DailySnapshot {
	return &domain.DailySnapshot{
		Date:       time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		TotalValue: total,
		Cash:       total / 2,
		StockValue: total / 2,
		Price:      100,
	}
}

func TestSnapshotStore_SaveBatchAndGetByRun(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.DailySnapshot{
		testSnapshot(3, 100300),
		testSnapshot(1, 100000),
		testSnapshot(2, 100150),
	}
	if err := store.SaveBatch(ctx, "run1", snaps); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Errorf("Snapshots not sorted at index %d", i)
		}
	}
	if got[0].TotalValue != 100000 {
		t.Errorf("Expected first-day total 100000, got %f", got[0].TotalValue)
	}
}

func TestSnapshotStore_RunsAreIsolated(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.SaveBatch(ctx, "run1", []*domain.DailySnapshot{testSnapshot(1, 100000)}); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}
	if err := store.SaveBatch(ctx, "run2", []*domain.DailySnapshot{testSnapshot(1, 200000)}); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 1 || got[0].TotalValue != 100000 {
		t.Errorf("Expected only run1 snapshots, got %+v", got)
	}
}

func TestSnapshotStore_ReturnsCopies(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.SaveBatch(ctx, "run1", []*domain.DailySnapshot{testSnapshot(1, 100000)}); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	got, _ := store.GetByRun(ctx, "run1")
	got[0].TotalValue = 0

	again, _ := store.GetByRun(ctx, "run1")
	if again[0].TotalValue != 100000 {
		t.Errorf("Stored snapshot mutated through returned copy: %f", again[0].TotalValue)
	}
}
