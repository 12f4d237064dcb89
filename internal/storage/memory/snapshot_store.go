package memory

import (
	"context"
	"sort"
	"sync"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.DailySnapshot // keyed by run_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.DailySnapshot),
	}
}

// SaveBatch adds the full daily trace of a run.
func (s *SnapshotStore) SaveBatch(_ context.Context, runID string, snapshots []*domain.DailySnapshot) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[runID] = append(s.data[runID], &snapCopy)
	}
	return nil
}

// GetByRun retrieves all snapshots for a run, ordered by date ASC.
func (s *SnapshotStore) GetByRun(_ context.Context, runID string) ([]*domain.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.data[runID]
	result := make([]*domain.DailySnapshot, len(snaps))
	for i, snap := range snaps {
		snapCopy := *snap
		result[i] = &snapCopy
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
