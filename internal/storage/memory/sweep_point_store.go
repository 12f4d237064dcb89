package memory

import (
	"context"
	"sort"
	"sync"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// SweepPointStore is an in-memory implementation of storage.SweepPointStore.
type SweepPointStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.SweepRow // keyed by run_id
}

// NewSweepPointStore creates a new in-memory sweep point store.
func NewSweepPointStore() *SweepPointStore {
	return &SweepPointStore{
		data: make(map[string][]*domain.SweepRow),
	}
}

// SaveBatch adds all rows of a run's sweep table.
func (s *SweepPointStore) SaveBatch(_ context.Context, runID string, rows []*domain.SweepRow) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		rowCopy := *row
		s.data[runID] = append(s.data[runID], &rowCopy)
	}
	return nil
}

// GetByRun retrieves all rows for a run, ordered by (up_ratio, down_ratio).
func (s *SweepPointStore) GetByRun(_ context.Context, runID string) ([]*domain.SweepRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[runID]
	result := make([]*domain.SweepRow, len(rows))
	for i, row := range rows {
		rowCopy := *row
		result[i] = &rowCopy
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpRatio != result[j].UpRatio {
			return result[i].UpRatio < result[j].UpRatio
		}
		return result[i].DownRatio < result[j].DownRatio
	})

	return result, nil
}

// CountByRun returns the number of stored rows for a run.
func (s *SweepPointStore) CountByRun(_ context.Context, runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data[runID]), nil
}

var _ storage.SweepPointStore = (*SweepPointStore)(nil)
