package memory

import (
	"context"
	"sort"
	"sync"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// SweepRunStore is an in-memory implementation of storage.SweepRunStore.
type SweepRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SweepRun // keyed by run_id
}

// NewSweepRunStore creates a new in-memory sweep run store.
func NewSweepRunStore() *SweepRunStore {
	return &SweepRunStore{
		data: make(map[string]*domain.SweepRun),
	}
}

// cloneRun copies a run including its nullable best fields, so callers
// cannot mutate stored state through the shared pointers.
func cloneRun(r *domain.SweepRun) *domain.SweepRun {
	runCopy := *r
	runCopy.BestUpRatio = cloneFloat(r.BestUpRatio)
	runCopy.BestDownRatio = cloneFloat(r.BestDownRatio)
	runCopy.BestTotalReturn = cloneFloat(r.BestTotalReturn)
	runCopy.BestAnnualReturn = cloneFloat(r.BestAnnualReturn)
	runCopy.BestMaxDrawdown = cloneFloat(r.BestMaxDrawdown)
	runCopy.BestSharpeRatio = cloneFloat(r.BestSharpeRatio)
	runCopy.BestStockReturn = cloneFloat(r.BestStockReturn)
	runCopy.BestExcessReturn = cloneFloat(r.BestExcessReturn)
	if r.BestTotalTrades != nil {
		v := *r.BestTotalTrades
		runCopy.BestTotalTrades = &v
	}
	return &runCopy
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Save adds a new run header. Returns ErrDuplicateKey if run_id exists.
func (s *SweepRunStore) Save(_ context.Context, run *domain.SweepRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.RunID] = cloneRun(run)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SweepRunStore) GetByID(_ context.Context, runID string) (*domain.SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneRun(run), nil
}

// ListBySymbol retrieves all runs for a symbol, newest first.
func (s *SweepRunStore) ListBySymbol(_ context.Context, symbol string) ([]*domain.SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SweepRun
	for _, run := range s.data {
		if run.Symbol == symbol {
			result = append(result, cloneRun(run))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Delete removes a run header. Returns ErrNotFound if not exists.
func (s *SweepRunStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, runID)
	return nil
}

var _ storage.SweepRunStore = (*SweepRunStore)(nil)
