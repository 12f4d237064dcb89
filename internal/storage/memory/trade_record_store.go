package memory

import (
	"context"
	"sync"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.TradeRecord // keyed by run_id, slice order is seq order
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data: make(map[string][]*domain.TradeRecord),
	}
}

// SaveAll adds the full ledger of a run atomically. Returns ErrDuplicateKey
// if the run already has trades. An empty ledger is a no-op.
func (s *TradeRecordStore) SaveAll(_ context.Context, runID string, trades []*domain.TradeRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	ledger := make([]*domain.TradeRecord, len(trades))
	for i, t := range trades {
		tradeCopy := *t
		ledger[i] = &tradeCopy
	}
	s.data[runID] = ledger
	return nil
}

// GetByRun retrieves all trades for a run, ordered by sequence ASC.
func (s *TradeRecordStore) GetByRun(_ context.Context, runID string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.data[runID]
	result := make([]*domain.TradeRecord, len(ledger))
	for i, t := range ledger {
		tradeCopy := *t
		result[i] = &tradeCopy
	}
	return result, nil
}

// DeleteByRun removes all trades for a run. Returns the number removed.
func (s *TradeRecordStore) DeleteByRun(_ context.Context, runID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.data[runID])
	delete(s.data, runID)
	return removed, nil
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)
