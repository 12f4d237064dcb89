package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceBar // keyed by (symbol, frequency, adjust, timestamp)
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]*domain.PriceBar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, freq domain.Frequency, adjust domain.Adjust, ts time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%d", symbol, freq, adjust, ts.UnixMilli())
}

// Save adds a single bar. Returns ErrDuplicateKey if the key exists.
func (s *PriceBarStore) Save(_ context.Context, bar *domain.PriceBar) error {
	if bar == nil || bar.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := barKey(bar.Symbol, bar.Frequency, bar.Adjust, bar.Timestamp)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	barCopy := *bar
	s.data[key] = &barCopy
	return nil
}

// SaveBatch upserts multiple bars. Existing bars for the same key are overwritten.
func (s *PriceBarStore) SaveBatch(_ context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	for _, bar := range bars {
		if bar == nil || bar.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bar := range bars {
		key := barKey(bar.Symbol, bar.Frequency, bar.Adjust, bar.Timestamp)
		barCopy := *bar
		s.data[key] = &barCopy
	}

	return nil
}

// GetByRange retrieves bars within [start, end] (inclusive), ordered by timestamp ASC.
func (s *PriceBarStore) GetByRange(_ context.Context, symbol string, freq domain.Frequency, adjust domain.Adjust, start, end time.Time) ([]*domain.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceBar
	for _, bar := range s.data {
		if bar.Symbol != symbol || bar.Frequency != freq || bar.Adjust != adjust {
			continue
		}
		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}
		barCopy := *bar
		result = append(result, &barCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// Count returns the number of cached bars for a symbol/frequency/adjust.
func (s *PriceBarStore) Count(_ context.Context, symbol string, freq domain.Frequency, adjust domain.Adjust) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, bar := range s.data {
		if bar.Symbol == symbol && bar.Frequency == freq && bar.Adjust == adjust {
			count++
		}
	}
	return count, nil
}

// DeleteBySymbol removes all cached bars for a symbol. Returns the number removed.
func (s *PriceBarStore) DeleteBySymbol(_ context.Context, symbol string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.data {
		if strings.HasPrefix(key, symbol+"|") {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
