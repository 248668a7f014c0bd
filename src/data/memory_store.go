package data

import (
	"fmt"
	"sync"

	"github.com/mickeykoko321/omega/src/models"
)

// MemoryPriceStore keeps series in a map. Used by tests and dry runs.
type MemoryPriceStore struct {
	mu     sync.Mutex
	series map[string]models.Series
}

func NewMemoryPriceStore() *MemoryPriceStore {
	return &MemoryPriceStore{series: make(map[string]models.Series)}
}

func (s *MemoryPriceStore) Load(ticker string) (models.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, found := s.series[ticker]
	if !found || len(series) == 0 {
		return nil, fmt.Errorf("MemoryPriceStore.Load: %s: %w", ticker, ErrNotFound)
	}

	out := make(models.Series, len(series))
	copy(out, series)
	return out.Weekdays(), nil
}

func (s *MemoryPriceStore) Save(ticker string, series models.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series[ticker] = s.series[ticker].Merge(series)
	return nil
}

// Tickers lists the stored keys, in no particular order.
func (s *MemoryPriceStore) Tickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.series))
	for k := range s.series {
		out = append(out, k)
	}

	return out
}
