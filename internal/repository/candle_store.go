package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
)

// MemoryCandleStore keeps a bounded rolling window of candles per symbol and
// timeframe. The tick aggregator writes into it; the decision loop reads from
// it. It doubles as the working store when ClickHouse is not configured.
type MemoryCandleStore struct {
	mu      sync.RWMutex
	maxBars int
	series  map[string][]models.Candle // key: symbol|tf
}

func NewMemoryCandleStore(maxBars int) *MemoryCandleStore {
	if maxBars <= 0 {
		maxBars = 500
	}
	return &MemoryCandleStore{
		maxBars: maxBars,
		series:  make(map[string][]models.Candle),
	}
}

func seriesKey(symbol string, tf domrepo.Timeframe) string {
	return symbol + "|" + string(tf)
}

// Upsert inserts or replaces the candle whose bucket matches. Buckets arrive
// in order from the aggregator; the last bucket is the forming candle and is
// replaced repeatedly until it closes.
func (s *MemoryCandleStore) Upsert(symbol string, tf domrepo.Timeframe, c models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey(symbol, tf)
	arr := s.series[key]
	if n := len(arr); n > 0 && arr[n-1].Bucket.Equal(c.Bucket) {
		arr[n-1] = c
		return
	}
	arr = append(arr, c)
	if len(arr) > s.maxBars {
		arr = arr[len(arr)-s.maxBars:]
	}
	s.series[key] = arr
}

// Seed bulk-loads history, replacing any existing series.
func (s *MemoryCandleStore) Seed(symbol string, tf domrepo.Timeframe, candles []models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr := make([]models.Candle, len(candles))
	copy(arr, candles)
	if len(arr) > s.maxBars {
		arr = arr[len(arr)-s.maxBars:]
	}
	s.series[seriesKey(symbol, tf)] = arr
}

func (s *MemoryCandleStore) GetCandles(_ context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr, ok := s.series[seriesKey(symbol, tf)]
	if !ok {
		return nil, nil
	}
	out := make([]models.Candle, 0, len(arr))
	for _, c := range arr {
		if c.Bucket.Before(from) || c.Bucket.After(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryCandleStore) GetLatestNCandles(_ context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid limit %d", n)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr, ok := s.series[seriesKey(symbol, tf)]
	if !ok {
		return nil, nil
	}
	if len(arr) > n {
		arr = arr[len(arr)-n:]
	}
	out := make([]models.Candle, len(arr))
	copy(out, arr)
	return out, nil
}

var _ domrepo.FeatureStore = (*MemoryCandleStore)(nil)
