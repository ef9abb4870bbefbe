package repository

import (
	"context"
	"testing"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
)

func candleAt(t time.Time, close float64) models.Candle {
	return models.Candle{
		Bucket: t,
		Symbol: "XAUUSD",
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 10,
	}
}

func TestMemoryStoreUpsertReplacesFormingCandle(t *testing.T) {
	s := NewMemoryCandleStore(100)
	bucket := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	s.Upsert("XAUUSD", domrepo.TF1h, candleAt(bucket, 2000))
	s.Upsert("XAUUSD", domrepo.TF1h, candleAt(bucket, 2005))

	got, err := s.GetLatestNCandles(context.Background(), "XAUUSD", 10, domrepo.TF1h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (same bucket replaces)", len(got))
	}
	if got[0].Close != 2005 {
		t.Fatalf("close = %v, want 2005", got[0].Close)
	}
}

func TestMemoryStoreRollingWindow(t *testing.T) {
	s := NewMemoryCandleStore(5)
	t0 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Upsert("XAUUSD", domrepo.TF1h, candleAt(t0.Add(time.Duration(i)*time.Hour), float64(2000+i)))
	}

	got, err := s.GetLatestNCandles(context.Background(), "XAUUSD", 100, domrepo.TF1h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want window of 5", len(got))
	}
	if got[0].Close != 2005 || got[4].Close != 2009 {
		t.Fatalf("window contents wrong: first %v last %v", got[0].Close, got[4].Close)
	}
}

func TestMemoryStoreRangeQuery(t *testing.T) {
	s := NewMemoryCandleStore(100)
	t0 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Upsert("XAUUSD", domrepo.TF1h, candleAt(t0.Add(time.Duration(i)*time.Hour), float64(2000+i)))
	}

	got, err := s.GetCandles(context.Background(), "XAUUSD", t0.Add(2*time.Hour), t0.Add(5*time.Hour), domrepo.TF1h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4 (inclusive range)", len(got))
	}
}

func TestMemoryStoreSeparatesTimeframes(t *testing.T) {
	s := NewMemoryCandleStore(100)
	bucket := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.Upsert("XAUUSD", domrepo.TF1h, candleAt(bucket, 2000))
	s.Upsert("XAUUSD", domrepo.TF4h, candleAt(bucket, 3000))

	h, _ := s.GetLatestNCandles(context.Background(), "XAUUSD", 10, domrepo.TF1h)
	d, _ := s.GetLatestNCandles(context.Background(), "XAUUSD", 10, domrepo.TF4h)
	if len(h) != 1 || len(d) != 1 || h[0].Close == d[0].Close {
		t.Fatalf("timeframes not isolated: %v %v", h, d)
	}
}

func TestMemoryStoreSeed(t *testing.T) {
	s := NewMemoryCandleStore(3)
	t0 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var history []models.Candle
	for i := 0; i < 6; i++ {
		history = append(history, candleAt(t0.Add(time.Duration(i)*time.Hour), float64(2000+i)))
	}
	s.Seed("XAUUSD", domrepo.TF1h, history)

	got, _ := s.GetLatestNCandles(context.Background(), "XAUUSD", 10, domrepo.TF1h)
	if len(got) != 3 || got[2].Close != 2005 {
		t.Fatalf("seed not trimmed to window: %v", got)
	}
}
