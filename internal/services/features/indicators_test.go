package features

import (
	"math"
	"testing"
	"time"

	"GoldGate/internal/domain/models"
)

func mkCandles(closes []float64, spread float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	t0 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.Candle{
			Bucket: t0.Add(time.Duration(i) * time.Hour),
			Symbol: "XAUUSD",
			Open:   c,
			High:   c + spread,
			Low:    c - spread,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

func trending(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestEMAConvergesToConstant(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 2000.0
	}
	ema := EMA(values, 10)
	if ema == nil {
		t.Fatal("expected ema output")
	}
	if got := ema[len(ema)-1]; math.Abs(got-2000.0) > 1e-9 {
		t.Fatalf("ema of constant series = %v, want 2000", got)
	}
}

func TestEMAInsufficientData(t *testing.T) {
	if got := EMA([]float64{1, 2, 3}, 10); got != nil {
		t.Fatalf("expected nil for short series, got %v", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	candles := mkCandles(trending(60, 2000, 0), 5)
	atr := ATR(candles, 14)
	if atr == nil {
		t.Fatal("expected atr output")
	}
	// True range of every bar is high-low = 10.
	if got := atr[len(atr)-1]; math.Abs(got-10) > 1e-6 {
		t.Fatalf("atr = %v, want 10", got)
	}
}

func TestADXRisesInTrend(t *testing.T) {
	flat := mkCandles(trending(120, 2000, 0), 1)
	trend := mkCandles(trending(120, 2000, 3), 1)

	adxFlat := ADX(flat, 14)
	adxTrend := ADX(trend, 14)
	if adxFlat == nil || adxTrend == nil {
		t.Fatal("expected adx output")
	}
	f := adxFlat[len(adxFlat)-1]
	tr := adxTrend[len(adxTrend)-1]
	if tr <= f {
		t.Fatalf("trending adx %v should exceed flat adx %v", tr, f)
	}
	if tr < 25 {
		t.Fatalf("steady trend should register directional strength, got %v", tr)
	}
}

func TestBollingerBandWidthZeroOnFlat(t *testing.T) {
	closes := trending(40, 2000, 0)
	bbw := BollingerBandWidth(closes, 20, 2)
	if bbw == nil {
		t.Fatal("expected bbw output")
	}
	if got := bbw[len(bbw)-1]; got != 0 {
		t.Fatalf("flat series bbw = %v, want 0", got)
	}
}

func TestPercentileRankNeutralWithFewSamples(t *testing.T) {
	series := []float64{0, 0, 1.5, 2.0, 1.0}
	if got := PercentileRank(series, 50); got != 50.0 {
		t.Fatalf("rank with few valid samples = %v, want 50", got)
	}
}

func TestPercentileRankExtremes(t *testing.T) {
	series := make([]float64, 50)
	for i := range series {
		series[i] = float64(i + 1)
	}
	if got := PercentileRank(series, 50); got != 100 {
		t.Fatalf("max value rank = %v, want 100", got)
	}
	series[len(series)-1] = 0.5
	got := PercentileRank(series, 50)
	if got > 5 {
		t.Fatalf("min value rank = %v, want near 0", got)
	}
}

func TestRecentLowHigh(t *testing.T) {
	candles := mkCandles([]float64{2000, 1990, 2010, 1995, 2005}, 2)
	if got := RecentLow(candles, 10); got != 1988 {
		t.Fatalf("recent low = %v, want 1988", got)
	}
	if got := RecentHigh(candles, 10); got != 2012 {
		t.Fatalf("recent high = %v, want 2012", got)
	}
	if got := RecentLow(candles, 2); got != 1993 {
		t.Fatalf("windowed recent low = %v, want 1993", got)
	}
}

func TestComputeSnapshotFields(t *testing.T) {
	candles := mkCandles(trending(120, 1900, 2), 4)
	s := Compute(candles)
	if s.Bars != 120 {
		t.Fatalf("bars = %d, want 120", s.Bars)
	}
	if s.Close != candles[len(candles)-1].Close {
		t.Fatalf("close = %v, want %v", s.Close, candles[len(candles)-1].Close)
	}
	if s.EMA10 <= s.EMA50 {
		t.Fatalf("uptrend should put ema10 (%v) above ema50 (%v)", s.EMA10, s.EMA50)
	}
	if s.ATR <= 0 {
		t.Fatalf("atr = %v, want > 0", s.ATR)
	}
	if s.ATRRatio <= 0 {
		t.Fatalf("atr ratio = %v, want > 0", s.ATRRatio)
	}
	if s.ADX <= 0 {
		t.Fatalf("adx = %v, want > 0", s.ADX)
	}
}
