package decision

import (
	"testing"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
)

func TestClassifyInsufficientBars(t *testing.T) {
	r := NewRegimeClassifier(testConfig(), testLogger(t))
	snap := features.Compute(uptrend(20, 1900, 3, 4))
	state := r.Classify("1h", snap)
	if state.Label != models.RegimeUnknown {
		t.Fatalf("label = %s, want UNKNOWN", state.Label)
	}
}

func TestClassifyStrongTrend(t *testing.T) {
	r := NewRegimeClassifier(testConfig(), testLogger(t))
	snap := features.Compute(uptrend(150, 1900, 3, 4))
	state := r.Classify("1h", snap)
	if state.Label != models.RegimeStrongTrend {
		t.Fatalf("label = %s (adx %.1f), want STRONG_TREND", state.Label, snap.ADX)
	}
	if state.TrendDirection != models.TrendBullish {
		t.Fatalf("trend = %s, want BULLISH", state.TrendDirection)
	}
}

func TestClassifyBearishTrendDirection(t *testing.T) {
	r := NewRegimeClassifier(testConfig(), testLogger(t))
	snap := features.Compute(downtrend(150, 2400, 3, 4))
	state := r.Classify("1h", snap)
	if state.TrendDirection != models.TrendBearish {
		t.Fatalf("trend = %s, want BEARISH", state.TrendDirection)
	}
}

func TestClassifyRangeOnFlatMarket(t *testing.T) {
	r := NewRegimeClassifier(testConfig(), testLogger(t))
	snap := features.Compute(uptrend(150, 2000, 0, 4))
	state := r.Classify("1h", snap)
	if state.Label != models.RegimeRange {
		t.Fatalf("label = %s (adx %.1f), want RANGE", state.Label, snap.ADX)
	}
}

func TestClassifyVolatilitySpikePreempts(t *testing.T) {
	candles := uptrend(150, 1900, 3, 4)
	// Widen the last bars far beyond the historical range.
	for i := len(candles) - 10; i < len(candles); i++ {
		candles[i].High = candles[i].Close + 50
		candles[i].Low = candles[i].Close - 50
	}
	r := NewRegimeClassifier(testConfig(), testLogger(t))
	snap := features.Compute(candles)
	state := r.Classify("1h", snap)
	if state.Label != models.RegimeHighVolNoTrade {
		t.Fatalf("label = %s (atr ratio %.2f), want HIGH_VOLATILITY_NO_TRADE", state.Label, snap.ATRRatio)
	}
}

func TestClassifyUsesPerTimeframeThresholds(t *testing.T) {
	cfg := testConfig()
	r := NewRegimeClassifier(cfg, testLogger(t))
	snap := features.Snapshot{Bars: 100, ADX: 32, ATRRatio: 1.0, Close: 2000, EMA10: 1995, EMA50: 1990}

	// ADX 32 is a weak trend on 15m (strong needs 45) but a strong trend on 1d
	// (strong needs 30).
	if got := r.Classify("15m", snap).Label; got != models.RegimeWeakTrend {
		t.Fatalf("15m label = %s, want WEAK_TREND", got)
	}
	if got := r.Classify("1d", snap).Label; got != models.RegimeStrongTrend {
		t.Fatalf("1d label = %s, want STRONG_TREND", got)
	}
}
