package decision

import (
	"testing"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
)

func passingSnapshot() features.Snapshot {
	return features.Snapshot{Bars: 120, ATR: 5, ATRRatio: 1.0, ADX: 45}
}

func TestRulesRegimeAllowList(t *testing.T) {
	f := NewRuleFilter(testConfig(), testLogger(t))
	sig := upSignal("1h", 0.70, 0.69, 2000)

	cases := []struct {
		label models.RegimeLabel
		want  string
	}{
		{models.RegimeStrongTrend, ""},
		{models.RegimeWeakTrend, ""},
		{models.RegimeRange, CodeRangeMarket},
		{models.RegimeHighVolNoTrade, CodeHighVolatility},
		{models.RegimeUnknown, CodeRegimeFilter},
	}
	for _, tc := range cases {
		got := f.Evaluate(sig, models.RegimeState{Label: tc.label}, passingSnapshot())
		if got != tc.want {
			t.Fatalf("regime %s: code = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestRulesMinConfidence(t *testing.T) {
	f := NewRuleFilter(testConfig(), testLogger(t))
	regime := models.RegimeState{Label: models.RegimeStrongTrend}

	if got := f.Evaluate(upSignal("1h", 0.56, 0.55, 2000), regime, passingSnapshot()); got != CodeLowConfidence {
		t.Fatalf("code = %q, want %q", got, CodeLowConfidence)
	}
	if got := f.Evaluate(upSignal("1h", 0.61, 0.60, 2000), regime, passingSnapshot()); got != "" {
		t.Fatalf("code = %q, want pass at the threshold", got)
	}
}

func TestRulesMinATR(t *testing.T) {
	f := NewRuleFilter(testConfig(), testLogger(t))
	regime := models.RegimeState{Label: models.RegimeStrongTrend}
	snap := passingSnapshot()
	snap.ATR = 1.0 // 1h floor is 1.5

	if got := f.Evaluate(upSignal("1h", 0.70, 0.69, 2000), regime, snap); got != CodeLowVolatility {
		t.Fatalf("code = %q, want %q", got, CodeLowVolatility)
	}
}

func TestRulesATRCheckDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Rules.BlockOnLowATR = false
	f := NewRuleFilter(cfg, testLogger(t))
	regime := models.RegimeState{Label: models.RegimeStrongTrend}
	snap := passingSnapshot()
	snap.ATR = 0.1

	if got := f.Evaluate(upSignal("1h", 0.70, 0.69, 2000), regime, snap); got != "" {
		t.Fatalf("code = %q, want pass with atr check disabled", got)
	}
}

func TestRulesRegimeCheckedBeforeConfidence(t *testing.T) {
	f := NewRuleFilter(testConfig(), testLogger(t))
	// Both rules fail; the regime rule owns the code.
	got := f.Evaluate(upSignal("1h", 0.52, 0.51, 2000), models.RegimeState{Label: models.RegimeRange}, passingSnapshot())
	if got != CodeRangeMarket {
		t.Fatalf("code = %q, want %q", got, CodeRangeMarket)
	}
}
