package decision

import (
	"testing"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
	"GoldGate/pkg/config"
)

func sizeOn(t *testing.T, override func(*config.Config), sig models.TimeframeSignal, candles []models.Candle, mult float64, balance float64) models.TradeSetup {
	t.Helper()
	c := testConfig()
	if override != nil {
		override(c)
	}
	r := NewRiskSizer(c, testLogger(t))
	snap := features.Compute(candles)
	regime := NewRegimeClassifier(c, testLogger(t)).Classify(sig.Timeframe, snap)
	return r.Size(sig, regime, candles, snap, mult, CodeZeroRisk, balance)
}

func TestRiskInsufficientData(t *testing.T) {
	setup := sizeOn(t, nil, upSignal("1h", 0.70, 0.69, 2000), uptrend(3, 2000, 1, 2), 1.0, 10000)
	if setup.Decision != models.NoTrade || setup.Rejection != CodeInsufficientData {
		t.Fatalf("decision = %s/%s, want NO_TRADE/%s", setup.Decision, setup.Rejection, CodeInsufficientData)
	}
}

func TestRiskFullSetupLong(t *testing.T) {
	candles := uptrend(120, 1900, 3, 4)
	entry := candles[len(candles)-1].Close
	setup := sizeOn(t, nil, upSignal("1h", 0.70, 0.69, entry), candles, 1.0, 10000)

	if setup.Decision != models.Trade {
		t.Fatalf("decision = %s (%s), want TRADE", setup.Decision, setup.Rejection)
	}
	if !(setup.Stop < entry && entry < setup.Target) {
		t.Fatalf("ordering broken: stop %v entry %v target %v", setup.Stop, entry, setup.Target)
	}
	if setup.RewardRisk < 2.0 {
		t.Fatalf("rr = %v, want >= 2", setup.RewardRisk)
	}
	if setup.Lots <= 0 {
		t.Fatalf("lots = %v, want > 0", setup.Lots)
	}
	if setup.RiskPct <= 0 || setup.RiskPct > 2.0 {
		t.Fatalf("risk pct = %v, want in (0, 2]", setup.RiskPct)
	}
}

func TestRiskShortSetupOrdering(t *testing.T) {
	candles := downtrend(120, 2400, 3, 4)
	entry := candles[len(candles)-1].Close
	setup := sizeOn(t, nil, downSignal("1h", 0.30, 0.31, entry), candles, 1.0, 10000)

	if setup.Decision != models.Trade {
		t.Fatalf("decision = %s (%s), want TRADE", setup.Decision, setup.Rejection)
	}
	if !(setup.Target < entry && entry < setup.Stop) {
		t.Fatalf("ordering broken: target %v entry %v stop %v", setup.Target, entry, setup.Stop)
	}
}

func TestRiskZeroMultiplierRejects(t *testing.T) {
	candles := uptrend(120, 1900, 3, 4)
	setup := sizeOn(t, nil, upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close), candles, 0, 10000)
	if setup.Decision != models.NoTrade || setup.Rejection != CodeZeroRisk {
		t.Fatalf("decision = %s/%s, want NO_TRADE/%s", setup.Decision, setup.Rejection, CodeZeroRisk)
	}
	if setup.Lots != 0 || setup.RiskPct != 0 {
		t.Fatalf("rejected setup carries size: lots %v risk %v", setup.Lots, setup.RiskPct)
	}
}

func TestRiskStopTooTight(t *testing.T) {
	candles := uptrend(120, 1900, 3, 4)
	setup := sizeOn(t, func(c *config.Config) { c.Risk.MinStopDist = 1000 },
		upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close), candles, 1.0, 10000)
	if setup.Rejection != CodeStopTooTight {
		t.Fatalf("rejection = %q, want %q", setup.Rejection, CodeStopTooTight)
	}
}

func TestRiskLotBelowMinimum(t *testing.T) {
	candles := uptrend(120, 1900, 3, 4)
	setup := sizeOn(t, nil, upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close), candles, 1.0, 1)
	if setup.Rejection != CodeLotCalcError {
		t.Fatalf("rejection = %q, want %q", setup.Rejection, CodeLotCalcError)
	}
}

func TestRiskBadRewardRisk(t *testing.T) {
	candles := uptrend(120, 1900, 3, 4)
	setup := sizeOn(t, func(c *config.Config) {
		c.Risk.RewardMultTrend = 1.0
		c.Risk.RewardMultBase = 1.0
	}, upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close), candles, 1.0, 10000)
	if setup.Rejection != CodeBadRR {
		t.Fatalf("rejection = %q, want %q", setup.Rejection, CodeBadRR)
	}
}

func TestRiskMultiplierScalesSize(t *testing.T) {
	candles := uptrend(120, 1900, 3, 4)
	sig := upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close)
	full := sizeOn(t, nil, sig, candles, 1.0, 10000)
	half := sizeOn(t, nil, sig, candles, 0.5, 10000)
	if full.Decision != models.Trade || half.Decision != models.Trade {
		t.Fatalf("both should trade: %s / %s", full.Rejection, half.Rejection)
	}
	if half.RiskPct >= full.RiskPct {
		t.Fatalf("halved multiplier should shrink risk: %v vs %v", half.RiskPct, full.RiskPct)
	}
}
