package decision

import (
	"testing"
	"time"

	"GoldGate/internal/domain/models"
	"GoldGate/pkg/config"
)

func newArbiter(t *testing.T, cfg *config.Config, opts ...BlockerOption) *DecisionArbiter {
	t.Helper()
	log := testLogger(t)
	return NewDecisionArbiter(
		cfg,
		log,
		NewRegimeClassifier(cfg, log),
		NewCalibrationGate(cfg, log),
		NewHTFAlignmentChecker(cfg, log),
		NewRuleFilter(cfg, log),
		NewRiskSizer(cfg, log),
		NewNewsEventBlocker(cfg, log, opts...),
	)
}

func TestArbiterApprovesCleanSignal(t *testing.T) {
	cfg := testConfig()
	a := newArbiter(t, cfg)
	candles := uptrend(150, 1900, 3, 4)
	sig := upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close)

	d := a.Decide(newsNow, "XAUUSD", sig, candles, map[string]*models.Decision{}, 10000)
	if d.Outcome != models.Trade {
		t.Fatalf("outcome = %s (%s), want TRADE", d.Outcome, d.Rejection)
	}
	if d.CombinedRiskMultiplier != 1.0 {
		t.Fatalf("multiplier = %v, want 1.0", d.CombinedRiskMultiplier)
	}
	if d.Setup.Lots <= 0 || d.Setup.RiskPct <= 0 {
		t.Fatalf("approved trade has no size: %+v", d.Setup)
	}
	if d.DriftLevel != models.DriftSafe {
		t.Fatalf("drift level = %s, want SAFE", d.DriftLevel)
	}
}

func TestArbiterCriticalDriftBlocks(t *testing.T) {
	a := newArbiter(t, testConfig())
	candles := uptrend(150, 1900, 3, 4)
	sig := upSignal("1h", 0.80, 0.50, candles[len(candles)-1].Close) // drift 0.30

	d := a.Decide(newsNow, "XAUUSD", sig, candles, map[string]*models.Decision{}, 10000)
	if d.Outcome != models.NoTrade || d.Rejection != CodeCalibrationUnstable {
		t.Fatalf("outcome = %s/%s, want NO_TRADE/%s", d.Outcome, d.Rejection, CodeCalibrationUnstable)
	}
	assertFlat(t, d)
}

func TestArbiterNewsOutranksCalibration(t *testing.T) {
	cfg := testConfig()
	a := newArbiter(t, cfg, WithClock(fixedClock(newsNow)))
	a.news.Ingest([]models.NewsItem{
		newsItem("Federal Reserve raises interest rates by 25 basis points", 10*time.Minute, time.Minute),
	})
	candles := uptrend(150, 1900, 3, 4)
	sig := upSignal("1h", 0.80, 0.50, candles[len(candles)-1].Close) // drift also critical

	d := a.Decide(newsNow, "XAUUSD", sig, candles, map[string]*models.Decision{}, 10000)
	if d.Rejection != CodeHighImpactNews {
		t.Fatalf("rejection = %q, want %q to outrank calibration", d.Rejection, CodeHighImpactNews)
	}
	assertFlat(t, d)
}

func TestArbiterHardConflictBlocks(t *testing.T) {
	a := newArbiter(t, testConfig())
	candles := downtrend(150, 2400, 3, 4)
	sig := downSignal("1h", 0.30, 0.31, candles[len(candles)-1].Close)
	cycle := map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionUp, models.RegimeStrongTrend, models.Trade),
	}

	d := a.Decide(newsNow, "XAUUSD", sig, candles, cycle, 10000)
	if d.Rejection != CodeHTFConflict {
		t.Fatalf("rejection = %q, want %q", d.Rejection, CodeHTFConflict)
	}
	assertFlat(t, d)
}

func TestArbiterSoftConflictHalvesRisk(t *testing.T) {
	a := newArbiter(t, testConfig())
	candles := downtrend(150, 2400, 3, 4)
	sig := downSignal("1h", 0.30, 0.31, candles[len(candles)-1].Close)

	aligned := a.Decide(newsNow, "XAUUSD", sig, candles, map[string]*models.Decision{}, 10000)
	soft := a.Decide(newsNow, "XAUUSD", sig, candles, map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionUp, models.RegimeWeakTrend, models.Trade),
	}, 10000)

	if aligned.Outcome != models.Trade || soft.Outcome != models.Trade {
		t.Fatalf("both should trade: %s / %s", aligned.Rejection, soft.Rejection)
	}
	if soft.CombinedRiskMultiplier != 0.5 {
		t.Fatalf("soft conflict multiplier = %v, want 0.5", soft.CombinedRiskMultiplier)
	}
	if soft.Setup.RiskPct >= aligned.Setup.RiskPct {
		t.Fatalf("soft conflict must shrink risk: %v vs %v", soft.Setup.RiskPct, aligned.Setup.RiskPct)
	}
}

func TestArbiterRangeMarketRejected(t *testing.T) {
	a := newArbiter(t, testConfig())
	candles := uptrend(150, 2000, 0, 4) // flat, no directional strength
	sig := upSignal("1h", 0.70, 0.69, candles[len(candles)-1].Close)

	d := a.Decide(newsNow, "XAUUSD", sig, candles, map[string]*models.Decision{}, 10000)
	if d.Rejection != CodeRangeMarket {
		t.Fatalf("rejection = %q, want %q", d.Rejection, CodeRangeMarket)
	}
	assertFlat(t, d)
}

func TestArbiterMultiplierStaysInUnitInterval(t *testing.T) {
	a := newArbiter(t, testConfig())
	candles := uptrend(150, 1900, 3, 4)

	signals := []models.TimeframeSignal{
		upSignal("1h", 0.70, 0.69, 2257),
		upSignal("1h", 0.70, 0.50, 2257),
		upSignal("1h", 0.90, 0.50, 2257),
	}
	cycles := []map[string]*models.Decision{
		{},
		{"4h": parentDecision("4h", models.DirectionDown, models.RegimeWeakTrend, models.Trade)},
		{"4h": parentDecision("4h", models.DirectionDown, models.RegimeStrongTrend, models.Trade)},
	}
	for _, sig := range signals {
		for _, cycle := range cycles {
			d := a.Decide(newsNow, "XAUUSD", sig, candles, cycle, 10000)
			if d.CombinedRiskMultiplier < 0 || d.CombinedRiskMultiplier > 1 {
				t.Fatalf("multiplier %v out of [0,1]", d.CombinedRiskMultiplier)
			}
		}
	}
}

// assertFlat verifies the NO_TRADE invariant: no residual size or risk.
func assertFlat(t *testing.T, d *models.Decision) {
	t.Helper()
	if d.Outcome != models.NoTrade {
		t.Fatalf("outcome = %s, want NO_TRADE", d.Outcome)
	}
	if d.Setup.Lots != 0 || d.Setup.RiskPct != 0 || d.Setup.RiskAmount != 0 {
		t.Fatalf("NO_TRADE carries size: %+v", d.Setup)
	}
}
