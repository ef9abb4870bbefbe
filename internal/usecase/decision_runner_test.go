package usecase

import (
	"context"
	"testing"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
	"GoldGate/internal/repository"
	"GoldGate/internal/services/decision"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

type fakePredictor struct {
	prob float64
	err  error
}

func (f fakePredictor) PredictUp(context.Context, string, string, []models.Candle) (float64, error) {
	return f.prob, f.err
}

type fakeCalibrator struct{ shift float64 }

func (f fakeCalibrator) Calibrate(_ context.Context, _ string, raw float64) (float64, bool, error) {
	return raw + f.shift, false, nil
}

type captureSink struct{ batches [][]*models.AuditRecord }

func (s *captureSink) Init(context.Context) error                      { return nil }
func (s *captureSink) Append(_ context.Context, r *models.AuditRecord) error {
	s.batches = append(s.batches, []*models.AuditRecord{r})
	return nil
}
func (s *captureSink) AppendBatch(_ context.Context, recs []*models.AuditRecord) error {
	s.batches = append(s.batches, recs)
	return nil
}
func (s *captureSink) Recent(context.Context, string, time.Time, time.Time, int) ([]*models.AuditRecord, error) {
	return nil, nil
}
func (s *captureSink) Health(context.Context) error { return nil }
func (s *captureSink) Close() error                 { return nil }

type nullMetrics struct{}

func (nullMetrics) RecordDecision(string, string)       {}
func (nullMetrics) RecordRejection(string)              {}
func (nullMetrics) RecordRiskMultiplier(string, float64) {}
func (nullMetrics) RecordActiveBlocks(int)              {}
func (nullMetrics) RecordMessageSent(string, string)    {}
func (nullMetrics) RecordError(string)                  {}
func (nullMetrics) RecordLastPrice(string, float64)     {}
func (nullMetrics) RecordLatency(string, float64)       {}

func runnerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Symbol = "XAUUSD"
	cfg.Decision.Timeframes = []string{"1d", "4h", "1h", "30m", "15m"}
	cfg.Decision.Lookback = 200
	cfg.Decision.MinBars = 50
	cfg.Regime.Thresholds = map[string]config.TimeframeThresholds{
		"15m": {ADXStrong: 45, ADXWeak: 30, ATRSpike: 3.0, BBWSqueeze: 15},
		"30m": {ADXStrong: 42, ADXWeak: 28, ATRSpike: 2.8, BBWSqueeze: 18},
		"1h":  {ADXStrong: 40, ADXWeak: 25, ATRSpike: 2.5, BBWSqueeze: 20},
		"4h":  {ADXStrong: 35, ADXWeak: 22, ATRSpike: 2.3, BBWSqueeze: 22},
		"1d":  {ADXStrong: 30, ADXWeak: 20, ATRSpike: 2.0, BBWSqueeze: 25},
	}
	cfg.Calibration.SafeDrift = 0.15
	cfg.Calibration.WarningDrift = 0.25
	cfg.Calibration.WarningRiskMult = 0.5
	cfg.Rules.AllowedRegimes = []string{"STRONG_TREND", "WEAK_TREND"}
	cfg.Rules.MinConfidence = 0.60
	cfg.HTF.SoftConflictRiskMult = 0.5
	cfg.Risk.AccountBalance = 10000
	cfg.Risk.BaseRiskPct = 1.0
	cfg.Risk.MaxRiskPct = 2.0
	cfg.Risk.MinRewardRisk = 2.0
	cfg.Risk.MinStopDist = 0.5
	cfg.Risk.MaxStopPct = 5.0
	cfg.Risk.ATRBuffer = 0.3
	cfg.Risk.VolStopMult = 1.5
	cfg.Risk.RewardMultTrend = 3.0
	cfg.Risk.RewardMultBase = 2.0
	cfg.Risk.SwingLookback = 10
	cfg.Risk.ContractSize = 100
	cfg.Risk.MinLot = 0.01
	cfg.Risk.MaxLot = 10.0
	cfg.Risk.LotStep = 0.01
	cfg.News.Enabled = false
	cfg.News.ResumeMaxATRRatio = 1.5
	cfg.News.MaxNewsAgeMinutes = 60
	cfg.News.RelevanceWindowMinutes = 180
	cfg.News.HighImpactBlockMinutes = 90
	cfg.Audit.Backend = "clickhouse"
	return cfg
}

func newRunner(t *testing.T, cfg *config.Config, store domrepo.FeatureStore, pred fakePredictor, sink *captureSink) *DecisionRunner {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	blocker := decision.NewNewsEventBlocker(cfg, log)
	arbiter := decision.NewDecisionArbiter(
		cfg, log,
		decision.NewRegimeClassifier(cfg, log),
		decision.NewCalibrationGate(cfg, log),
		decision.NewHTFAlignmentChecker(cfg, log),
		decision.NewRuleFilter(cfg, log),
		decision.NewRiskSizer(cfg, log),
		blocker,
	)
	router := NewAuditRouter(nil, sink, nullMetrics{}, cfg.Audit.Backend)
	return NewDecisionRunner(cfg, log, store, pred, fakeCalibrator{shift: -0.01}, nil, blocker, arbiter, router, nil, nullMetrics{})
}

func seedStore(cfg *config.Config) *repository.MemoryCandleStore {
	store := repository.NewMemoryCandleStore(500)
	t0 := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	for _, tf := range cfg.Decision.Timeframes {
		step := time.Duration(domrepo.Timeframe(tf).Minutes()) * time.Minute
		var candles []models.Candle
		for i := 0; i < 150; i++ {
			c := 1900.0 + float64(i)*3
			candles = append(candles, models.Candle{
				Bucket: t0.Add(time.Duration(i) * step),
				Symbol: "XAUUSD",
				Open:   c - 3,
				High:   c + 2,
				Low:    c - 2,
				Close:  c,
				Volume: 100,
			})
		}
		store.Seed("XAUUSD", domrepo.Timeframe(tf), candles)
	}
	return store
}

func TestRunCycleEvaluatesParentsFirst(t *testing.T) {
	cfg := runnerConfig()
	sink := &captureSink{}
	r := newRunner(t, cfg, seedStore(cfg), fakePredictor{prob: 0.70}, sink)

	r.RunCycle(context.Background())

	if len(sink.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(sink.batches))
	}
	recs := sink.batches[0]
	want := []string{"1d", "4h", "1h", "30m", "15m"}
	if len(recs) != len(want) {
		t.Fatalf("records = %d, want %d", len(recs), len(want))
	}
	for i, tf := range want {
		if recs[i].Timeframe != tf {
			t.Fatalf("record %d timeframe = %s, want %s", i, recs[i].Timeframe, tf)
		}
	}
}

func TestRunCycleAlignedHierarchyTrades(t *testing.T) {
	cfg := runnerConfig()
	sink := &captureSink{}
	r := newRunner(t, cfg, seedStore(cfg), fakePredictor{prob: 0.70}, sink)

	r.RunCycle(context.Background())

	latest, at := r.Latest()
	if at.IsZero() {
		t.Fatal("last run not recorded")
	}
	for _, tf := range cfg.Decision.Timeframes {
		d, ok := latest[tf]
		if !ok {
			t.Fatalf("missing decision for %s", tf)
		}
		if d.Outcome != models.Trade {
			t.Fatalf("%s outcome = %s (%s), want TRADE with aligned uptrend", tf, d.Outcome, d.Rejection)
		}
		if d.HTF.Status == models.HardConflict {
			t.Fatalf("%s unexpectedly in hard conflict", tf)
		}
	}
}

func TestRunCycleInsufficientData(t *testing.T) {
	cfg := runnerConfig()
	sink := &captureSink{}
	r := newRunner(t, cfg, repository.NewMemoryCandleStore(500), fakePredictor{prob: 0.70}, sink)

	r.RunCycle(context.Background())

	latest, _ := r.Latest()
	for tf, d := range latest {
		if d.Outcome != models.NoTrade || d.Rejection != decision.CodeInsufficientData {
			t.Fatalf("%s = %s/%s, want NO_TRADE/%s", tf, d.Outcome, d.Rejection, decision.CodeInsufficientData)
		}
		if d.Setup.Lots != 0 || d.Setup.RiskPct != 0 {
			t.Fatalf("%s carries size on empty data", tf)
		}
	}
}

func TestToAuditRecordFlattening(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	d := &models.Decision{
		Timestamp: now,
		Symbol:    "XAUUSD",
		Timeframe: "1h",
		Outcome:   models.Trade,
	}
	d.Signal.Direction = models.DirectionUp
	d.Signal.RawConfidence = 0.70
	d.Signal.CalibConfidence = 0.69
	d.Signal.Drift = 0.01
	d.Signal.Price = 2257
	d.Regime.Label = models.RegimeStrongTrend
	d.HTF.Status = models.Aligned
	d.HTF.Parent = "4h"
	d.Setup = models.TradeSetup{Decision: models.Trade, Entry: 2257, Stop: 2230, Target: 2338, Lots: 0.03, RiskPct: 1.0, RiskAmount: 100, RewardRisk: 3.0}
	d.News.Block = &models.NewsBlock{
		EventType:       "CPI",
		ImpactLevel:     "HIGH",
		CooldownMinutes: 75,
		BlockUntil:      now.Add(30 * time.Minute),
	}

	rec := ToAuditRecord(d)
	if rec.Timeframe != "1h" || rec.Direction != "UP" || rec.Decision != "TRADE" {
		t.Fatalf("core fields wrong: %+v", rec)
	}
	if rec.Entry != 2257 || rec.Stop != 2230 || rec.Target != 2338 {
		t.Fatalf("levels wrong: %+v", rec)
	}
	if rec.NewsEvent != "CPI" || rec.NewsCooldownMin != 75 {
		t.Fatalf("news fields wrong: %+v", rec)
	}
	if rec.NewsBlockUntil != now.Add(30*time.Minute).Format(time.RFC3339) {
		t.Fatalf("block until = %s", rec.NewsBlockUntil)
	}
}

func TestRunCyclePredictorFailureFailsSafe(t *testing.T) {
	cfg := runnerConfig()
	sink := &captureSink{}
	r := newRunner(t, cfg, seedStore(cfg), fakePredictor{err: context.DeadlineExceeded}, sink)

	r.RunCycle(context.Background())

	latest, _ := r.Latest()
	if len(latest) != len(cfg.Decision.Timeframes) {
		t.Fatalf("decisions = %d, want %d fail-safe records", len(latest), len(cfg.Decision.Timeframes))
	}
	for tf, d := range latest {
		if d.Outcome != models.NoTrade || d.Rejection != decision.CodeModelUnavailable {
			t.Fatalf("%s = %s/%s, want NO_TRADE/%s", tf, d.Outcome, d.Rejection, decision.CodeModelUnavailable)
		}
		if d.Setup.Lots != 0 || d.Setup.RiskPct != 0 {
			t.Fatalf("%s carries size while the model is down", tf)
		}
	}
}
