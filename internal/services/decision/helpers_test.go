package decision

import (
	"testing"
	"time"

	"GoldGate/internal/domain/models"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Symbol = "XAUUSD"
	cfg.Decision.Timeframes = []string{"1d", "4h", "1h", "30m", "15m"}
	cfg.Decision.Lookback = 200
	cfg.Decision.MinBars = 50

	cfg.Regime.Thresholds = map[string]config.TimeframeThresholds{
		"15m": {ADXStrong: 45, ADXWeak: 30, ATRSpike: 3.0, BBWSqueeze: 15, MinATR: 0.8},
		"30m": {ADXStrong: 42, ADXWeak: 28, ATRSpike: 2.8, BBWSqueeze: 18, MinATR: 1.0},
		"1h":  {ADXStrong: 40, ADXWeak: 25, ATRSpike: 2.5, BBWSqueeze: 20, MinATR: 1.5},
		"4h":  {ADXStrong: 35, ADXWeak: 22, ATRSpike: 2.3, BBWSqueeze: 22, MinATR: 2.5},
		"1d":  {ADXStrong: 30, ADXWeak: 20, ATRSpike: 2.0, BBWSqueeze: 25, MinATR: 5.0},
	}
	cfg.Regime.Default = config.TimeframeThresholds{ADXStrong: 40, ADXWeak: 25, ATRSpike: 2.5, BBWSqueeze: 20}

	cfg.Calibration.SafeDrift = 0.15
	cfg.Calibration.WarningDrift = 0.25
	cfg.Calibration.WarningRiskMult = 0.5

	cfg.Rules.AllowedRegimes = []string{"STRONG_TREND", "WEAK_TREND"}
	cfg.Rules.MinConfidence = 0.60
	cfg.Rules.BlockOnLowATR = true

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

	cfg.News.Enabled = true
	cfg.News.MaxNewsAgeMinutes = 60
	cfg.News.RelevanceWindowMinutes = 180
	cfg.News.HighImpactBlockMinutes = 90
	cfg.News.ResumeMaxATRRatio = 1.5
	cfg.News.Events = map[string]config.EventCooldown{
		"FOMC_DECISION": {
			CooldownMinutes: 150,
			Keywords:        []string{"fomc", "raises interest rates", "cuts interest rates", "holds rates steady"},
			Patterns:        []string{`fed(eral reserve)? (raises|cuts|holds)`},
		},
		"CPI": {
			CooldownMinutes: 75,
			Keywords:        []string{"cpi", "consumer price index", "inflation data"},
		},
		"NFP": {
			CooldownMinutes: 75,
			Keywords:        []string{"nonfarm payrolls", "non-farm payrolls", "jobs report"},
		},
	}
	cfg.News.CommentaryPatterns = []string{
		"signals potential", "hints at", "suggests", "analyst says",
		"economist expects", "may pause", "could cut", "might hike",
	}

	cfg.Model.ServiceURL = "http://localhost:9000"
	cfg.Audit.Backend = "clickhouse"

	return cfg
}

// uptrend builds n candles climbing by step with a fixed high-low spread.
func uptrend(n int, start, step, spread float64) []models.Candle {
	out := make([]models.Candle, n)
	t0 := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := start + float64(i)*step
		out[i] = models.Candle{
			Bucket: t0.Add(time.Duration(i) * time.Hour),
			Symbol: "XAUUSD",
			Open:   c - step,
			High:   c + spread/2,
			Low:    c - spread/2,
			Close:  c,
			Volume: 500,
		}
	}
	return out
}

// downtrend mirrors uptrend with a falling close.
func downtrend(n int, start, step, spread float64) []models.Candle {
	out := uptrend(n, start, 0, spread)
	for i := range out {
		c := start - float64(i)*step
		out[i].Open = c + step
		out[i].High = c + spread/2
		out[i].Low = c - spread/2
		out[i].Close = c
	}
	return out
}

func upSignal(tf string, raw, calib, price float64) models.TimeframeSignal {
	return models.TimeframeSignal{
		Timeframe:       tf,
		Direction:       models.DirectionUp,
		RawProbability:  raw,
		CalibProbability: calib,
		RawConfidence:   raw,
		CalibConfidence: calib,
		Drift:           abs(calib - raw),
		Price:           price,
	}
}

func downSignal(tf string, raw, calib, price float64) models.TimeframeSignal {
	s := upSignal(tf, raw, calib, price)
	s.Direction = models.DirectionDown
	s.RawConfidence = 1 - raw
	s.CalibConfidence = 1 - calib
	s.Drift = abs(s.CalibConfidence - s.RawConfidence)
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
