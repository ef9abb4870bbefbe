package decision

import (
	"time"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// DecisionArbiter runs every gate for one timeframe signal and produces the
// final verdict. Gate priority when several reject at once: news block, then
// critical calibration drift, then hard higher-timeframe conflict, then the
// rule filter, then risk sizing. Uncertainty always resolves to NO_TRADE.
type DecisionArbiter struct {
	cfg    *config.Config
	log    *logger.Logger
	regime *RegimeClassifier
	calib  *CalibrationGate
	htf    *HTFAlignmentChecker
	rules  *RuleFilter
	risk   *RiskSizer
	news   *NewsEventBlocker
}

func NewDecisionArbiter(
	cfg *config.Config,
	log *logger.Logger,
	regime *RegimeClassifier,
	calib *CalibrationGate,
	htf *HTFAlignmentChecker,
	rules *RuleFilter,
	risk *RiskSizer,
	news *NewsEventBlocker,
) *DecisionArbiter {
	return &DecisionArbiter{
		cfg:    cfg,
		log:    log.With(logger.String("component", "arbiter")),
		regime: regime,
		calib:  calib,
		htf:    htf,
		rules:  rules,
		risk:   risk,
		news:   news,
	}
}

// Decide evaluates one timeframe within a cycle. cycle holds decisions
// already made for higher timeframes this pass; the caller iterates the
// hierarchy parent-first.
func (a *DecisionArbiter) Decide(
	now time.Time,
	symbol string,
	sig models.TimeframeSignal,
	candles []models.Candle,
	cycle map[string]*models.Decision,
	balance float64,
) *models.Decision {
	snap := features.Compute(candles)
	regime := a.regime.Classify(sig.Timeframe, snap)
	calib := a.calib.Assess(sig)
	htf := a.htf.Check(sig, cycle)
	news := a.news.Evaluate(snap, regime)

	multiplier := clamp01(news.RiskMultiplier * calib.RiskMultiplier * htf.RiskMultiplier)

	d := &models.Decision{
		Timestamp:              now,
		Symbol:                 symbol,
		Timeframe:              sig.Timeframe,
		Signal:                 sig,
		Regime:                 regime,
		HTF:                    htf,
		News:                   news,
		DriftLevel:             calib.Level,
		CombinedRiskMultiplier: multiplier,
	}

	// Hard gates, in priority order. The first one that fires owns the
	// rejection code regardless of what else failed.
	switch {
	case news.Blocked:
		return a.reject(d, CodeHighImpactNews)
	case calib.Level == models.DriftCritical:
		return a.reject(d, CodeCalibrationUnstable)
	case htf.Status == models.HardConflict:
		return a.reject(d, CodeHTFConflict)
	}

	if code := a.rules.Evaluate(sig, regime, snap); code != "" {
		return a.reject(d, code)
	}

	if balance <= 0 {
		balance = a.cfg.Risk.AccountBalance
	}
	setup := a.risk.Size(sig, regime, candles, snap, multiplier, CodeZeroRisk, balance)
	d.Setup = setup
	d.Outcome = setup.Decision
	d.Rejection = setup.Rejection
	if d.Outcome == models.Trade {
		a.log.Info("trade approved",
			logger.String("timeframe", sig.Timeframe),
			logger.String("direction", string(sig.Direction)),
			logger.Float64("lots", setup.Lots),
			logger.Float64("risk_pct", setup.RiskPct),
			logger.Float64("multiplier", multiplier),
		)
	}
	return d
}

func (a *DecisionArbiter) reject(d *models.Decision, code string) *models.Decision {
	d.Outcome = models.NoTrade
	d.Rejection = code
	d.Setup = models.TradeSetup{Decision: models.NoTrade, Rejection: code}
	a.log.Info("trade rejected",
		logger.String("timeframe", d.Timeframe),
		logger.String("code", code),
		logger.String("reason", RejectionMessage(code)),
	)
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
