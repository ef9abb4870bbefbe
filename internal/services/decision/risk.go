package decision

import (
	"math"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// minRiskBars is the minimum candle history for stop construction.
const minRiskBars = 5

// RiskSizer turns an approved signal into a concrete trade setup: stop,
// target, risk percentage and lot count. Any sizing failure downgrades the
// decision to NO_TRADE rather than producing a partial setup.
type RiskSizer struct {
	cfg *config.Config
	log *logger.Logger
}

func NewRiskSizer(cfg *config.Config, log *logger.Logger) *RiskSizer {
	return &RiskSizer{cfg: cfg, log: log.With(logger.String("component", "risk"))}
}

// Size builds the trade setup. multiplier is the combined risk multiplier
// from the upstream gates; zeroCode names the gate that zeroed it.
func (r *RiskSizer) Size(
	sig models.TimeframeSignal,
	regime models.RegimeState,
	candles []models.Candle,
	snap features.Snapshot,
	multiplier float64,
	zeroCode string,
	balance float64,
) models.TradeSetup {
	if len(candles) < minRiskBars {
		return noTrade(CodeInsufficientData)
	}

	atr := snap.ATR
	if atr <= 0 {
		atr = features.RangeEstimate(candles, minRiskBars)
	}
	if atr <= 0 {
		return noTrade(CodeInsufficientData)
	}

	entry := sig.Price
	if entry <= 0 {
		entry = candles[len(candles)-1].Close
	}

	stop := r.buildStop(sig.Direction, entry, atr, candles)
	stopDist := math.Abs(entry - stop)
	if stopDist < r.cfg.Risk.MinStopDist {
		return noTrade(CodeStopTooTight)
	}

	rewardMult := r.cfg.Risk.RewardMultBase
	if regime.Label == models.RegimeStrongTrend {
		rewardMult = r.cfg.Risk.RewardMultTrend
	}
	var target float64
	if sig.Direction == models.DirectionUp {
		target = entry + rewardMult*stopDist
	} else {
		target = entry - rewardMult*stopDist
	}
	rr := math.Abs(target-entry) / stopDist
	if rr < r.cfg.Risk.MinRewardRisk {
		return noTrade(CodeBadRR)
	}

	if multiplier <= 0 {
		if zeroCode == "" {
			zeroCode = CodeZeroRisk
		}
		return noTrade(zeroCode)
	}

	riskPct := r.cfg.Risk.BaseRiskPct * regimeRiskMult(regime.Label) * confidenceFactor(sig.CalibConfidence) * multiplier
	if riskPct > r.cfg.Risk.MaxRiskPct {
		riskPct = r.cfg.Risk.MaxRiskPct
	}
	if riskPct <= 0 {
		return noTrade(CodeZeroRisk)
	}

	riskAmount := balance * riskPct / 100
	lots := riskAmount / (stopDist * r.cfg.Risk.ContractSize)
	lots = math.Floor(lots/r.cfg.Risk.LotStep) * r.cfg.Risk.LotStep
	if lots < r.cfg.Risk.MinLot {
		return noTrade(CodeLotCalcError)
	}
	if lots > r.cfg.Risk.MaxLot {
		lots = r.cfg.Risk.MaxLot
	}

	setup := models.TradeSetup{
		Decision:     models.Trade,
		Entry:        entry,
		Stop:         stop,
		Target:       target,
		StopDistance: stopDist,
		RewardRisk:   rr,
		RiskPct:      riskPct,
		RiskAmount:   riskAmount,
		Lots:         lots,
		Balance:      balance,
	}
	r.log.Debug("setup sized",
		logger.String("timeframe", sig.Timeframe),
		logger.Float64("entry", entry),
		logger.Float64("stop", stop),
		logger.Float64("target", target),
		logger.Float64("lots", lots),
		logger.Float64("risk_pct", riskPct),
	)
	return setup
}

// buildStop picks the wider of a swing-structure stop and a volatility stop,
// falling back to the volatility stop when structure is invalid or the swing
// stop sits too far from entry.
func (r *RiskSizer) buildStop(dir models.Direction, entry, atr float64, candles []models.Candle) float64 {
	lookback := r.cfg.Risk.SwingLookback
	if lookback <= 0 {
		lookback = 10
	}
	buffer := r.cfg.Risk.ATRBuffer * atr
	volDist := r.cfg.Risk.VolStopMult * atr

	var swing, vol, stop float64
	if dir == models.DirectionUp {
		swing = features.RecentLow(candles, lookback) - buffer
		vol = entry - volDist
		stop = math.Min(swing, vol)
		if stop >= entry {
			stop = vol
		}
	} else {
		swing = features.RecentHigh(candles, lookback) + buffer
		vol = entry + volDist
		stop = math.Max(swing, vol)
		if stop <= entry {
			stop = vol
		}
	}

	if r.cfg.Risk.MaxStopPct > 0 && math.Abs(entry-stop) > r.cfg.Risk.MaxStopPct/100*entry {
		stop = vol
	}
	return stop
}

func regimeRiskMult(label models.RegimeLabel) float64 {
	switch label {
	case models.RegimeStrongTrend:
		return 1.0
	case models.RegimeWeakTrend:
		return 0.8
	case models.RegimeRange:
		return 0.5
	case models.RegimeHighVolNoTrade:
		return 0.0
	default:
		return 0.5
	}
}

func confidenceFactor(conf float64) float64 {
	switch {
	case conf > 0.75:
		return 1.1
	case conf < 0.55:
		return 0.8
	default:
		return 1.0
	}
}

func noTrade(code string) models.TradeSetup {
	return models.TradeSetup{
		Decision:  models.NoTrade,
		Rejection: code,
	}
}
