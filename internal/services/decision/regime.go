package decision

import (
	"fmt"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// minRegimeBars is the floor below which no classification is attempted.
const minRegimeBars = 50

// RegimeClassifier labels each timeframe's market behavior from indicator
// state. Thresholds are per-timeframe: higher frequencies need stronger ADX
// readings before a trend is trusted.
type RegimeClassifier struct {
	cfg *config.Config
	log *logger.Logger
}

func NewRegimeClassifier(cfg *config.Config, log *logger.Logger) *RegimeClassifier {
	return &RegimeClassifier{cfg: cfg, log: log.With(logger.String("component", "regime"))}
}

// Classify maps an indicator snapshot to a regime. A volatility spike
// preempts every other label.
func (r *RegimeClassifier) Classify(tf string, snap features.Snapshot) models.RegimeState {
	state := models.RegimeState{
		Timeframe:     tf,
		ADX:           snap.ADX,
		ATRRatio:      snap.ATRRatio,
		BBWPercentile: snap.BBWPercentile,
	}

	if snap.Bars < minRegimeBars {
		state.Label = models.RegimeUnknown
		state.TrendDirection = models.TrendNeutral
		state.Reason = fmt.Sprintf("only %d bars, need %d", snap.Bars, minRegimeBars)
		return state
	}

	th := r.cfg.ThresholdsFor(tf)
	state.TrendDirection = trendDirection(snap)
	state.Squeeze = snap.BBWPercentile < th.BBWSqueeze

	switch {
	case snap.ATRRatio > th.ATRSpike:
		state.Label = models.RegimeHighVolNoTrade
		state.Reason = fmt.Sprintf("atr ratio %.2f exceeds spike threshold %.2f", snap.ATRRatio, th.ATRSpike)
	case snap.ADX >= th.ADXStrong:
		state.Label = models.RegimeStrongTrend
		state.Reason = fmt.Sprintf("adx %.1f >= %.1f", snap.ADX, th.ADXStrong)
	case snap.ADX >= th.ADXWeak:
		state.Label = models.RegimeWeakTrend
		state.Reason = fmt.Sprintf("adx %.1f >= %.1f", snap.ADX, th.ADXWeak)
	default:
		state.Label = models.RegimeRange
		state.Reason = fmt.Sprintf("adx %.1f below %.1f", snap.ADX, th.ADXWeak)
	}

	r.log.Debug("regime classified",
		logger.String("timeframe", tf),
		logger.String("label", string(state.Label)),
		logger.Float64("adx", snap.ADX),
		logger.Float64("atr_ratio", snap.ATRRatio),
	)
	return state
}

func trendDirection(snap features.Snapshot) models.TrendDirection {
	switch {
	case snap.Close > snap.EMA10 && snap.EMA10 > snap.EMA50:
		return models.TrendBullish
	case snap.Close < snap.EMA10 && snap.EMA10 < snap.EMA50:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}
