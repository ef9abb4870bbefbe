package decision

import (
	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// RuleFilter applies the hard entry rules in a fixed order. The first failed
// rule's code becomes the rejection; later rules are not evaluated.
type RuleFilter struct {
	cfg     *config.Config
	log     *logger.Logger
	allowed map[models.RegimeLabel]bool
}

func NewRuleFilter(cfg *config.Config, log *logger.Logger) *RuleFilter {
	allowed := make(map[models.RegimeLabel]bool, len(cfg.Rules.AllowedRegimes))
	for _, r := range cfg.Rules.AllowedRegimes {
		allowed[models.RegimeLabel(r)] = true
	}
	return &RuleFilter{
		cfg:     cfg,
		log:     log.With(logger.String("component", "rules")),
		allowed: allowed,
	}
}

// Evaluate returns the first violated rule's code, or "" when all pass.
func (f *RuleFilter) Evaluate(sig models.TimeframeSignal, regime models.RegimeState, snap features.Snapshot) string {
	if !f.allowed[regime.Label] {
		code := regimeRejection(regime.Label)
		f.reject(sig, code)
		return code
	}

	if sig.CalibConfidence < f.cfg.Rules.MinConfidence {
		f.reject(sig, CodeLowConfidence)
		return CodeLowConfidence
	}

	if f.cfg.Rules.BlockOnLowATR {
		th := f.cfg.ThresholdsFor(sig.Timeframe)
		if th.MinATR > 0 && snap.ATR < th.MinATR {
			f.reject(sig, CodeLowVolatility)
			return CodeLowVolatility
		}
	}

	return ""
}

func regimeRejection(label models.RegimeLabel) string {
	switch label {
	case models.RegimeRange:
		return CodeRangeMarket
	case models.RegimeHighVolNoTrade:
		return CodeHighVolatility
	default:
		return CodeRegimeFilter
	}
}

func (f *RuleFilter) reject(sig models.TimeframeSignal, code string) {
	f.log.Debug("rule rejection",
		logger.String("timeframe", sig.Timeframe),
		logger.String("code", code),
		logger.Float64("calib_confidence", sig.CalibConfidence),
	)
}
