package decision

import (
	"GoldGate/internal/domain/models"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// CalibrationGate bands the drift between raw and calibrated confidence and
// converts the band into a risk multiplier. CRITICAL drift means the
// calibration mapping no longer fits live data and the signal cannot be
// trusted at all.
type CalibrationGate struct {
	cfg *config.Config
	log *logger.Logger
}

// CalibrationVerdict is the gate output for one signal.
type CalibrationVerdict struct {
	Level          models.DriftLevel
	RiskMultiplier float64
	Rejection      string // set only at CRITICAL
	Warning        string // set at WARNING, logged but not blocking
}

func NewCalibrationGate(cfg *config.Config, log *logger.Logger) *CalibrationGate {
	return &CalibrationGate{cfg: cfg, log: log.With(logger.String("component", "calibration"))}
}

// Assess bands the signal's drift. A calibrator-side warning (unfitted
// mapping) is treated the same as WARNING drift.
func (g *CalibrationGate) Assess(sig models.TimeframeSignal) CalibrationVerdict {
	safe := g.cfg.Calibration.SafeDrift
	warning := g.cfg.Calibration.WarningDrift

	switch {
	case sig.Drift > warning:
		g.log.Warn("calibration drift critical",
			logger.String("timeframe", sig.Timeframe),
			logger.Float64("drift", sig.Drift),
			logger.Float64("threshold", warning),
		)
		return CalibrationVerdict{
			Level:          models.DriftCritical,
			RiskMultiplier: 0,
			Rejection:      CodeCalibrationUnstable,
		}
	case sig.Drift > safe || sig.DriftWarning:
		g.log.Warn("calibration drift elevated",
			logger.String("timeframe", sig.Timeframe),
			logger.Float64("drift", sig.Drift),
			logger.Bool("calibrator_warn", sig.DriftWarning),
		)
		return CalibrationVerdict{
			Level:          models.DriftWarning,
			RiskMultiplier: g.cfg.Calibration.WarningRiskMult,
			Warning:        CodeCalibrationWarning,
		}
	default:
		return CalibrationVerdict{
			Level:          models.DriftSafe,
			RiskMultiplier: 1.0,
		}
	}
}
