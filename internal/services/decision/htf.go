package decision

import (
	"fmt"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/domain/repository"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// HTFAlignmentChecker compares a timeframe's signal against its parent (and
// grandparent) results from the same cycle. Timeframes evaluate parent-first,
// so by the time a child runs its ancestors are final.
type HTFAlignmentChecker struct {
	cfg *config.Config
	log *logger.Logger
}

func NewHTFAlignmentChecker(cfg *config.Config, log *logger.Logger) *HTFAlignmentChecker {
	return &HTFAlignmentChecker{cfg: cfg, log: log.With(logger.String("component", "htf"))}
}

// Check resolves alignment for sig against the cycle's prior decisions. An
// absent or unevaluated parent aligns by default: the hierarchy top has no
// one to disagree with.
func (h *HTFAlignmentChecker) Check(sig models.TimeframeSignal, cycle map[string]*models.Decision) models.HTFStatus {
	parentTF, ok := repository.Timeframe(sig.Timeframe).Parent()
	if !ok {
		return aligned("", "top of hierarchy")
	}
	parent, ok := cycle[string(parentTF)]
	if !ok || parent == nil {
		return aligned(string(parentTF), "parent not evaluated this cycle")
	}

	status := models.HTFStatus{
		Parent:          string(parentTF),
		ParentDirection: parent.Signal.Direction,
	}

	if parent.Outcome == models.NoTrade {
		status.Status = models.HardConflict
		status.RiskMultiplier = 0
		status.Reason = fmt.Sprintf("parent %s is not tradeable (%s)", parentTF, parent.Rejection)
		h.logConflict(sig, status)
		return status
	}

	if parent.Signal.Direction != sig.Direction {
		if parent.Regime.Label == models.RegimeStrongTrend {
			status.Status = models.HardConflict
			status.RiskMultiplier = 0
			status.Reason = fmt.Sprintf("parent %s trends %s against signal", parentTF, parent.Signal.Direction)
		} else {
			status.Status = models.SoftConflict
			status.RiskMultiplier = h.cfg.HTF.SoftConflictRiskMult
			status.Reason = fmt.Sprintf("parent %s leans %s, weak conviction", parentTF, parent.Signal.Direction)
		}
		h.logConflict(sig, status)
		return status
	}

	// Parent agrees. A strongly trending grandparent pointing the other way
	// still vetoes the trade.
	if gpTF, ok := parentTF.Parent(); ok {
		if gp, ok := cycle[string(gpTF)]; ok && gp != nil {
			if gp.Signal.Direction != sig.Direction && gp.Regime.Label == models.RegimeStrongTrend {
				status.Status = models.HardConflict
				status.RiskMultiplier = 0
				status.Reason = fmt.Sprintf("grandparent %s trends %s against signal", gpTF, gp.Signal.Direction)
				h.logConflict(sig, status)
				return status
			}
		}
	}

	status.Status = models.Aligned
	status.RiskMultiplier = 1.0
	status.Reason = fmt.Sprintf("parent %s agrees", parentTF)
	return status
}

func (h *HTFAlignmentChecker) logConflict(sig models.TimeframeSignal, st models.HTFStatus) {
	h.log.Info("htf conflict",
		logger.String("timeframe", sig.Timeframe),
		logger.String("direction", string(sig.Direction)),
		logger.String("status", string(st.Status)),
		logger.String("reason", st.Reason),
	)
}

func aligned(parent, reason string) models.HTFStatus {
	return models.HTFStatus{
		Status:         models.Aligned,
		Parent:         parent,
		RiskMultiplier: 1.0,
		Reason:         reason,
	}
}
