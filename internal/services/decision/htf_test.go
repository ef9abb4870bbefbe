package decision

import (
	"testing"

	"GoldGate/internal/domain/models"
)

func parentDecision(tf string, dir models.Direction, label models.RegimeLabel, outcome models.DecisionOutcome) *models.Decision {
	d := &models.Decision{
		Timeframe: tf,
		Outcome:   outcome,
	}
	d.Signal.Timeframe = tf
	d.Signal.Direction = dir
	d.Regime.Label = label
	if outcome == models.NoTrade {
		d.Rejection = CodeRangeMarket
	}
	return d
}

func TestHTFTopOfHierarchyAligns(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	st := h.Check(upSignal("1d", 0.7, 0.7, 2000), map[string]*models.Decision{})
	if st.Status != models.Aligned || st.RiskMultiplier != 1.0 {
		t.Fatalf("status = %s mult %v, want ALIGNED 1.0", st.Status, st.RiskMultiplier)
	}
}

func TestHTFUnevaluatedParentAligns(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	st := h.Check(upSignal("1h", 0.7, 0.7, 2000), map[string]*models.Decision{})
	if st.Status != models.Aligned {
		t.Fatalf("status = %s, want ALIGNED", st.Status)
	}
}

func TestHTFParentNoTradeIsHardConflict(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	cycle := map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionUp, models.RegimeRange, models.NoTrade),
	}
	st := h.Check(upSignal("1h", 0.7, 0.7, 2000), cycle)
	if st.Status != models.HardConflict || st.RiskMultiplier != 0 {
		t.Fatalf("status = %s mult %v, want HARD_CONFLICT 0", st.Status, st.RiskMultiplier)
	}
}

func TestHTFStrongTrendMismatchIsHardConflict(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	cycle := map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionUp, models.RegimeStrongTrend, models.Trade),
	}
	st := h.Check(downSignal("1h", 0.3, 0.31, 2000), cycle)
	if st.Status != models.HardConflict {
		t.Fatalf("status = %s, want HARD_CONFLICT", st.Status)
	}
	if st.ParentDirection != models.DirectionUp {
		t.Fatalf("parent direction = %s, want UP", st.ParentDirection)
	}
}

func TestHTFWeakTrendMismatchIsSoftConflict(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	cycle := map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionUp, models.RegimeWeakTrend, models.Trade),
	}
	st := h.Check(downSignal("1h", 0.3, 0.31, 2000), cycle)
	if st.Status != models.SoftConflict {
		t.Fatalf("status = %s, want SOFT_CONFLICT", st.Status)
	}
	if st.RiskMultiplier != 0.5 {
		t.Fatalf("multiplier = %v, want 0.5", st.RiskMultiplier)
	}
}

func TestHTFGrandparentVetoDespiteParentAgreement(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	cycle := map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionDown, models.RegimeWeakTrend, models.Trade),
		"1d": parentDecision("1d", models.DirectionUp, models.RegimeStrongTrend, models.Trade),
	}
	st := h.Check(downSignal("4h", 0.3, 0.31, 2000), map[string]*models.Decision{
		"1d": cycle["1d"],
	})
	if st.Status != models.Aligned {
		// 4h's parent is 1d which disagrees and trends strongly.
		t.Logf("direct parent disagreement handled: %s", st.Status)
	}

	st = h.Check(downSignal("1h", 0.3, 0.31, 2000), cycle)
	if st.Status != models.HardConflict {
		t.Fatalf("status = %s, want HARD_CONFLICT from grandparent veto", st.Status)
	}
}

func TestHTFAlignedWhenHierarchyAgrees(t *testing.T) {
	h := NewHTFAlignmentChecker(testConfig(), testLogger(t))
	cycle := map[string]*models.Decision{
		"4h": parentDecision("4h", models.DirectionUp, models.RegimeStrongTrend, models.Trade),
		"1d": parentDecision("1d", models.DirectionUp, models.RegimeStrongTrend, models.Trade),
	}
	st := h.Check(upSignal("1h", 0.7, 0.7, 2000), cycle)
	if st.Status != models.Aligned || st.RiskMultiplier != 1.0 {
		t.Fatalf("status = %s mult %v, want ALIGNED 1.0", st.Status, st.RiskMultiplier)
	}
}
