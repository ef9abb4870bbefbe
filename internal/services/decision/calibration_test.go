package decision

import (
	"testing"

	"GoldGate/internal/domain/models"
)

func TestCalibrationSafe(t *testing.T) {
	g := NewCalibrationGate(testConfig(), testLogger(t))
	v := g.Assess(upSignal("1h", 0.70, 0.69, 2000))
	if v.Level != models.DriftSafe {
		t.Fatalf("level = %s, want SAFE", v.Level)
	}
	if v.RiskMultiplier != 1.0 {
		t.Fatalf("multiplier = %v, want 1.0", v.RiskMultiplier)
	}
	if v.Rejection != "" {
		t.Fatalf("unexpected rejection %q", v.Rejection)
	}
}

func TestCalibrationWarningHalvesRisk(t *testing.T) {
	g := NewCalibrationGate(testConfig(), testLogger(t))
	v := g.Assess(upSignal("1h", 0.70, 0.50, 2000)) // drift 0.20
	if v.Level != models.DriftWarning {
		t.Fatalf("level = %s, want WARNING", v.Level)
	}
	if v.RiskMultiplier != 0.5 {
		t.Fatalf("multiplier = %v, want 0.5", v.RiskMultiplier)
	}
	if v.Warning != CodeCalibrationWarning {
		t.Fatalf("warning = %q, want %q", v.Warning, CodeCalibrationWarning)
	}
}

func TestCalibrationCriticalZeroesRisk(t *testing.T) {
	g := NewCalibrationGate(testConfig(), testLogger(t))
	v := g.Assess(upSignal("1h", 0.80, 0.50, 2000)) // drift 0.30
	if v.Level != models.DriftCritical {
		t.Fatalf("level = %s, want CRITICAL", v.Level)
	}
	if v.RiskMultiplier != 0 {
		t.Fatalf("multiplier = %v, want 0", v.RiskMultiplier)
	}
	if v.Rejection != CodeCalibrationUnstable {
		t.Fatalf("rejection = %q, want %q", v.Rejection, CodeCalibrationUnstable)
	}
}

func TestCalibratorFlagForcesWarning(t *testing.T) {
	g := NewCalibrationGate(testConfig(), testLogger(t))
	sig := upSignal("1h", 0.70, 0.70, 2000) // zero drift
	sig.DriftWarning = true
	v := g.Assess(sig)
	if v.Level != models.DriftWarning {
		t.Fatalf("level = %s, want WARNING when calibrator flags the call", v.Level)
	}
}
