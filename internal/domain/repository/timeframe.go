package repository

// Timeframe represents a candle resolution in the decision hierarchy.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Hierarchy lists all timeframes highest-first. Decisions are evaluated in
// this order so that child alignment checks can read parent results from the
// same cycle.
var Hierarchy = []Timeframe{TF1d, TF4h, TF1h, TF30m, TF15m}

// parentOf maps each timeframe to its immediate higher timeframe.
var parentOf = map[Timeframe]Timeframe{
	TF15m: TF30m,
	TF30m: TF1h,
	TF1h:  TF4h,
	TF4h:  TF1d,
}

// Parent returns the immediate higher timeframe, or ("", false) at the top of
// the hierarchy.
func (tf Timeframe) Parent() (Timeframe, bool) {
	p, ok := parentOf[tf]
	return p, ok
}

// Minutes returns the bar duration in minutes.
func (tf Timeframe) Minutes() int {
	switch tf {
	case TF15m:
		return 15
	case TF30m:
		return 30
	case TF1h:
		return 60
	case TF4h:
		return 240
	case TF1d:
		return 1440
	default:
		return 0
	}
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF15m, TF30m, TF1h, TF4h, TF1d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe for API queries.
func DefaultTimeframe() Timeframe { return TF1h }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}
