package decision

// Rejection codes written to the audit trail. Stable strings: downstream
// analysis groups by them.
const (
	CodeLowConfidence      = "LOW_CONFIDENCE"
	CodeHTFConflict        = "HTF_CONFLICT"
	CodeBadRR              = "BAD_RR"
	CodeHighVolatility     = "HIGH_VOLATILITY"
	CodeRangeMarket        = "RANGE_MARKET"
	CodeLowVolatility      = "LOW_VOLATILITY"
	CodeRegimeFilter       = "REGIME_FILTER"
	CodeHighImpactNews     = "HIGH_IMPACT_NEWS"
	CodeCalendarBlackout   = "CALENDAR_BLACKOUT"
	CodeEventImminent      = "EVENT_IMMINENT"
	CodeNewsSentiment      = "NEWS_NEGATIVE_SENTIMENT"
	CodeStopTooTight       = "SL_TOO_TIGHT"
	CodeZeroRisk           = "ZERO_RISK"
	CodeLotCalcError       = "LOT_CALC_ERROR"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeModelUnavailable   = "MODEL_UNAVAILABLE"
	CodeCalibrationUnstable = "CALIBRATION_UNSTABLE"
	CodeCalibrationWarning  = "CALIBRATION_WARNING"
)

var rejectionMessages = map[string]string{
	CodeLowConfidence:       "model confidence below entry threshold",
	CodeHTFConflict:         "higher timeframe disagrees with signal direction",
	CodeBadRR:               "reward-to-risk below minimum",
	CodeHighVolatility:      "volatility spike, market untradeable",
	CodeRangeMarket:         "ranging market, no directional edge",
	CodeLowVolatility:       "volatility too low to clear costs",
	CodeRegimeFilter:        "regime outside the allowed set",
	CodeHighImpactNews:      "high-impact news cooldown active",
	CodeCalendarBlackout:    "scheduled event blackout window",
	CodeEventImminent:       "scheduled event too close",
	CodeNewsSentiment:       "news sentiment strongly against the signal",
	CodeStopTooTight:        "stop distance below broker minimum",
	CodeZeroRisk:            "combined risk multiplier is zero",
	CodeLotCalcError:        "position size rounds below minimum lot",
	CodeInsufficientData:    "not enough bars for a reliable decision",
	CodeModelUnavailable:    "model service unreachable, failing safe",
	CodeCalibrationUnstable: "calibration drift critical, model untrusted",
	CodeCalibrationWarning:  "calibration drift elevated, risk reduced",
}

// RejectionMessage returns the human-readable explanation for a code. Unknown
// codes echo back unchanged so logs never lose information.
func RejectionMessage(code string) string {
	if m, ok := rejectionMessages[code]; ok {
		return m
	}
	return code
}
