package service

import (
	"context"

	"GoldGate/internal/domain/models"
)

// Predictor produces the raw probability of an upward move for the next bar
// of a timeframe. The statistical model is external; the decision core only
// consumes its output.
type Predictor interface {
	PredictUp(ctx context.Context, symbol string, tf string, candles []models.Candle) (float64, error)
}

// Calibrator maps a raw probability to a calibrated one. Warn is set when the
// calibrator is unfitted or the mapping itself flagged the call; callers must
// treat that as reduced trust, not a hard failure.
type Calibrator interface {
	Calibrate(ctx context.Context, tf string, raw float64) (calibrated float64, warn bool, err error)
}

// NewsSource returns recently observed news items with origin and fetch
// timestamps populated where parseable.
type NewsSource interface {
	Fetch(ctx context.Context) ([]models.NewsItem, error)
}
