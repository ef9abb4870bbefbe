package model

import (
	"context"
	"fmt"

	"GoldGate/internal/domain/models"
	domsvc "GoldGate/internal/domain/service"
	"GoldGate/pkg/config"
)

// HTTPPredictor asks the external model service for the raw probability of an
// upward move on the next bar.
type HTTPPredictor struct{ base *HTTPServiceBase }

func NewHTTPPredictor(cfg *config.Config) *HTTPPredictor {
	return &HTTPPredictor{base: NewHTTPServiceBase(cfg)}
}

type candlePayload struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type predictRequest struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Candles   []candlePayload `json:"candles"`
}

type predictResponse struct {
	ProbUp float64 `json:"prob_up"`
}

func (p *HTTPPredictor) PredictUp(ctx context.Context, symbol string, tf string, candles []models.Candle) (float64, error) {
	payload := predictRequest{
		Symbol:    symbol,
		Timeframe: tf,
		Candles:   make([]candlePayload, 0, len(candles)),
	}
	for _, c := range candles {
		payload.Candles = append(payload.Candles, candlePayload{
			Time:   c.Bucket.Unix(),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}

	var resp predictResponse
	if err := p.base.PostJSONWithRetry(ctx, "/predict", payload, &resp, p.base.retries); err != nil {
		return 0, fmt.Errorf("predict %s %s: %w", symbol, tf, err)
	}
	if resp.ProbUp < 0 || resp.ProbUp > 1 {
		return 0, fmt.Errorf("predict %s %s: probability %v out of range", symbol, tf, resp.ProbUp)
	}
	return resp.ProbUp, nil
}

var _ domsvc.Predictor = (*HTTPPredictor)(nil)

// HTTPCalibrator maps raw probabilities through the model service's fitted
// calibration curve. An unfitted curve echoes the raw value and sets warn.
type HTTPCalibrator struct{ base *HTTPServiceBase }

func NewHTTPCalibrator(cfg *config.Config) *HTTPCalibrator {
	return &HTTPCalibrator{base: NewHTTPServiceBase(cfg)}
}

type calibrateRequest struct {
	Timeframe string  `json:"timeframe"`
	Raw       float64 `json:"raw"`
}

type calibrateResponse struct {
	Calibrated float64 `json:"calibrated"`
	Fitted     bool    `json:"fitted"`
}

func (c *HTTPCalibrator) Calibrate(ctx context.Context, tf string, raw float64) (float64, bool, error) {
	var resp calibrateResponse
	if err := c.base.PostJSONWithRetry(ctx, "/calibrate", calibrateRequest{Timeframe: tf, Raw: raw}, &resp, c.base.retries); err != nil {
		return 0, false, fmt.Errorf("calibrate %s: %w", tf, err)
	}
	if !resp.Fitted {
		// The calibrator has not seen enough outcomes yet. Pass the raw value
		// through and let the drift gate reduce risk.
		return raw, true, nil
	}
	if resp.Calibrated < 0 || resp.Calibrated > 1 {
		return 0, false, fmt.Errorf("calibrate %s: probability %v out of range", tf, resp.Calibrated)
	}
	return resp.Calibrated, false, nil
}

var _ domsvc.Calibrator = (*HTTPCalibrator)(nil)
