package features

import (
	"math"

	"GoldGate/internal/domain/models"
)

// Snapshot is the latest-bar indicator state used by regime classification
// and risk sizing. All values refer to the most recent closed candle.
type Snapshot struct {
	Close         float64
	EMA10         float64
	EMA50         float64
	ATR           float64
	ATRRatio      float64 // current ATR over its rolling mean
	ADX           float64
	BBWidth       float64
	BBWPercentile float64
	Bars          int
}

const (
	atrPeriod     = 14
	adxPeriod     = 14
	bbPeriod      = 20
	bbStdDevs     = 2.0
	atrMeanWindow = 50
	bbwRankWindow = 50
)

// Compute builds the indicator snapshot for a candle series. Candles must be
// ordered oldest first. Fields that cannot be computed yet stay zero; callers
// gate on Bars.
func Compute(candles []models.Candle) Snapshot {
	s := Snapshot{Bars: len(candles)}
	if len(candles) == 0 {
		return s
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	s.Close = closes[len(closes)-1]

	if ema := EMA(closes, 10); len(ema) > 0 {
		s.EMA10 = ema[len(ema)-1]
	}
	if ema := EMA(closes, 50); len(ema) > 0 {
		s.EMA50 = ema[len(ema)-1]
	}

	atr := ATR(candles, atrPeriod)
	if len(atr) > 0 {
		s.ATR = atr[len(atr)-1]
		s.ATRRatio = ratioToMean(atr, atrMeanWindow)
	}

	if adx := ADX(candles, adxPeriod); len(adx) > 0 {
		s.ADX = adx[len(adx)-1]
	}

	bbw := BollingerBandWidth(closes, bbPeriod, bbStdDevs)
	if len(bbw) > 0 {
		s.BBWidth = bbw[len(bbw)-1]
		s.BBWPercentile = PercentileRank(bbw, bbwRankWindow)
	}
	return s
}

// EMA computes an exponential moving average. The first period values are
// seeded with a simple average; output aligns with the input (leading values
// before the seed are zero).
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// ATR computes Wilder's average true range. Output aligns with the input.
func ATR(candles []models.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period+1 {
		return nil
	}
	tr := trueRanges(candles)
	out := make([]float64, len(candles))
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < len(candles); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// ADX computes Wilder's average directional index. Output aligns with the
// input; the first 2*period values are zero while smoothing warms up.
func ADX(candles []models.Candle, period int) []float64 {
	n := len(candles)
	if period <= 0 || n < 2*period+1 {
		return nil
	}
	tr := trueRanges(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	smTR := wilderSmooth(tr, period)
	smPlus := wilderSmooth(plusDM, period)
	smMinus := wilderSmooth(minusDM, period)

	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if smTR[i] == 0 {
			continue
		}
		pdi := 100 * smPlus[i] / smTR[i]
		mdi := 100 * smMinus[i] / smTR[i]
		if pdi+mdi == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
	}

	out := make([]float64, n)
	sum := 0.0
	for i := period + 1; i <= 2*period; i++ {
		sum += dx[i]
	}
	out[2*period] = sum / float64(period)
	for i := 2*period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return out
}

// BollingerBandWidth computes band width as a percentage of the middle band:
// 100 * (upper - lower) / middle. Output aligns with the input.
func BollingerBandWidth(closes []float64, period int, stdDevs float64) []float64 {
	if period <= 1 || len(closes) < period {
		return nil
	}
	out := make([]float64, len(closes))
	for i := period - 1; i < len(closes); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += closes[j]
		}
		mean := sum / float64(period)
		varSum := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			varSum += d * d
		}
		sd := math.Sqrt(varSum / float64(period))
		if mean != 0 {
			out[i] = 100 * (2 * stdDevs * sd) / mean
		}
	}
	return out
}

// PercentileRank returns the percentile (0..100) of the last value within the
// trailing window of non-zero values. With too few valid samples there is no
// meaningful rank, so the neutral midpoint 50 is returned.
func PercentileRank(series []float64, window int) float64 {
	if len(series) == 0 {
		return 50.0
	}
	start := len(series) - window
	if start < 0 {
		start = 0
	}
	last := series[len(series)-1]
	valid := 0
	below := 0
	for i := start; i < len(series); i++ {
		if series[i] == 0 {
			continue
		}
		valid++
		if series[i] <= last {
			below++
		}
	}
	if valid <= 10 {
		return 50.0
	}
	return 100 * float64(below) / float64(valid)
}

// RecentLow returns the lowest low of the last n candles.
func RecentLow(candles []models.Candle, n int) float64 {
	if len(candles) == 0 {
		return 0
	}
	start := len(candles) - n
	if start < 0 {
		start = 0
	}
	low := candles[start].Low
	for _, c := range candles[start+1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

// RecentHigh returns the highest high of the last n candles.
func RecentHigh(candles []models.Candle, n int) float64 {
	if len(candles) == 0 {
		return 0
	}
	start := len(candles) - n
	if start < 0 {
		start = 0
	}
	high := candles[start].High
	for _, c := range candles[start+1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high
}

// RangeEstimate returns half the high-low range of the last n candles, used
// as a crude ATR substitute when the real ATR is unavailable.
func RangeEstimate(candles []models.Candle, n int) float64 {
	if len(candles) == 0 {
		return 0
	}
	return (RecentHigh(candles, n) - RecentLow(candles, n)) / 2
}

func trueRanges(candles []models.Candle) []float64 {
	tr := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		tr[i] = math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
	}
	return tr
}

func wilderSmooth(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) <= period {
		return out
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += values[i]
	}
	out[period] = sum
	for i := period + 1; i < len(values); i++ {
		out[i] = out[i-1] - out[i-1]/float64(period) + values[i]
	}
	return out
}

func ratioToMean(series []float64, window int) float64 {
	last := series[len(series)-1]
	start := len(series) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	n := 0
	for i := start; i < len(series); i++ {
		if series[i] == 0 {
			continue
		}
		sum += series[i]
		n++
	}
	if n == 0 || sum == 0 {
		return 1.0
	}
	return last / (sum / float64(n))
}
