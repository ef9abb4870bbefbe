package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions      *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	riskMultiplier *prometheus.GaugeVec
	activeBlocks   prometheus.Gauge
	messagesSent   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldgate_decisions_total",
				Help: "Decisions emitted per timeframe and outcome",
			},
			[]string{"timeframe", "decision"},
		),
		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldgate_rejections_total",
				Help: "NO_TRADE decisions by rejection code",
			},
			[]string{"code"},
		),
		riskMultiplier: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldgate_risk_multiplier",
				Help: "Combined risk multiplier of the latest cycle",
			},
			[]string{"timeframe"},
		),
		activeBlocks: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "goldgate_news_active_blocks",
				Help: "High-impact news cooldown windows currently held",
			},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldgate_messages_sent_total",
				Help: "Total number of audit records sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldgate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldgate_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goldgate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision counts a finished per-timeframe decision.
func (r *Recorder) RecordDecision(timeframe, decision string) {
	r.decisions.WithLabelValues(timeframe, decision).Inc()
}

// RecordRejection counts a NO_TRADE by its rejection code.
func (r *Recorder) RecordRejection(code string) {
	r.rejections.WithLabelValues(code).Inc()
}

// RecordRiskMultiplier publishes the combined multiplier for a timeframe.
func (r *Recorder) RecordRiskMultiplier(timeframe string, m float64) {
	r.riskMultiplier.WithLabelValues(timeframe).Set(m)
}

// RecordActiveBlocks publishes the count of held news cooldown windows.
func (r *Recorder) RecordActiveBlocks(n int) {
	r.activeBlocks.Set(float64(n))
}

// RecordMessageSent records an audit record sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
