package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    APILatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "goldgate",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of decision API endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    APIErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "goldgate",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by decision API endpoint",
        },
        []string{"endpoint"},
    )

    APIRateLimited = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "goldgate",
            Subsystem: "api",
            Name:      "rate_limited_total",
            Help:      "Requests rejected by the per-client rate limiter",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(APILatency, APIErrors, APIRateLimited)
    })
}
