package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    ProviderLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "macropull",
            Subsystem: "provider",
            Name:      "latency_seconds",
            Help:      "Latency of upstream data provider calls",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"provider"},
    )

    ProviderErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "macropull",
            Subsystem: "provider",
            Name:      "errors_total",
            Help:      "Failed upstream data provider calls",
        },
        []string{"provider"},
    )

    ProviderCacheHits = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "macropull",
            Subsystem: "provider",
            Name:      "cache_hits_total",
            Help:      "Provider payloads served from cache",
        },
        []string{"provider"},
    )
)

// Register adds the provider collectors to the default registry once.
func Register() {
    once.Do(func() {
        prometheus.MustRegister(ProviderLatency, ProviderErrors, ProviderCacheHits)
    })
}
