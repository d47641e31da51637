package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderCalls counts provider calls by outcome (ok, empty, error, timeout)
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_provider_calls_total",
			Help: "Total number of flight provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fare_provider_call_duration_seconds",
			Help:    "Duration of flight provider calls",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
)
