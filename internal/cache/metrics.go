package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks hits by tier (DAY, CAL)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_cache_hits_total",
			Help: "Total number of fare cache hits",
		},
		[]string{"tier"},
	)

	// CacheMisses counts absent keys and wrong-typed values
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_cache_misses_total",
			Help: "Total number of fare cache misses",
		},
		[]string{"tier"},
	)

	// CacheExpired counts entries purged lazily on read
	CacheExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_cache_expired_total",
			Help: "Total number of expired fare cache entries purged on read",
		},
		[]string{"tier"},
	)

	CacheSets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_cache_sets_total",
			Help: "Total number of fare cache writes",
		},
		[]string{"tier"},
	)

	// CacheEntries is the number of live or not yet purged entries
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fare_cache_entries",
			Help: "Current number of entries held by the fare cache",
		},
	)
)
