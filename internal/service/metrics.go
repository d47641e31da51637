package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DayComputations counts day entries computed from providers (DAY cache fills)
	DayComputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fare_day_computations_total",
			Help: "Total number of day flight lists computed from providers",
		},
	)

	CalendarBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fare_calendar_builds_total",
			Help: "Total number of month maps built",
		},
	)

	// CrossTierPatches counts cached month maps rewritten after a fresh day search
	CrossTierPatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fare_cross_tier_patches_total",
			Help: "Total number of cached month entries patched from a day search",
		},
	)
)
