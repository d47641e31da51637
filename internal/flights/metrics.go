package flights

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DroppedFlights counts provider records rejected for an unusable price
var DroppedFlights = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "fare_flights_dropped_total",
		Help: "Total number of provider flight records dropped during normalization",
	},
)
