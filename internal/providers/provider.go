package providers

import (
	"context"

	"github.com/you/go-fare-calendar/internal/criteria"
)

// RawFlight is the one shape every adapter produces. Price stays textual so the
// normalizer owns sanitizing it; nil pointers mean the upstream did not say.
type RawFlight struct {
	Price           string
	Carrier         string
	Stops           *int
	DepartISO       string
	ArriveISO       string
	DurationMinutes *int
	DurationISO     string
	UMOk            *bool
	PetOk           *bool
}

type FlightProvider interface {
	Name() string
	DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]RawFlight, error)
}

func intPtr(n int) *int { return &n }
