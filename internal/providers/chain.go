package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/go-fare-calendar/internal/criteria"
	"github.com/you/go-fare-calendar/internal/logging"
)

// ErrProviderTimeout is reported (and absorbed) when a provider exceeds the per-call budget.
var ErrProviderTimeout = errors.New("provider timed out")

// Chain asks providers in order and returns the first non-empty answer.
// Provider errors never reach the caller.
type Chain struct {
	providers []FlightProvider
	timeout   time.Duration
	log       zerolog.Logger
}

// NewChain keeps the given order. A zero timeout disables the per-call budget.
func NewChain(timeout time.Duration, providers ...FlightProvider) *Chain {
	return &Chain{
		providers: providers,
		timeout:   timeout,
		log:       logging.NewLogger("providers"),
	}
}

func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// DayFlights returns the first non-empty result, else the last result seen
// (possibly empty), else nil when every provider failed.
func (c *Chain) DayFlights(ctx context.Context, origin, destination, date string, crit criteria.Criteria) []RawFlight {
	var last []RawFlight

	for _, p := range c.providers {
		start := time.Now()
		flights, err := c.call(ctx, p, origin, destination, date, crit)
		ProviderDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			outcome := "error"
			if errors.Is(err, ErrProviderTimeout) {
				outcome = "timeout"
			}
			ProviderCalls.WithLabelValues(p.Name(), outcome).Inc()
			c.log.Warn().Err(err).
				Str("provider", p.Name()).
				Str("origin", origin).
				Str("destination", destination).
				Str("date", date).
				Msg("provider failed, trying next")
			continue
		}

		if len(flights) == 0 {
			ProviderCalls.WithLabelValues(p.Name(), "empty").Inc()
			c.log.Debug().Str("provider", p.Name()).Str("date", date).Msg("provider returned no flights")
			last = flights
			continue
		}

		ProviderCalls.WithLabelValues(p.Name(), "ok").Inc()
		c.log.Debug().Str("provider", p.Name()).Str("date", date).Int("flights", len(flights)).Msg("provider answered")
		return flights
	}

	return last
}

type callResult struct {
	flights []RawFlight
	err     error
}

// call runs one provider under the per-call timeout. A provider that ignores its
// context is abandoned; its goroutine finishes into a buffered channel.
func (c *Chain) call(ctx context.Context, p FlightProvider, origin, destination, date string, crit criteria.Criteria) ([]RawFlight, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("%s panicked: %v", p.Name(), r)}
			}
		}()
		fs, err := p.DayFlights(callCtx, origin, destination, date, crit)
		done <- callResult{flights: fs, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", p.Name(), ErrProviderTimeout)
		}
		return res.flights, res.err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s after %s: %w", p.Name(), c.timeout, ErrProviderTimeout)
		}
		return nil, fmt.Errorf("%s: %w", p.Name(), callCtx.Err())
	}
}
