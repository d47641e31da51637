package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/you/go-fare-calendar/internal/criteria"
)

type stubProvider struct {
	name      string
	flights   []RawFlight
	err       error
	delay     time.Duration
	ignoreCtx bool
	panicMsg  string
	calls     atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) DayFlights(ctx context.Context, _, _, _ string, _ criteria.Criteria) ([]RawFlight, error) {
	s.calls.Add(1)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 {
		if s.ignoreCtx {
			time.Sleep(s.delay)
		} else {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.flights, nil
}

var errUpstream = errors.New("upstream down")

func raw(price string) RawFlight { return RawFlight{Price: price} }
