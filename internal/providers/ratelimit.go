package providers

import (
	"context"
	"sync"
	"time"

	"github.com/you/go-fare-calendar/internal/criteria"
)

type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

// Wait blocks until interval has passed since the previous call or ctx ends.
func (r *rateLimiter) Wait(ctx context.Context) error {
	if r.interval <= 0 {
		return nil
	}
	for {
		now := time.Now()
		r.mu.Lock()
		if r.last.IsZero() || now.Sub(r.last) >= r.interval {
			r.last = now
			r.mu.Unlock()
			return nil
		}
		wait := r.interval - now.Sub(r.last)
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type rateLimitedProvider struct {
	provider FlightProvider
	limiter  *rateLimiter
}

// RateLimited spaces calls to p at least interval apart. interval <= 0 returns p unchanged.
func RateLimited(p FlightProvider, interval time.Duration) FlightProvider {
	if interval <= 0 {
		return p
	}
	return &rateLimitedProvider{provider: p, limiter: newRateLimiter(interval)}
}

func (r *rateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *rateLimitedProvider) DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]RawFlight, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.DayFlights(ctx, origin, destination, date, c)
}
