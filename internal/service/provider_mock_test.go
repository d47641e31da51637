package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/you/go-fare-calendar/internal/criteria"
	"github.com/you/go-fare-calendar/internal/providers"
)

type ProviderMock struct {
	name            string
	offers          []providers.RawFlight
	delay           time.Duration
	errorOutMessage *string
	callCount       *int32
}

func (p *ProviderMock) Name() string {
	return p.name
}

func (p *ProviderMock) DayFlights(ctx context.Context, o, d, dt string, c criteria.Criteria) ([]providers.RawFlight, error) {
	if p.callCount != nil {
		atomic.AddInt32(p.callCount, 1)
	}
	if p.errorOutMessage != nil {
		return nil, errors.New(p.Name() + ": " + *p.errorOutMessage)
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.offers, nil
}

func valToPtr[T any](param T) *T {
	return &param
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
