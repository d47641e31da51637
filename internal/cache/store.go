// Package cache holds the process-wide, in-memory TTL store shared by the day and
// calendar tiers, plus the key derivation for both tiers.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/go-fare-calendar/internal/logging"
)

// MinTTL is the shortest lifetime an entry can be given.
const MinTTL = time.Second

const (
	DefaultDayTTL      = 15 * time.Minute
	DefaultCalendarTTL = 30 * time.Minute
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a concurrency-safe key/value map with per-entry expiry. Expired entries
// are purged when they are read; there is no background sweeper and no size bound.
// A Get followed by a Set is not atomic: concurrent writers to one key are last-write-wins.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
		log:     logging.NewLogger("cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key if it has not expired.
func (s *Store) Get(key string) (any, bool) {
	tier := Tier(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(tier).Inc()
		s.log.Debug().Str("key", logging.TruncateKey(key)).Msg("cache MISS")
		return nil, false
	}

	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		// the entry may have been replaced between the two locks
		if cur, still := s.entries[key]; still && !s.now().Before(cur.expiresAt) {
			delete(s.entries, key)
			CacheEntries.Dec()
		}
		s.mu.Unlock()

		CacheExpired.WithLabelValues(tier).Inc()
		CacheMisses.WithLabelValues(tier).Inc()
		s.log.Debug().Str("key", logging.TruncateKey(key)).Msg("cache EXPIRED")
		return nil, false
	}

	CacheHits.WithLabelValues(tier).Inc()
	s.log.Debug().Str("key", logging.TruncateKey(key)).Msg("cache HIT")
	return e.value, true
}

// Set inserts or replaces key with expiry now+max(MinTTL, ttl).
func (s *Store) Set(key string, value any, ttl time.Duration) {
	ttl = clampTTL(ttl)

	s.mu.Lock()
	if _, exists := s.entries[key]; !exists {
		CacheEntries.Inc()
	}
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()

	CacheSets.WithLabelValues(Tier(key)).Inc()
	s.log.Debug().Str("key", logging.TruncateKey(key)).Dur("ttl", ttl).Msg("cache SET")
}

// Touch extends the expiry of a live entry. Absent or expired keys are left alone.
func (s *Store) Touch(key string, ttl time.Duration) bool {
	ttl = clampTTL(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return false
	}
	e.expiresAt = s.now().Add(ttl)
	s.entries[key] = e
	return true
}

// Len counts stored entries, including expired ones not yet purged.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Tier is the namespace tag of a key ("DAY", "CAL"), used as a metric label.
func Tier(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// Lookup is Get plus a type assertion. A value of another type counts as a miss.
func Lookup[T any](s *Store, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		s.log.Warn().Str("key", logging.TruncateKey(key)).Msgf("cache value has type %T, treating as miss", v)
		return zero, false
	}
	return t, true
}
