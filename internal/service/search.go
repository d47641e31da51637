package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/you/go-fare-calendar/internal/cache"
	"github.com/you/go-fare-calendar/internal/criteria"
	"github.com/you/go-fare-calendar/internal/flights"
	"github.com/you/go-fare-calendar/internal/logging"
	"github.com/you/go-fare-calendar/internal/providers"
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")
	ErrInvalidRoute = errors.New("origin and destination must be 3-letter codes")
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	routeRe = regexp.MustCompile(`^[A-Z]{3}$`)
)

// DayEntry is one calendar cell. Available is true iff MinPrice is set.
type DayEntry struct {
	MinPrice  *int `json:"prix"`
	Available bool `json:"disponible"`
}

// MonthMap is keyed by YYYY-MM-DD and holds every day of the month.
type MonthMap map[string]DayEntry

// FlightSource is what the aggregators need from the provider chain.
type FlightSource interface {
	DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) []providers.RawFlight
}

type Options struct {
	DayTTL          time.Duration
	CalendarTTL     time.Duration
	CalendarWorkers int
}

// SearchService answers day searches and month calendars from one per-day cache
// entry, so a day's minimum is the same on both paths.
type SearchService struct {
	source  FlightSource
	cache   *cache.Store
	dayTTL  time.Duration
	calTTL  time.Duration
	workers int
	log     zerolog.Logger
}

func NewSearchService(source FlightSource, store *cache.Store, opts Options) *SearchService {
	if opts.DayTTL <= 0 {
		opts.DayTTL = cache.DefaultDayTTL
	}
	if opts.CalendarTTL <= 0 {
		opts.CalendarTTL = cache.DefaultCalendarTTL
	}
	if opts.CalendarWorkers < 1 {
		opts.CalendarWorkers = 1
	}
	return &SearchService{
		source:  source,
		cache:   store,
		dayTTL:  opts.DayTTL,
		calTTL:  opts.CalendarTTL,
		workers: opts.CalendarWorkers,
		log:     logging.NewLogger("service"),
	}
}

// Search is the day-search entry point. A freshly computed day patches the
// cached month that covers it.
func (s *SearchService) Search(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]flights.Flight, error) {
	fs, fresh, err := s.DayFlights(ctx, origin, destination, date, c)
	if err != nil {
		return nil, err
	}
	if fresh {
		s.ApplyDayMinUpdate(origin, destination, date, c, flights.MinPrice(fs))
	}
	return slices.Clone(fs), nil
}

// DayFlights returns the day's valid flights sorted by ascending price, reading
// through the DAY cache entry. fresh reports whether providers were asked.
// The returned slice is owned by the cache and must not be modified.
func (s *SearchService) DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]flights.Flight, bool, error) {
	origin, destination, err := route(origin, destination)
	if err != nil {
		return nil, false, err
	}
	if _, err := parseDate(date); err != nil {
		return nil, false, err
	}

	key := cache.DayKey(origin, destination, date, c)
	if fs, ok := cache.Lookup[[]flights.Flight](s.cache, key); ok {
		return fs, false, nil
	}

	raws := s.source.DayFlights(ctx, origin, destination, date, c)
	if err := ctx.Err(); err != nil {
		// an aborted request must not pin an empty day in the cache
		return nil, false, err
	}

	fs := flights.NormalizeAll(raws)
	s.cache.Set(key, fs, s.dayTTL)
	DayComputations.Inc()

	ev := s.log.Info().
		Str("origin", origin).
		Str("destination", destination).
		Str("date", date).
		Int("flights", len(fs))
	if lowest := flights.MinPrice(fs); lowest != nil {
		ev = ev.Int("min_price", *lowest)
	}
	ev.Msg("day computed")

	return fs, true, nil
}

// MonthMap returns one entry per day of month, reading through the CAL cache entry.
// On a miss every day goes through DayFlights, fanned out over a bounded pool.
func (s *SearchService) MonthMap(ctx context.Context, origin, destination, month string, c criteria.Criteria) (MonthMap, error) {
	origin, destination, err := route(origin, destination)
	if err != nil {
		return nil, err
	}
	days, err := DaysOfMonth(month)
	if err != nil {
		return nil, err
	}

	key := cache.CalendarKey(origin, destination, month, c)
	if m, ok := cache.Lookup[MonthMap](s.cache, key); ok {
		return maps.Clone(m), nil
	}

	start := time.Now()
	entries := make([]DayEntry, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			fs, _, err := s.DayFlights(gctx, origin, destination, day, c)
			if err != nil {
				return fmt.Errorf("day %s: %w", day, err)
			}
			lowest := flights.MinPrice(fs)
			entries[i] = DayEntry{MinPrice: lowest, Available: lowest != nil}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := make(MonthMap, len(days))
	available := 0
	for i, day := range days {
		m[day] = entries[i]
		if entries[i].Available {
			available++
		}
	}
	s.cache.Set(key, m, s.calTTL)
	CalendarBuilds.Inc()

	s.log.Info().
		Str("origin", origin).
		Str("destination", destination).
		Str("month", month).
		Int("available_days", available).
		Dur("duration", time.Since(start)).
		Msg("calendar built")

	return maps.Clone(m), nil
}

// ApplyDayMinUpdate rewrites one day of the cached month covering date when its
// minimum changed. Nothing happens if that month is not cached. Concurrent
// patches of the same month are last-write-wins.
func (s *SearchService) ApplyDayMinUpdate(origin, destination, date string, c criteria.Criteria, newMin *int) bool {
	if _, err := parseDate(date); err != nil {
		return false
	}
	origin, destination, err := route(origin, destination)
	if err != nil {
		return false
	}
	month := date[:7]
	key := cache.CalendarKey(origin, destination, month, c)

	m, ok := cache.Lookup[MonthMap](s.cache, key)
	if !ok {
		return false
	}
	if cur, present := m[date]; present && samePrice(cur.MinPrice, newMin) {
		return false
	}

	patched := maps.Clone(m)
	patched[date] = DayEntry{MinPrice: copyInt(newMin), Available: newMin != nil}
	s.cache.Set(key, patched, s.calTTL)
	CrossTierPatches.Inc()

	ev := s.log.Info().
		Str("origin", origin).
		Str("destination", destination).
		Str("date", date)
	if newMin != nil {
		ev = ev.Int("min_price", *newMin)
	}
	ev.Msg("calendar day patched")
	return true
}

// DaysOfMonth lists YYYY-MM-DD for every day of a YYYY-MM month.
func DaysOfMonth(month string) ([]string, error) {
	if !monthRe.MatchString(month) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	n := first.AddDate(0, 1, -1).Day()
	days := make([]string, n)
	for i := range days {
		days[i] = first.AddDate(0, 0, i).Format(time.DateOnly)
	}
	return days, nil
}

func parseDate(date string) (time.Time, error) {
	if !dateRe.MatchString(date) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

func route(origin, destination string) (string, string, error) {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	destination = strings.ToUpper(strings.TrimSpace(destination))
	if !routeRe.MatchString(origin) || !routeRe.MatchString(destination) {
		return "", "", fmt.Errorf("%w: %q-%q", ErrInvalidRoute, origin, destination)
	}
	return origin, destination, nil
}

func samePrice(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
