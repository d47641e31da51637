package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/you/go-fare-calendar/internal/criteria"
)

const lcgMask = 0x7FFFFFFFFFFFFFFF

var syntheticCarriers = []string{"AF", "VY", "U2", "IB", "TO", "HV", "V7", "TO", "HV"}

// Synthetic fabricates a deterministic flight list from (route, date, criteria).
// It needs no network and is always registered last in the chain.
type Synthetic struct{}

func NewSynthetic() *Synthetic { return &Synthetic{} }

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]RawFlight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("synthetic: bad date %q: %w", date, err)
	}

	seed := syntheticSeed(origin, destination, date, c)
	mul := PriceMultiplier(c)
	n := 5 + int(unit(seed+7)*6)

	out := make([]RawFlight, 0, n)
	for i := 0; i < n; i++ {
		s := seed + uint64(i)*97
		off := uint64(i)

		hour := 6 + int(unit(s+1000+off)*16)
		minute := int(unit(s+2000+off) * 60)
		duration := 50 + int(unit(s+3000+off)*270)

		depart := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
		arrive := depart.Add(time.Duration(duration) * time.Minute)

		stops := 0
		if !c.Direct && unit(s+11) >= 0.65 {
			stops = 1
		}

		price := (30.0 + 210.0*unit(s)) * mul
		price *= 0.95 + 0.1*unit(s+333)

		f := RawFlight{
			Price:           strconv.FormatFloat(math.Round(price*100)/100, 'f', 2, 64),
			Carrier:         syntheticCarriers[int(unit(s+500)*float64(len(syntheticCarriers)))],
			Stops:           intPtr(stops),
			DepartISO:       depart.UTC().Format(isoMillis),
			ArriveISO:       arrive.UTC().Format(isoMillis),
			DurationMinutes: intPtr(duration),
		}
		applyRules(&f)
		out = append(out, f)
	}
	return out, nil
}

const isoMillis = "2006-01-02T15:04:05.000Z"

// PriceMultiplier combines the fixed per-criterion factors.
func PriceMultiplier(c criteria.Criteria) float64 {
	m := 1.0

	switch c.Cabin {
	case criteria.CabinPremium:
		m *= 1.25
	case criteria.CabinBusiness:
		m *= 1.8
	case criteria.CabinFirst:
		m *= 2.4
	}

	m *= 1 + 0.12*float64(c.BagsChecked)
	m *= 1 + 0.05*float64(c.BagsCabin)

	if c.UM {
		m *= 1.08
	}
	if c.Pets {
		m *= 1.05
	}
	if c.Direct {
		m *= 1.07
	}
	if n := len(c.ChildrenAges); n > 0 {
		m *= math.Max(0.6, 1-0.15*float64(n))
	}
	if c.Infants > 0 {
		m *= math.Max(0.5, 1-0.45*float64(c.Infants))
	}
	if c.Resident {
		m *= 0.85
	}

	switch strings.ToLower(c.FareType) {
	case "basic":
		m *= 0.95
	case "flex":
		m *= 1.15
	}
	return m
}

func syntheticSeed(origin, destination, date string, c criteria.Criteria) uint64 {
	base := strings.Join([]string{strings.ToUpper(origin), strings.ToUpper(destination), date, c.Pairs()}, "|")
	sum := sha256.Sum256([]byte(base))
	return binary.BigEndian.Uint64(sum[:8])
}

func lcg(n uint64) uint64 {
	return (1103515245*n + 12345) & lcgMask
}

// unit maps n onto [0, 1).
func unit(n uint64) float64 {
	return float64(lcg(n)%10_000_000) / 10_000_000.0
}
