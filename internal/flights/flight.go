// Package flights maps provider records onto the flight shape served to clients.
package flights

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/you/go-fare-calendar/internal/providers"
)

// Flight is the canonical record. JSON names are the public wire format.
type Flight struct {
	Price           int     `json:"prix"`
	Carrier         *string `json:"compagnie"`
	Stops           *int    `json:"escales"`
	UMOk            bool    `json:"um_ok"`
	PetOk           bool    `json:"animal_ok"`
	DepartISO       *string `json:"departISO"`
	ArriveISO       *string `json:"arriveeISO"`
	Duration        *string `json:"duree"`
	DurationMinutes *int    `json:"duree_minutes"`
}

// Normalize returns false when the price is unusable; the whole record is dropped then.
// UM and pet flags default to true when the provider is silent.
func Normalize(raw providers.RawFlight) (Flight, bool) {
	price, ok := SanitizePrice(raw.Price)
	if !ok {
		return Flight{}, false
	}

	f := Flight{
		Price:     price,
		Carrier:   optString(raw.Carrier),
		UMOk:      raw.UMOk == nil || *raw.UMOk,
		PetOk:     raw.PetOk == nil || *raw.PetOk,
		DepartISO: optString(raw.DepartISO),
		ArriveISO: optString(raw.ArriveISO),
	}
	if raw.Stops != nil && *raw.Stops >= 0 {
		stops := *raw.Stops
		f.Stops = &stops
	}

	if mins, ok := durationMinutes(raw); ok {
		f.DurationMinutes = &mins
		iso := FormatISODuration(mins)
		f.Duration = &iso
	}
	return f, true
}

// NormalizeAll drops invalid records and sorts by ascending price. The sort is
// stable so equal prices keep the provider's order.
func NormalizeAll(raws []providers.RawFlight) []Flight {
	out := make([]Flight, 0, len(raws))
	for _, r := range raws {
		f, ok := Normalize(r)
		if !ok {
			DroppedFlights.Inc()
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// MinPrice is the price of the cheapest flight, nil when there is none.
func MinPrice(fs []Flight) *int {
	if len(fs) == 0 {
		return nil
	}
	lowest := fs[0].Price
	for _, f := range fs[1:] {
		if f.Price < lowest {
			lowest = f.Price
		}
	}
	return &lowest
}

// SanitizePrice parses a decimal price and rounds it to the nearest unit.
// Unparseable, non-positive, NaN and infinite prices are rejected.
func SanitizePrice(s string) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	n := int(math.Round(v))
	if n <= 0 {
		// 0 < v < 0.5 would round to a free flight
		return 0, false
	}
	return n, true
}

// durationMinutes prefers the explicit minutes, then the ISO duration, then
// the gap between departure and arrival.
func durationMinutes(raw providers.RawFlight) (int, bool) {
	if raw.DurationMinutes != nil && *raw.DurationMinutes > 0 {
		return *raw.DurationMinutes, true
	}
	if mins, ok := ParseISODuration(raw.DurationISO); ok && mins > 0 {
		return mins, true
	}

	dep, err1 := parseInstant(raw.DepartISO)
	arr, err2 := parseInstant(raw.ArriveISO)
	if err1 != nil || err2 != nil || arr.Before(dep) {
		return 0, false
	}
	return max(1, int(arr.Sub(dep).Minutes())), true
}

// ParseISODuration reads "PTxHyM" style durations into minutes. Seconds are ignored.
func ParseISODuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "PT") {
		return 0, false
	}
	total, num, seen := 0, 0, false
	digits := false
	for _, r := range s[2:] {
		if r >= '0' && r <= '9' {
			num = num*10 + int(r-'0')
			digits = true
			continue
		}
		switch {
		case r == 'H' && digits:
			total += num * 60
			seen = true
		case r == 'M' && digits:
			total += num
			seen = true
		}
		num, digits = 0, false
	}
	return total, seen
}

// FormatISODuration renders minutes as "PTxHyM".
func FormatISODuration(mins int) string {
	return "PT" + strconv.Itoa(mins/60) + "H" + strconv.Itoa(mins%60) + "M"
}

func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
