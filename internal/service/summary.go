package service

import (
	"context"
	"sort"

	"github.com/you/go-fare-calendar/internal/criteria"
)

// MonthSummary condenses a MonthMap for the calendar header.
type MonthSummary struct {
	Month         string   `json:"month"` // YYYY-MM
	CheapestDay   *string  `json:"cheapestDay"`
	CheapestPrice *int     `json:"cheapestPrice"`
	AvailableDays int      `json:"availableDays"`
	TotalDays     int      `json:"totalDays"`
	AverageMin    *float64 `json:"averageMin"`
}

// Summary reads the month through MonthMap, so it shares the CAL entry.
func (s *SearchService) Summary(ctx context.Context, origin, destination, month string, c criteria.Criteria) (MonthSummary, error) {
	m, err := s.MonthMap(ctx, origin, destination, month, c)
	if err != nil {
		return MonthSummary{}, err
	}
	return Summarize(month, m), nil
}

// Summarize picks the earliest of the cheapest days and averages the available minimums.
func Summarize(month string, m MonthMap) MonthSummary {
	days := make([]string, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Strings(days)

	out := MonthSummary{Month: month, TotalDays: len(days)}
	sum := 0
	for _, d := range days {
		e := m[d]
		if !e.Available || e.MinPrice == nil {
			continue
		}
		out.AvailableDays++
		sum += *e.MinPrice
		if out.CheapestPrice == nil || *e.MinPrice < *out.CheapestPrice {
			day, price := d, *e.MinPrice
			out.CheapestDay, out.CheapestPrice = &day, &price
		}
	}
	if out.AvailableDays > 0 {
		avg := round2(float64(sum) / float64(out.AvailableDays))
		out.AverageMin = &avg
	}
	return out
}

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
