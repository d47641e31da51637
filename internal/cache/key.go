package cache

import (
	"strings"

	"github.com/you/go-fare-calendar/internal/criteria"
)

const (
	TagDay      = "DAY"
	TagCalendar = "CAL"
)

// Key builds TAG:ORIGIN:DESTINATION:PERIOD:<sha256 of the criteria>.
func Key(tag, origin, destination, period string, c criteria.Criteria) string {
	return strings.Join([]string{
		tag,
		strings.ToUpper(strings.TrimSpace(origin)),
		strings.ToUpper(strings.TrimSpace(destination)),
		period,
		c.Hash(),
	}, ":")
}

// DayKey addresses the flight list of one day, date being YYYY-MM-DD.
func DayKey(origin, destination, date string, c criteria.Criteria) string {
	return Key(TagDay, origin, destination, date, c)
}

// CalendarKey addresses the month map, month being YYYY-MM.
func CalendarKey(origin, destination, month string, c criteria.Criteria) string {
	return Key(TagCalendar, origin, destination, month, c)
}
