package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/criteria"
)

type RapidBooking struct {
	base        *url.URL
	path        string
	rapidAPIKey string
	client      *http.Client
}

// NewRapidBooking accepts either a bare RapidAPI host or a full base URL.
func NewRapidBooking(cfg *config.Config) *RapidBooking {
	host := strings.TrimRight(cfg.RapidBookingHost, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		base = &url.URL{Scheme: "https", Host: cfg.RapidBookingHost}
	}
	return &RapidBooking{base: base,
		path:        "/api/v1/flights/searchFlights",
		rapidAPIKey: cfg.RapidBookingRapidAPIKey,
		client:      http.DefaultClient,
	}
}

func (r *RapidBooking) Name() string {
	return "rapid_booking"
}

func (r *RapidBooking) configured() bool { return r.rapidAPIKey != "" }

var rapidCabins = map[criteria.Cabin]string{
	criteria.CabinEconomy:  "ECONOMY",
	criteria.CabinPremium:  "PREMIUM_ECONOMY",
	criteria.CabinBusiness: "BUSINESS",
	criteria.CabinFirst:    "FIRST",
}

func (r *RapidBooking) DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]RawFlight, error) {
	if !r.configured() {
		return nil, fmt.Errorf("rapid booking: %w", ErrMissingCredentials)
	}

	u := *r.base
	u.Path = r.path
	q := url.Values{}
	// Rapid requires the ".AIRPORT" suffix
	q.Set("fromId", origin+".AIRPORT")
	q.Set("toId", destination+".AIRPORT")
	q.Set("departDate", date)
	q.Set("pageNo", "1")
	q.Set("adults", strconv.Itoa(c.Adults))
	if len(c.ChildrenAges) > 0 {
		q.Set("children", joinAges(c.ChildrenAges))
	}
	if c.Direct {
		q.Set("stops", "0")
	}
	if class, ok := rapidCabins[c.Cabin]; ok {
		q.Set("cabinClass", class)
	}
	q.Set("sort", "CHEAPEST")
	q.Set("currency_code", c.Currency)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", r.rapidAPIKey)
	req.Header.Set("X-RapidAPI-Host", r.base.Host)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rapid booking: %s", resp.Status)
	}

	var payload struct {
		Data struct {
			FlightOffers []struct {
				Segments []struct {
					DepartureTime string `json:"departureTime"`
					ArrivalTime   string `json:"arrivalTime"`
					TotalTime     int    `json:"totalTime"` // seconds
					Legs          []struct {
						CarriersData []struct {
							Code string `json:"code"`
						} `json:"carriersData"`
					} `json:"legs"`
				} `json:"segments"`
				PriceBreakdown struct {
					Total struct {
						CurrencyCode string `json:"currencyCode"`
						Units        int64  `json:"units"`
						Nanos        int64  `json:"nanos"`
					} `json:"total"`
				} `json:"priceBreakdown"`
			} `json:"flightOffers"`
		} `json:"data"`
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("rapid booking: %w", err)
	}
	if !payload.Status {
		return nil, fmt.Errorf("rapid booking: %s", payload.Message)
	}

	out := make([]RawFlight, 0, len(payload.Data.FlightOffers))
	for _, fo := range payload.Data.FlightOffers {
		if len(fo.Segments) == 0 {
			continue
		}
		seg := fo.Segments[0]

		total := float64(fo.PriceBreakdown.Total.Units) + float64(fo.PriceBreakdown.Total.Nanos)/1e9
		f := RawFlight{
			Price:     strconv.FormatFloat(total, 'f', 2, 64),
			DepartISO: withZone(seg.DepartureTime),
			ArriveISO: withZone(seg.ArrivalTime),
		}
		if len(seg.Legs) > 0 {
			f.Stops = intPtr(len(seg.Legs) - 1)
			if cd := seg.Legs[0].CarriersData; len(cd) > 0 {
				f.Carrier = cd[0].Code
			}
		}
		if mins := seg.TotalTime / 60; mins > 0 {
			f.DurationMinutes = intPtr(mins)
		}
		applyRules(&f)
		out = append(out, f)
	}

	return out, nil
}

func joinAges(ages []int) string {
	parts := make([]string, len(ages))
	for i, a := range ages {
		parts[i] = strconv.Itoa(a)
	}
	return strings.Join(parts, ",")
}
