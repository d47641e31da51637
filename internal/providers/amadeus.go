package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/criteria"
)

var ErrMissingCredentials = errors.New("credentials missing")

type Amadeus struct {
	host       string
	authPath   string
	searchPath string
	client     *http.Client
	id         string
	secret     string
	mu         sync.Mutex
	tok        string
	expires    time.Time
}

func NewAmadeus(cfg *config.Config) *Amadeus {
	return &Amadeus{host: strings.TrimRight(cfg.AmadeusURL, "/"),
		authPath:   "/v1/security/oauth2/token",
		searchPath: "/v2/shopping/flight-offers",
		id:         cfg.AmadeusClientID,
		secret:     cfg.AmadeusClientSecret,
		client:     http.DefaultClient,
	}
}

func (a *Amadeus) Name() string { return "amadeus" }

func (a *Amadeus) configured() bool { return a.id != "" && a.secret != "" }

// token returns the cached bearer token, refreshing it 10s before expiry.
func (a *Amadeus) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tok != "" && time.Now().Before(a.expires.Add(-10*time.Second)) {
		return a.tok, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", a.id)
	data.Set("client_secret", a.secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+a.authPath, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("amadeus token: %s", resp.Status)
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("amadeus token: %w", err)
	}
	a.tok = tr.AccessToken
	a.expires = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return a.tok, nil
}

var amadeusCabins = map[criteria.Cabin]string{
	criteria.CabinEconomy:  "ECONOMY",
	criteria.CabinPremium:  "PREMIUM_ECONOMY",
	criteria.CabinBusiness: "BUSINESS",
	criteria.CabinFirst:    "FIRST",
}

func (a *Amadeus) DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]RawFlight, error) {
	if !a.configured() {
		return nil, fmt.Errorf("amadeus: %w", ErrMissingCredentials)
	}
	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("originLocationCode", origin)
	q.Set("destinationLocationCode", destination)
	q.Set("departureDate", date)
	q.Set("adults", strconv.Itoa(c.Adults))
	if n := c.Children(); n > 0 {
		q.Set("children", strconv.Itoa(n))
	}
	if c.Infants > 0 {
		q.Set("infants", strconv.Itoa(c.Infants))
	}
	if c.Direct {
		q.Set("nonStop", "true")
	}
	if class, ok := amadeusCabins[c.Cabin]; ok {
		q.Set("travelClass", class)
	}
	q.Set("currencyCode", c.Currency)
	q.Set("max", "50")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.host+a.searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus search: %s", resp.Status)
	}

	var payload struct {
		Data []struct {
			Price struct {
				GrandTotal string `json:"grandTotal"`
				Total      string `json:"total"`
			} `json:"price"`
			Itineraries []struct {
				Duration string `json:"duration"` // PT2H10M
				Segments []struct {
					CarrierCode string `json:"carrierCode"`
					Operating   struct {
						CarrierCode string `json:"carrierCode"`
					} `json:"operating"`
					Departure struct {
						At string `json:"at"`
					} `json:"departure"`
					Arrival struct {
						At string `json:"at"`
					} `json:"arrival"`
				} `json:"segments"`
			} `json:"itineraries"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("amadeus search: %w", err)
	}

	out := make([]RawFlight, 0, len(payload.Data))
	for _, d := range payload.Data {
		if len(d.Itineraries) == 0 || len(d.Itineraries[0].Segments) == 0 {
			continue
		}
		it := d.Itineraries[0]
		first := it.Segments[0]
		last := it.Segments[len(it.Segments)-1]

		price := d.Price.GrandTotal
		if price == "" {
			price = d.Price.Total
		}
		carrier := first.CarrierCode
		if carrier == "" {
			carrier = first.Operating.CarrierCode
		}

		f := RawFlight{
			Price:       price,
			Carrier:     carrier,
			Stops:       intPtr(len(it.Segments) - 1),
			DepartISO:   withZone(first.Departure.At),
			ArriveISO:   withZone(last.Arrival.At),
			DurationISO: it.Duration,
		}
		applyRules(&f)
		out = append(out, f)
	}
	return out, nil
}

// withZone marks Amadeus' zone-less local timestamps as UTC so they parse as RFC 3339.
func withZone(at string) string {
	if at == "" {
		return ""
	}
	if _, err := time.Parse(time.RFC3339, at); err == nil {
		return at
	}
	return at + "Z"
}
