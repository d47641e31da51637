package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/criteria"
)

type Duffel struct {
	host   string
	token  string
	client *http.Client
}

func NewDuffel(cfg *config.Config) *Duffel {
	return &Duffel{host: strings.TrimRight(cfg.DuffelHost, "/"),
		token:  cfg.DuffelToken,
		client: http.DefaultClient,
	}
}

func (d *Duffel) Name() string {
	return "duffel"
}

func (d *Duffel) configured() bool { return d.token != "" }

type duffelSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type duffelPassenger struct {
	Type string `json:"type,omitempty"`
	Age  *int   `json:"age,omitempty"`
}

type duffelOfferRequest struct {
	Slices         []duffelSlice     `json:"slices"`
	Passengers     []duffelPassenger `json:"passengers"`
	CabinClass     string            `json:"cabin_class,omitempty"`
	MaxConnections *int              `json:"max_connections,omitempty"`
}

type duffelOfferRequestEnvelope struct {
	Data duffelOfferRequest `json:"data"`
}

type duffelOffer struct {
	TotalAmount   string `json:"total_amount"`
	TotalCurrency string `json:"total_currency"`
	Owner         struct {
		IATACode string `json:"iata_code"`
	} `json:"owner"`
	Slices []struct {
		Duration string `json:"duration"` // PT2H10M
		Segments []struct {
			DepartingAt      string `json:"departing_at"`
			ArrivingAt       string `json:"arriving_at"`
			MarketingCarrier struct {
				IATACode string `json:"iata_code"`
			} `json:"marketing_carrier"`
		} `json:"segments"`
	} `json:"slices"`
}

type duffelOfferResp struct {
	Data struct {
		Offers []duffelOffer `json:"offers"`
	} `json:"data"`
}

var duffelCabins = map[criteria.Cabin]string{
	criteria.CabinEconomy:  "economy",
	criteria.CabinPremium:  "premium_economy",
	criteria.CabinBusiness: "business",
	criteria.CabinFirst:    "first",
}

func duffelRequest(origin, destination, date string, c criteria.Criteria) duffelOfferRequestEnvelope {
	passengers := make([]duffelPassenger, 0, c.Adults+len(c.ChildrenAges)+c.Infants)
	for i := 0; i < c.Adults; i++ {
		passengers = append(passengers, duffelPassenger{Type: "adult"})
	}
	for _, age := range c.ChildrenAges {
		passengers = append(passengers, duffelPassenger{Age: intPtr(age)})
	}
	for i := 0; i < c.Infants; i++ {
		passengers = append(passengers, duffelPassenger{Type: "infant_without_seat"})
	}

	req := duffelOfferRequest{
		Slices:     []duffelSlice{{Origin: origin, Destination: destination, DepartureDate: date}},
		Passengers: passengers,
		CabinClass: duffelCabins[c.Cabin],
	}
	if c.Direct {
		req.MaxConnections = intPtr(0)
	}
	return duffelOfferRequestEnvelope{Data: req}
}

func (d *Duffel) DayFlights(ctx context.Context, origin, destination, date string, c criteria.Criteria) ([]RawFlight, error) {
	if !d.configured() {
		return nil, fmt.Errorf("duffel: %w", ErrMissingCredentials)
	}

	b, err := json.Marshal(duffelRequest(origin, destination, date, c))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.host+"/air/offer_requests?return_offers=true", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Duffel-Version", "v2")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("duffel: %s", resp.Status)
	}

	var pr duffelOfferResp
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("duffel: %w", err)
	}

	out := make([]RawFlight, 0, len(pr.Data.Offers))
	for _, o := range pr.Data.Offers {
		if len(o.Slices) == 0 || len(o.Slices[0].Segments) == 0 {
			continue
		}
		sl := o.Slices[0]
		seg0 := sl.Segments[0]
		segn := sl.Segments[len(sl.Segments)-1]

		carrier := seg0.MarketingCarrier.IATACode
		if carrier == "" {
			carrier = o.Owner.IATACode
		}

		f := RawFlight{
			Price:       o.TotalAmount,
			Carrier:     carrier,
			Stops:       intPtr(len(sl.Segments) - 1),
			DepartISO:   withZone(seg0.DepartingAt),
			ArriveISO:   withZone(segn.ArrivingAt),
			DurationISO: sl.Duration,
		}
		applyRules(&f)
		out = append(out, f)
	}
	return out, nil
}
