package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/criteria"
)

func TestDuffel_DayFlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/air/offer_requests", r.URL.Path)
		require.Equal(t, "Bearer duffel-token", r.Header.Get("Authorization"))
		require.Equal(t, "v2", r.Header.Get("Duffel-Version"))

		var body duffelOfferRequestEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "business", body.Data.CabinClass)
		require.NotNil(t, body.Data.MaxConnections)
		require.Equal(t, 0, *body.Data.MaxConnections)
		require.Len(t, body.Data.Passengers, 3)
		require.Equal(t, "adult", body.Data.Passengers[0].Type)
		require.Equal(t, 6, *body.Data.Passengers[1].Age)
		require.Equal(t, "infant_without_seat", body.Data.Passengers[2].Type)

		_, _ = w.Write([]byte(`{"data":{"offers":[
		  {"total_amount":"143.20","total_currency":"EUR","owner":{"iata_code":"VY"},
		   "slices":[{"duration":"PT1H45M","segments":[
		     {"departing_at":"2025-09-10T10:00:00","arriving_at":"2025-09-10T11:45:00","marketing_carrier":{"iata_code":""}}
		   ]}]},
		  {"total_amount":"1","slices":[]}
		]}}`))
	}))
	t.Cleanup(srv.Close)

	d := NewDuffel(&config.Config{DuffelHost: srv.URL, DuffelToken: "duffel-token"})
	c := criteria.Normalize(map[string]any{"cabin": "business", "direct": "1", "childrenAges": "6", "infants": 1})

	flights, err := d.DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", c)
	require.NoError(t, err)
	require.Len(t, flights, 1)

	f := flights[0]
	require.Equal(t, "143.20", f.Price)
	require.Equal(t, "VY", f.Carrier)
	require.Equal(t, 0, *f.Stops)
	require.Equal(t, "2025-09-10T10:00:00Z", f.DepartISO)
	require.Equal(t, "PT1H45M", f.DurationISO)
	require.True(t, *f.UMOk)
	require.False(t, *f.PetOk)
}

func TestDuffel_RequestDefaults(t *testing.T) {
	env := duffelRequest("PAR", "BCN", "2025-09-10", criteria.Default())
	require.Equal(t, "economy", env.Data.CabinClass)

	unknown := duffelRequest("PAR", "BCN", "2025-09-10", criteria.Normalize(map[string]any{"cabin": "spaceship"}))
	require.Empty(t, unknown.Data.CabinClass)
	require.Nil(t, env.Data.MaxConnections)
	require.Equal(t, []duffelPassenger{{Type: "adult"}}, env.Data.Passengers)
}

func TestDuffel_Errors(t *testing.T) {
	_, err := NewDuffel(&config.Config{}).DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", criteria.Default())
	require.ErrorIs(t, err, ErrMissingCredentials)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	t.Cleanup(srv.Close)

	_, err = NewDuffel(&config.Config{DuffelHost: srv.URL, DuffelToken: "x"}).
		DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", criteria.Default())
	require.Error(t, err)
}
