package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/criteria"
)

const amadeusOffers = `{
  "data": [
    {
      "price": {"total": "118.40", "grandTotal": "121.76"},
      "itineraries": [{
        "duration": "PT3H5M",
        "segments": [
          {"carrierCode": "IB", "departure": {"at": "2025-09-10T07:15:00"}, "arrival": {"at": "2025-09-10T08:40:00"}},
          {"carrierCode": "IB", "departure": {"at": "2025-09-10T09:10:00"}, "arrival": {"at": "2025-09-10T10:20:00"}}
        ]
      }]
    },
    {
      "price": {"total": "88.00"},
      "itineraries": [{
        "duration": "PT1H50M",
        "segments": [
          {"operating": {"carrierCode": "ZZ"}, "departure": {"at": "2025-09-10T18:00:00"}, "arrival": {"at": "2025-09-10T19:50:00"}}
        ]
      }]
    },
    {"price": {"total": "10"}, "itineraries": []}
  ]
}`

func newAmadeusServer(t *testing.T, tokenCalls *int32, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":1799}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		if check != nil {
			check(r)
		}
		_, _ = w.Write([]byte(amadeusOffers))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAmadeus_DayFlights(t *testing.T) {
	var tokenCalls int32
	srv := newAmadeusServer(t, &tokenCalls, func(r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "PAR", q.Get("originLocationCode"))
		require.Equal(t, "BCN", q.Get("destinationLocationCode"))
		require.Equal(t, "2025-09-10", q.Get("departureDate"))
		require.Equal(t, "2", q.Get("adults"))
		require.Equal(t, "1", q.Get("children"))
		require.Equal(t, "true", q.Get("nonStop"))
		require.Equal(t, "PREMIUM_ECONOMY", q.Get("travelClass"))
		require.Equal(t, "EUR", q.Get("currencyCode"))
	})

	a := NewAmadeus(&config.Config{AmadeusURL: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "secret"})
	c := criteria.Normalize(map[string]any{"adults": 2, "childrenAges": "1,7", "direct": true, "cabin": "premium_economy"})

	flights, err := a.DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", c)
	require.NoError(t, err)
	require.Len(t, flights, 2)

	first := flights[0]
	require.Equal(t, "121.76", first.Price)
	require.Equal(t, "IB", first.Carrier)
	require.Equal(t, 1, *first.Stops)
	require.Equal(t, "2025-09-10T07:15:00Z", first.DepartISO)
	require.Equal(t, "2025-09-10T10:20:00Z", first.ArriveISO)
	require.Equal(t, "PT3H5M", first.DurationISO)
	require.False(t, *first.UMOk)
	require.True(t, *first.PetOk)

	second := flights[1]
	require.Equal(t, "88.00", second.Price)
	require.Equal(t, "ZZ", second.Carrier)
	require.Equal(t, 0, *second.Stops)
	require.Nil(t, second.UMOk)

	_, err = a.DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", c)
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls), "token must be reused until it expires")
}

func TestAmadeus_MissingCredentials(t *testing.T) {
	a := NewAmadeus(&config.Config{AmadeusURL: "http://127.0.0.1:1"})
	_, err := a.DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", criteria.Default())
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAmadeus_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	a := NewAmadeus(&config.Config{AmadeusURL: srv.URL, AmadeusClientID: "id", AmadeusClientSecret: "secret"})
	_, err := a.DayFlights(context.Background(), "PAR", "BCN", "2025-09-10", criteria.Default())
	require.ErrorContains(t, err, "401")
}

func TestWithZone(t *testing.T) {
	require.Equal(t, "", withZone(""))
	require.Equal(t, "2025-09-10T07:15:00Z", withZone("2025-09-10T07:15:00"))
	require.Equal(t, "2025-09-10T07:15:00+02:00", withZone("2025-09-10T07:15:00+02:00"))
}
