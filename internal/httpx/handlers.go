package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/you/go-fare-calendar/internal/criteria"
	"github.com/you/go-fare-calendar/internal/flights"
	"github.com/you/go-fare-calendar/internal/logging"
	"github.com/you/go-fare-calendar/internal/service"
)

type searchResponse struct {
	Results []flights.Flight `json:"results"`
}

type calendarResponse struct {
	Calendar service.MonthMap `json:"calendar"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidMonth),
		errors.Is(err, service.ErrInvalidRoute):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// SearchHandler serves GET /search. Results are always price-ascending; the
// sort parameter is accepted and ignored.
func SearchHandler(svc *service.SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := criteria.FromQuery(r.URL.Query())
		res, err := svc.Search(r.Context(), c.Origin, c.Destination, r.URL.Query().Get("date"), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSearchResponse(res))
	}
}

func CalendarHandler(svc *service.SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := criteria.FromQuery(r.URL.Query())
		m, err := svc.MonthMap(r.Context(), c.Origin, c.Destination, r.URL.Query().Get("month"), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, calendarResponse{Calendar: m})
	}
}

func CalendarSummaryHandler(svc *service.SearchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := criteria.FromQuery(r.URL.Query())
		s, err := svc.Summary(r.Context(), c.Origin, c.Destination, r.URL.Query().Get("month"), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"pong": true})
}

func newSearchResponse(fs []flights.Flight) searchResponse {
	if fs == nil {
		fs = []flights.Flight{}
	}
	return searchResponse{Results: fs}
}

// streamCriteria takes the route from the path so streams share cache entries with /search.
func streamCriteria(r *http.Request) criteria.Criteria {
	q := url.Values{}
	for k, v := range r.URL.Query() {
		q[k] = v
	}
	q.Set(criteria.FieldOrigin, chi.URLParam(r, "origin"))
	q.Set(criteria.FieldDestination, chi.URLParam(r, "destination"))
	return criteria.FromQuery(q)
}

// SubscribeSSEHandler pushes the /search payload now and then every interval.
func SubscribeSSEHandler(svc *service.SearchService, interval time.Duration) http.HandlerFunc {
	log := logging.NewLogger("sse")
	return func(w http.ResponseWriter, r *http.Request) {
		c := streamCriteria(r)
		date := r.URL.Query().Get("date")
		ctx := r.Context()

		res, err := svc.Search(ctx, c.Origin, c.Destination, date, c)
		if err != nil {
			writeError(w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		updateTick := time.NewTicker(interval)
		defer updateTick.Stop()

		for {
			payload, _ := json.Marshal(newSearchResponse(res))
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", payload)
			flusher.Flush()

			select {
			case <-ctx.Done():
				log.Debug().Str("origin", c.Origin).Str("destination", c.Destination).Msg("SSE client closed")
				return
			case <-updateTick.C:
			}

			res, err = svc.Search(ctx, c.Origin, c.Destination, date, c)
			if err != nil {
				if ctx.Err() == nil {
					fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
					flusher.Flush()
				}
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SubscribeWSHandler is the WebSocket twin of SubscribeSSEHandler.
func SubscribeWSHandler(svc *service.SearchService, interval time.Duration) http.HandlerFunc {
	log := logging.NewLogger("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		c := streamCriteria(r)
		date := r.URL.Query().Get("date")

		res, err := svc.Search(r.Context(), c.Origin, c.Destination, date, c)
		if err != nil {
			writeError(w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("upgrade error")
			return
		}
		defer conn.Close()

		// the hijacked connection no longer cancels r.Context(); a read error means the client left
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := conn.WriteJSON(newSearchResponse(res)); err != nil {
				log.Debug().Err(err).Msg("write error")
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			res, err = svc.Search(ctx, c.Origin, c.Destination, date, c)
			if err != nil {
				_ = conn.WriteJSON(errorResponse{Error: err.Error()})
				return
			}
		}
	}
}
