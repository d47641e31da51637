package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/you/go-fare-calendar/internal/auth"
	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/logging"
	"github.com/you/go-fare-calendar/internal/service"
)

func NewRouter(svc *service.SearchService, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(corsHandler(cfg.CORSAllowedOrigins).Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", HealthHandler)
	r.Get("/api/ping", PingHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/login", auth.LoginHandler(cfg))

	interval := cfg.StreamInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	r.Group(func(r chi.Router) {
		if cfg.AuthRequired {
			r.Use(auth.Middleware(cfg))
		}
		r.Get("/search", SearchHandler(svc))
		r.Get("/calendar", CalendarHandler(svc))
		r.Get("/calendar/summary", CalendarSummaryHandler(svc))
		r.Get("/sse/{origin}/{destination}", SubscribeSSEHandler(svc, interval))
		r.Get("/ws/{origin}/{destination}", SubscribeWSHandler(svc, interval))
	})

	return r
}

// corsHandler answers browser preflights before routing, so OPTIONS needs no routes.
func corsHandler(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
}

func accessLog(next http.Handler) http.Handler {
	log := logging.NewLogger("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
