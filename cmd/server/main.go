package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/you/go-fare-calendar/internal/cache"
	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/httpx"
	"github.com/you/go-fare-calendar/internal/logging"
	"github.com/you/go-fare-calendar/internal/providers"
	"github.com/you/go-fare-calendar/internal/service"
)

func main() {

	// Loading config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: os.Stderr})

	// One store and one provider chain for the whole process
	store := cache.NewStore()
	chain := providers.Build(cfg)

	searchSvc := service.NewSearchService(chain, store, service.Options{
		DayTTL:          cfg.DayTTL,
		CalendarTTL:     cfg.CalendarTTL,
		CalendarWorkers: cfg.CalendarWorkers,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpx.NewRouter(searchSvc, cfg),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Running http server on a secondary goroutine
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Dur("ttl_day", cfg.DayTTL).
			Dur("ttl_calendar", cfg.CalendarTTL).
			Bool("auth_required", cfg.AuthRequired).
			Msg("server listening")

		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			log.Info().Msg("TLS enabled")
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
