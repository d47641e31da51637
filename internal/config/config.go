package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr  string
	TLSCertFile string
	TLSKeyFile  string

	// CORSAllowedOrigins may hold "*" or one wildcard per origin ("https://*.vercel.app").
	// An empty list allows every origin.
	CORSAllowedOrigins []string

	// Providers is the ordered list of upstream names, as configured.
	Providers         []string
	ProviderTimeout   time.Duration
	ProviderRateLimit time.Duration

	DayTTL          time.Duration
	CalendarTTL     time.Duration
	CalendarWorkers int
	StreamInterval  time.Duration

	LogLevel  string
	LogPretty bool

	JWTSecret    string
	JWTUser      string
	JWTPassword  string
	AuthRequired bool

	AmadeusURL              string
	AmadeusClientID         string
	AmadeusClientSecret     string
	DuffelHost              string
	DuffelToken             string
	RapidBookingHost        string
	RapidBookingRapidAPIKey string
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cors_allowed_origins", "http://localhost:3000,http://localhost:3001,https://*.vercel.app")
	v.SetDefault("providers", "synthetic")
	v.SetDefault("provider_timeout", "10s")
	v.SetDefault("provider_rate_limit", "0s")
	v.SetDefault("cache_ttl_day", "15m")
	v.SetDefault("cache_ttl_calendar", "30m")
	v.SetDefault("calendar_workers", 4)
	v.SetDefault("stream_interval", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	v.SetDefault("auth_user", "demo")
	v.SetDefault("auth_pass", "demo123")
	v.SetDefault("auth_required", false)

	v.SetDefault("amadeus_url", "https://test.api.amadeus.com")
	v.SetDefault("duffel_host", "https://api.duffel.com")
	v.SetDefault("rapid_booking_host", "booking-com15.p.rapidapi.com")

	if path := os.Getenv("FLIGHTS_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/flights")
	}

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("no config file found, using defaults + env vars")
	}

	v.AutomaticEnv()

	timeout, err := parseDuration(v.GetString("provider_timeout"))
	if err != nil {
		return nil, fmt.Errorf("bad provider_timeout: %w", err)
	}
	rateLimit, err := parseDuration(v.GetString("provider_rate_limit"))
	if err != nil {
		return nil, fmt.Errorf("bad provider_rate_limit: %w", err)
	}
	dayTTL, err := parseDuration(v.GetString("cache_ttl_day"))
	if err != nil {
		return nil, fmt.Errorf("bad cache_ttl_day: %w", err)
	}
	calTTL, err := parseDuration(v.GetString("cache_ttl_calendar"))
	if err != nil {
		return nil, fmt.Errorf("bad cache_ttl_calendar: %w", err)
	}
	interval, err := parseDuration(v.GetString("stream_interval"))
	if err != nil {
		return nil, fmt.Errorf("bad stream_interval: %w", err)
	}

	workers := v.GetInt("calendar_workers")
	if workers < 1 {
		workers = 1
	}

	return &Config{
		ListenAddr:  v.GetString("listen_addr"),
		TLSCertFile: v.GetString("tls_cert_file"),
		TLSKeyFile:  v.GetString("tls_key_file"),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),

		Providers:         splitList(v.GetString("providers")),
		ProviderTimeout:   timeout,
		ProviderRateLimit: rateLimit,

		DayTTL:          dayTTL,
		CalendarTTL:     calTTL,
		CalendarWorkers: workers,
		StreamInterval:  interval,

		LogLevel:  v.GetString("log_level"),
		LogPretty: v.GetBool("log_pretty"),

		JWTSecret:    v.GetString("jwt_secret"),
		JWTUser:      v.GetString("auth_user"),
		JWTPassword:  v.GetString("auth_pass"),
		AuthRequired: v.GetBool("auth_required"),

		AmadeusURL:              v.GetString("amadeus_url"),
		AmadeusClientID:         v.GetString("amadeus_clientid"),
		AmadeusClientSecret:     v.GetString("amadeus_clientsecret"),
		DuffelHost:              v.GetString("duffel_host"),
		DuffelToken:             v.GetString("duffel_token"),
		RapidBookingHost:        v.GetString("rapid_booking_host"),
		RapidBookingRapidAPIKey: v.GetString("rapid_booking_rapidapikey"),
	}, nil
}

// parseDuration accepts a Go duration ("90s") or a bare number of seconds ("900").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
