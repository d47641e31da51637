package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate keeps a developer's config.yaml out of the way.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FLIGHTS_CONFIG", filepath.Join(dir, "missing.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, []string{"http://localhost:3000", "http://localhost:3001", "https://*.vercel.app"}, cfg.CORSAllowedOrigins)
	require.Equal(t, []string{"synthetic"}, cfg.Providers)
	require.Equal(t, 15*time.Minute, cfg.DayTTL)
	require.Equal(t, 30*time.Minute, cfg.CalendarTTL)
	require.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	require.Zero(t, cfg.ProviderRateLimit)
	require.Equal(t, 4, cfg.CalendarWorkers)
	require.Equal(t, 30*time.Second, cfg.StreamInterval)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "demo", cfg.JWTUser)
	require.Equal(t, "demo123", cfg.JWTPassword)
	require.False(t, cfg.AuthRequired)
	require.Equal(t, "https://test.api.amadeus.com", cfg.AmadeusURL)
	require.Equal(t, "https://api.duffel.com", cfg.DuffelHost)
	require.Equal(t, "booking-com15.p.rapidapi.com", cfg.RapidBookingHost)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CACHE_TTL_DAY", "900")
	t.Setenv("CACHE_TTL_CALENDAR", "45m")
	t.Setenv("PROVIDERS", " Amadeus, ,synthetic ")
	t.Setenv("CALENDAR_WORKERS", "0")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("DUFFEL_TOKEN", "tok")
	t.Setenv("CORS_ALLOWED_ORIGINS", "*")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 900*time.Second, cfg.DayTTL)
	require.Equal(t, 45*time.Minute, cfg.CalendarTTL)
	require.Equal(t, []string{"amadeus", "synthetic"}, cfg.Providers)
	require.Equal(t, 1, cfg.CalendarWorkers)
	require.True(t, cfg.AuthRequired)
	require.Equal(t, "tok", cfg.DuffelToken)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_BadDuration(t *testing.T) {
	isolate(t)
	t.Setenv("CACHE_TTL_DAY", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "cache_ttl_day")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9090\"\nproviders: duffel\nprovider_timeout: 2s\n"), 0o600))
	t.Setenv("FLIGHTS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, []string{"duffel"}, cfg.Providers)
	require.Equal(t, 2*time.Second, cfg.ProviderTimeout)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("90s")
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, d)

	d, err = parseDuration(" 1800 ")
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, d)

	_, err = parseDuration("")
	require.Error(t, err)
}
