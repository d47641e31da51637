package providers

import (
	"github.com/you/go-fare-calendar/internal/config"
	"github.com/you/go-fare-calendar/internal/logging"
)

type upstream interface {
	FlightProvider
	configured() bool
}

// Build turns the configured provider names into a chain, in order. Unknown names
// and upstreams without credentials are skipped; the synthetic provider is appended
// when absent so the chain is never empty.
func Build(cfg *config.Config) *Chain {
	log := logging.NewLogger("providers")

	var list []FlightProvider
	seen := make(map[string]bool)
	hasSynthetic := false

	for _, name := range cfg.Providers {
		if seen[name] {
			continue
		}
		seen[name] = true

		var up upstream
		switch name {
		case "synthetic":
			list = append(list, NewSynthetic())
			hasSynthetic = true
			continue
		case "amadeus":
			up = NewAmadeus(cfg)
		case "duffel":
			up = NewDuffel(cfg)
		case "rapid_booking":
			up = NewRapidBooking(cfg)
		default:
			log.Warn().Str("provider", name).Msg("unknown provider, ignoring")
			continue
		}

		if !up.configured() {
			log.Warn().Str("provider", name).Msg("provider credentials missing, skipping")
			continue
		}
		list = append(list, RateLimited(up, cfg.ProviderRateLimit))
	}

	if !hasSynthetic {
		list = append(list, NewSynthetic())
	}

	chain := NewChain(cfg.ProviderTimeout, list...)
	log.Info().Strs("providers", chain.Names()).Dur("timeout", cfg.ProviderTimeout).Msg("provider chain ready")
	return chain
}
