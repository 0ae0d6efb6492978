// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
)

// Build creates the configured provider wrapped in its decorators:
// cache, then rate limiter, then circuit breaker, then the client.
// Cache hits never consume rate-limit tokens and rate-limit waits never
// count against the breaker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(cfg *config.SearchConfig, logger zerolog.Logger) (Provider, error) {
	var (
		p    Provider
		name string
	)
	switch cfg.Provider {
	case config.ProviderGoogleBooks:
		c := NewGoogleBooksClient(cfg.BaseURL, cfg.APIKey, cfg.UserAgent, cfg.Timeout)
		p, name = c, c.Name()
	case config.ProviderOpenLibrary:
		c := NewOpenLibraryClient(cfg.BaseURL, cfg.UserAgent, cfg.Timeout)
		p, name = c, c.Name()
	case config.ProviderStatic:
		c, err := LoadStaticProvider(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		p, name = c, staticName
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}

	if cfg.BreakerEnabled {
		settings := DefaultBreakerSettings(name + "-search")
		settings.Timeout = cfg.BreakerTimeout
		settings.Interval = cfg.BreakerInterval
		settings.MinRequests = cfg.BreakerMinRequests
		settings.FailureRatio = cfg.BreakerFailureRatio
		p = NewBreakerProvider(p, settings, logger)
	}
	if cfg.RateLimit > 0 {
		p = NewRateLimitedProvider(p, cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.CacheEnabled {
		p = NewCachedProvider(p, cfg.CacheMaxEntries, cfg.CacheTTL)
	}

	logger.Info().
		Str("provider", name).
		Bool("breaker", cfg.BreakerEnabled).
		Float64("rate_limit", cfg.RateLimit).
		Bool("cache", cfg.CacheEnabled).
		Msg("search provider configured")

	return p, nil
}
