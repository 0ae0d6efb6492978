// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/search"
)

// buildEngineConfig maps the recommend section onto the engine defaults.
// Query sizing and scoring weights are not exposed.
func buildEngineConfig(rc *config.RecommendConfig) *recommend.Config {
	cfg := recommend.DefaultConfig()

	cfg.Limits.DefaultLimit = rc.DefaultLimit
	cfg.Limits.DefaultSimilarLimit = rc.DefaultSimilarLimit
	cfg.Limits.MaxLimit = rc.MaxLimit
	cfg.Limits.CallTimeout = rc.CallTimeout
	cfg.Limits.MaxConcurrentQueries = rc.MaxConcurrentQueries

	if len(rc.FallbackQueries) > 0 {
		cfg.Queries.FallbackQueries = append([]string(nil), rc.FallbackQueries...)
	}

	cfg.Cache = recommend.CacheConfig{
		Enabled:    rc.CacheEnabled,
		TTL:        rc.CacheTTL,
		MaxEntries: rc.CacheMaxEntries,
	}
	return cfg
}

// newEngine builds the configured search provider stack and the engine on top of it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newEngine(cfg *config.Config, lib recommend.LibraryAccessor, logger zerolog.Logger) (*recommend.Engine, error) {
	provider, err := search.Build(&cfg.Search, logger)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}

	engine, err := recommend.NewEngine(buildEngineConfig(&cfg.Recommend), provider, lib, logger)
	if err != nil {
		return nil, fmt.Errorf("recommendation engine: %w", err)
	}

	logger.Info().
		Str("provider", cfg.Search.Provider).
		Int("default_limit", cfg.Recommend.DefaultLimit).
		Int("max_limit", cfg.Recommend.MaxLimit).
		Bool("cache_enabled", cfg.Recommend.CacheEnabled).
		Msg("Recommendation engine initialized")
	return engine, nil
}
