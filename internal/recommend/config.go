// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Limits contains request-size and provider-call limits.
	Limits LimitsConfig `json:"limits"`

	// Queries controls how many provider queries each strategy issues.
	Queries QueryConfig `json:"queries"`

	// Scoring holds the match-score weights.
	Scoring ScoringConfig `json:"scoring"`

	// Cache controls the per-user result cache.
	Cache CacheConfig `json:"cache"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is used by GetRecommendations when the caller passes a non-positive limit.
	DefaultLimit int `json:"default_limit"`

	// DefaultSimilarLimit is used by GetSimilarBooks when the caller passes a non-positive limit.
	DefaultSimilarLimit int `json:"default_similar_limit"`

	// MaxLimit caps any requested limit.
	MaxLimit int `json:"max_limit"`

	// CallTimeout bounds each individual search-provider call. A timeout is
	// treated like any other per-call failure.
	CallTimeout time.Duration `json:"call_timeout"`

	// MaxConcurrentQueries bounds how many provider calls run at once.
	MaxConcurrentQueries int `json:"max_concurrent_queries"`
}

// QueryConfig sizes the queries issued by each strategy.
type QueryConfig struct {
	MaxAuthors           int `json:"max_authors"`
	FavoriteAuthorSeeds  int `json:"favorite_author_seeds"`
	AuthorResults        int `json:"author_results"`
	TitleSeeds           int `json:"title_seeds"`
	TitleKeywords        int `json:"title_keywords"`
	TitleResults         int `json:"title_results"`
	MinFavoriteAuthors   int `json:"min_favorite_authors"`
	SimilarAuthors       int `json:"similar_authors"`
	SimilarAuthorResults int `json:"similar_author_results"`

	// FallbackQueries are the generic popularity queries used for readers
	// with an empty library.
	FallbackQueries []string `json:"fallback_queries"`
	FallbackResults int      `json:"fallback_results"`
}

// ScoringConfig holds the additive match-score weights.
type ScoringConfig struct {
	Base                   float64 `json:"base"`
	Min                    float64 `json:"min"`
	Max                    float64 `json:"max"`
	FavoriteAuthorBonus    float64 `json:"favorite_author_bonus"`
	SimilarAuthorBonus     float64 `json:"similar_author_bonus"`
	SimilarTitleBonus      float64 `json:"similar_title_bonus"`
	HighlyRatedAuthorBonus float64 `json:"highly_rated_author_bonus"`
	DescriptionBonus       float64 `json:"description_bonus"`
	DescriptionMinLength   int     `json:"description_min_length"`
	CoverBonus             float64 `json:"cover_bonus"`
	PopularScore           float64 `json:"popular_score"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled turns on the per-user result cache. Off by default so every
	// call reflects the current library snapshot.
	Enabled bool `json:"enabled"`

	// TTL is how long cached recommendations stay valid.
	TTL time.Duration `json:"ttl"`

	// MaxEntries bounds the number of cached responses.
	MaxEntries int `json:"max_entries"`
}

// DefaultFallbackQueries are the popularity queries used when a reader has no history.
var DefaultFallbackQueries = []string{"best seller", "classic literature", "popular fiction", "award winning"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultLimit:         20,
			DefaultSimilarLimit:  10,
			MaxLimit:             100,
			CallTimeout:          5 * time.Second,
			MaxConcurrentQueries: 4,
		},
		Queries: QueryConfig{
			MaxAuthors:           5,
			FavoriteAuthorSeeds:  3,
			AuthorResults:        10,
			TitleSeeds:           3,
			TitleKeywords:        2,
			TitleResults:         5,
			MinFavoriteAuthors:   2,
			SimilarAuthors:       2,
			SimilarAuthorResults: 5,
			FallbackQueries:      append([]string(nil), DefaultFallbackQueries...),
			FallbackResults:      10,
		},
		Scoring: ScoringConfig{
			Base:                   0.5,
			Min:                    0.1,
			Max:                    1.0,
			FavoriteAuthorBonus:    0.5,
			SimilarAuthorBonus:     0.3,
			SimilarTitleBonus:      0.2,
			HighlyRatedAuthorBonus: 0.2,
			DescriptionBonus:       0.1,
			DescriptionMinLength:   100,
			CoverBonus:             0.1,
			PopularScore:           0.5,
		},
		Cache: CacheConfig{
			Enabled:    false,
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Limits.DefaultLimit <= 0 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.DefaultSimilarLimit <= 0 {
		return fmt.Errorf("limits.default_similar_limit must be positive, got %d", c.Limits.DefaultSimilarLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit || c.Limits.MaxLimit < c.Limits.DefaultSimilarLimit {
		return fmt.Errorf("limits.max_limit must be >= both default limits, got %d", c.Limits.MaxLimit)
	}
	if c.Limits.CallTimeout <= 0 {
		return fmt.Errorf("limits.call_timeout must be positive, got %v", c.Limits.CallTimeout)
	}
	if c.Limits.MaxConcurrentQueries <= 0 {
		return fmt.Errorf("limits.max_concurrent_queries must be positive, got %d", c.Limits.MaxConcurrentQueries)
	}
	if c.Queries.AuthorResults <= 0 || c.Queries.TitleResults <= 0 || c.Queries.SimilarAuthorResults <= 0 {
		return fmt.Errorf("queries: result counts must be positive")
	}
	if c.Queries.MaxAuthors <= 0 {
		return fmt.Errorf("queries.max_authors must be positive, got %d", c.Queries.MaxAuthors)
	}
	if len(c.Queries.FallbackQueries) == 0 {
		return fmt.Errorf("queries.fallback_queries must not be empty")
	}
	if c.Queries.FallbackResults <= 0 {
		return fmt.Errorf("queries.fallback_results must be positive, got %d", c.Queries.FallbackResults)
	}
	if c.Scoring.Min < 0 || c.Scoring.Max <= c.Scoring.Min {
		return fmt.Errorf("scoring: need 0 <= min < max, got min=%f max=%f", c.Scoring.Min, c.Scoring.Max)
	}
	if c.Scoring.Base < c.Scoring.Min || c.Scoring.Base > c.Scoring.Max {
		return fmt.Errorf("scoring.base must be within [min, max], got %f", c.Scoring.Base)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Queries.FallbackQueries = append([]string(nil), c.Queries.FallbackQueries...)
	return &clone
}

// clampLimit resolves a caller-supplied limit against a default and the max.
func (c *Config) clampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > c.Limits.MaxLimit {
		limit = c.Limits.MaxLimit
	}
	return limit
}
