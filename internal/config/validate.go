// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"fmt"
	"strings"
)

// minJWTSecretLength is the shortest HS256 secret accepted in jwt mode.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateRecommend,
		c.validateSearch,
		c.validateLibrary,
		c.validateEvents,
		c.validateSecurity,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if r.DefaultLimit <= 0 || r.DefaultSimilarLimit <= 0 {
		return fmt.Errorf("recommendation default limits must be positive, got %d and %d", r.DefaultLimit, r.DefaultSimilarLimit)
	}
	if r.MaxLimit < r.DefaultLimit || r.MaxLimit < r.DefaultSimilarLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT (%d) must be at least the default limits", r.MaxLimit)
	}
	if r.CallTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_CALL_TIMEOUT must be positive, got %v", r.CallTimeout)
	}
	if r.MaxConcurrentQueries <= 0 {
		return fmt.Errorf("RECOMMEND_MAX_CONCURRENCY must be positive, got %d", r.MaxConcurrentQueries)
	}
	if len(r.FallbackQueries) == 0 {
		return fmt.Errorf("RECOMMEND_FALLBACK_QUERIES must not be empty")
	}
	if r.CacheEnabled && r.CacheTTL <= 0 {
		return fmt.Errorf("RECOMMEND_CACHE_TTL must be positive when the cache is enabled, got %v", r.CacheTTL)
	}
	return nil
}

func (c *Config) validateSearch() error {
	s := &c.Search
	switch s.Provider {
	case ProviderGoogleBooks, ProviderOpenLibrary, ProviderStatic:
	default:
		return fmt.Errorf("SEARCH_PROVIDER must be googlebooks, openlibrary or static, got %q", s.Provider)
	}
	if s.BaseURL != "" {
		if err := validateHTTPURL(s.BaseURL, "SEARCH_BASE_URL"); err != nil {
			return err
		}
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive, got %v", s.Timeout)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("SEARCH_RATE_LIMIT must not be negative, got %v", s.RateLimit)
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		return fmt.Errorf("SEARCH_RATE_BURST must be at least 1 when rate limiting, got %d", s.RateBurst)
	}
	if s.BreakerEnabled {
		if s.BreakerTimeout <= 0 {
			return fmt.Errorf("SEARCH_BREAKER_TIMEOUT must be positive, got %v", s.BreakerTimeout)
		}
		if s.BreakerFailureRatio <= 0 || s.BreakerFailureRatio > 1 {
			return fmt.Errorf("SEARCH_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", s.BreakerFailureRatio)
		}
	}
	if s.CacheEnabled && s.CacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive when the cache is enabled, got %v", s.CacheTTL)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	switch c.Library.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Library.BadgerPath == "" {
			return fmt.Errorf("LIBRARY_BADGER_PATH is required when LIBRARY_BACKEND=badger")
		}
	case BackendDuckDB:
		if c.Library.DuckDBPath == "" {
			return fmt.Errorf("LIBRARY_DUCKDB_PATH is required when LIBRARY_BACKEND=duckdb")
		}
	default:
		return fmt.Errorf("LIBRARY_BACKEND must be memory, badger or duckdb, got %q", c.Library.Backend)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.NATSURL != "" {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return err
		}
	}
	if c.Events.EmbeddedServer && (c.Events.EmbeddedPort < 1 || c.Events.EmbeddedPort > 65535) {
		return fmt.Errorf("NATS_PORT must be between 1 and 65535, got %d", c.Events.EmbeddedPort)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := &c.Security
	switch s.AuthMode {
	case AuthModeNone:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
		if s.DefaultUserID == "" {
			return fmt.Errorf("DEFAULT_USER_ID is required when AUTH_MODE=none")
		}
	case AuthModeJWT:
		if len(s.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
		}
		if containsPlaceholder(s.JWTSecret) {
			return fmt.Errorf("JWT_SECRET looks like a placeholder value, generate a random secret")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be none or jwt, got %q", s.AuthMode)
	}

	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS must not contain * when ENVIRONMENT=production")
	}

	if !s.RateLimitDisabled {
		if s.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", s.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// containsPlaceholder detects secrets copied verbatim from example configs.
func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, p := range []string{"changeme", "change_me", "your-secret", "your_secret", "replace-me", "example"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
