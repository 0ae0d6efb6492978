// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Search    SearchConfig    `koanf:"search"`
	Library   LibraryConfig   `koanf:"library"`
	Events    EventsConfig    `koanf:"events"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production". Production rejects
	// unauthenticated mode and wildcard CORS.
	Environment string `koanf:"environment"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds the recommendation service limits and result cache.
// Scoring weights are not configurable.
type RecommendConfig struct {
	DefaultLimit         int           `koanf:"default_limit"`
	DefaultSimilarLimit  int           `koanf:"default_similar_limit"`
	MaxLimit             int           `koanf:"max_limit"`
	CallTimeout          time.Duration `koanf:"call_timeout"`
	MaxConcurrentQueries int           `koanf:"max_concurrent_queries"`
	FallbackQueries      []string      `koanf:"fallback_queries"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// Search provider names.
const (
	ProviderGoogleBooks = "googlebooks"
	ProviderOpenLibrary = "openlibrary"
	ProviderStatic      = "static"
)

// SearchConfig holds the external book search provider settings.
type SearchConfig struct {
	Provider string `koanf:"provider"`

	// BaseURL overrides the provider's public endpoint. Empty uses the default.
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`

	// CatalogPath is the JSON catalog served by the static provider.
	CatalogPath string `koanf:"catalog_path"`

	// RateLimit is the sustained outbound request rate per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// Library backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendDuckDB = "duckdb"
)

// LibraryConfig selects where user libraries are stored.
type LibraryConfig struct {
	Backend    string `koanf:"backend"`
	BadgerPath string `koanf:"badger_path"`
	DuckDBPath string `koanf:"duckdb_path"`
}

// EventsConfig holds library-change event settings.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// NATSURL selects the NATS transport. Empty uses an in-process channel.
	NATSURL string `koanf:"nats_url"`

	// EmbeddedServer starts a NATS server inside the process and points
	// NATSURL at it.
	EmbeddedServer bool   `koanf:"embedded_server"`
	EmbeddedHost   string `koanf:"embedded_host"`
	EmbeddedPort   int    `koanf:"embedded_port"`

	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// Auth modes.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

// SecurityConfig holds authentication, CORS and inbound rate limiting.
type SecurityConfig struct {
	AuthMode      string `koanf:"auth_mode"`
	JWTSecret     string `koanf:"jwt_secret"`
	JWTIssuer     string `koanf:"jwt_issuer"`
	DefaultUserID string `koanf:"default_user_id"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration from defaults, config file, .env and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
