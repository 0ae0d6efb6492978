// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfwise/config.yaml",
	"/etc/shelfwise/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPath is the optional dotenv file loaded before environment variables are read.
var DotEnvPath = ".env"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8686,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			DefaultLimit:         20,
			DefaultSimilarLimit:  10,
			MaxLimit:             100,
			CallTimeout:          5 * time.Second,
			MaxConcurrentQueries: 4,
			FallbackQueries:      []string{"best seller", "classic literature", "popular fiction", "award winning"},
			CacheEnabled:         false, // Results stay a pure function of the library unless opted in
			CacheTTL:             10 * time.Minute,
			CacheMaxEntries:      1000,
		},
		Search: SearchConfig{
			Provider:            ProviderGoogleBooks,
			BaseURL:             "",
			APIKey:              "",
			Timeout:             10 * time.Second,
			UserAgent:           "Shelfwise/1.0",
			CatalogPath:         "",
			RateLimit:           5,
			RateBurst:           10,
			BreakerEnabled:      true,
			BreakerTimeout:      2 * time.Minute,
			BreakerInterval:     time.Minute,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			CacheEnabled:        true,
			CacheTTL:            30 * time.Minute,
			CacheMaxEntries:     5000,
		},
		Library: LibraryConfig{
			Backend:    BackendMemory,
			BadgerPath: "/data/library",
			DuckDBPath: "/data/shelfwise.duckdb",
		},
		Events: EventsConfig{
			Enabled:        true,
			NATSURL:        "",
			EmbeddedServer: false,
			EmbeddedHost:   "127.0.0.1",
			EmbeddedPort:   4222,
			CloseTimeout:   10 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:          AuthModeNone,
			JWTSecret:         "",
			JWTIssuer:         "",
			DefaultUserID:     "default",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting, including those from .env
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables, after merging .env into the process env
	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv merges a dotenv file into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"recommend.fallback_queries",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Recommendations
	"recommend_default_limit":         "recommend.default_limit",
	"recommend_default_similar_limit": "recommend.default_similar_limit",
	"recommend_max_limit":             "recommend.max_limit",
	"recommend_call_timeout":          "recommend.call_timeout",
	"recommend_max_concurrency":       "recommend.max_concurrent_queries",
	"recommend_fallback_queries":      "recommend.fallback_queries",
	"recommend_cache_enabled":         "recommend.cache_enabled",
	"recommend_cache_ttl":             "recommend.cache_ttl",
	"recommend_cache_max_entries":     "recommend.cache_max_entries",

	// Search provider
	"search_provider":              "search.provider",
	"search_base_url":              "search.base_url",
	"search_api_key":               "search.api_key",
	"search_timeout":               "search.timeout",
	"search_user_agent":            "search.user_agent",
	"search_catalog_path":          "search.catalog_path",
	"search_rate_limit":            "search.rate_limit",
	"search_rate_burst":            "search.rate_burst",
	"search_breaker_enabled":       "search.breaker_enabled",
	"search_breaker_timeout":       "search.breaker_timeout",
	"search_breaker_interval":      "search.breaker_interval",
	"search_breaker_min_requests":  "search.breaker_min_requests",
	"search_breaker_failure_ratio": "search.breaker_failure_ratio",
	"search_cache_enabled":         "search.cache_enabled",
	"search_cache_ttl":             "search.cache_ttl",
	"search_cache_max_entries":     "search.cache_max_entries",

	// Library storage
	"library_backend":     "library.backend",
	"library_badger_path": "library.badger_path",
	"library_duckdb_path": "library.duckdb_path",

	// Events
	"events_enabled":       "events.enabled",
	"nats_url":             "events.nats_url",
	"nats_embedded":        "events.embedded_server",
	"nats_host":            "events.embedded_host",
	"nats_port":            "events.embedded_port",
	"events_close_timeout": "events.close_timeout",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"default_user_id":     "security.default_user_id",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - SEARCH_API_KEY -> search.api_key
//   - LIBRARY_BACKEND -> library.backend
//   - NATS_URL -> events.nats_url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
