// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package config provides centralized configuration management for Shelfwise.

Configuration is layered with Koanf v2:

 1. Defaults: built-in values from defaultConfig()
 2. Config file: optional YAML (CONFIG_PATH, config.yaml, config.yml,
    /etc/shelfwise/config.yaml)
 3. Environment variables: explicit mapping, see envMappings

A .env file in the working directory is loaded into the process environment
before the environment layer runs. Variables already set in the environment
win over the .env file.

# Environment Variables

Server:
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8686)
  - HTTP_TIMEOUT: Read/write timeout (default: 30s)
  - ENVIRONMENT: development or production

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: Include caller file:line (default: false)

Recommendations:
  - RECOMMEND_DEFAULT_LIMIT, RECOMMEND_DEFAULT_SIMILAR_LIMIT, RECOMMEND_MAX_LIMIT
  - RECOMMEND_CALL_TIMEOUT: Per provider call timeout (default: 5s)
  - RECOMMEND_MAX_CONCURRENCY: Parallel provider calls per request (default: 4)
  - RECOMMEND_FALLBACK_QUERIES: Comma-separated popularity queries
  - RECOMMEND_CACHE_ENABLED, RECOMMEND_CACHE_TTL, RECOMMEND_CACHE_MAX_ENTRIES

Search provider:
  - SEARCH_PROVIDER: googlebooks, openlibrary or static (default: googlebooks)
  - SEARCH_BASE_URL, SEARCH_API_KEY, SEARCH_TIMEOUT
  - SEARCH_CATALOG_PATH: JSON catalog for the static provider
  - SEARCH_RATE_LIMIT, SEARCH_RATE_BURST: Outbound token bucket
  - SEARCH_BREAKER_ENABLED, SEARCH_BREAKER_TIMEOUT
  - SEARCH_CACHE_ENABLED, SEARCH_CACHE_TTL, SEARCH_CACHE_MAX_ENTRIES

Library storage:
  - LIBRARY_BACKEND: memory, badger or duckdb (default: memory)
  - LIBRARY_BADGER_PATH, LIBRARY_DUCKDB_PATH

Events:
  - EVENTS_ENABLED, NATS_URL, NATS_EMBEDDED, NATS_HOST, NATS_PORT

Security:
  - AUTH_MODE: none or jwt (default: none)
  - JWT_SECRET: HS256 secret, at least 32 characters in jwt mode
  - DEFAULT_USER_ID: User for unauthenticated requests in none mode
  - CORS_ORIGINS: Comma-separated allowed origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Config is immutable after Load() and safe for concurrent reads.
*/
package config
