// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// isolateConfigSources points config file and dotenv lookups at an empty temp dir.
func isolateConfigSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origPaths, origDotEnv := DefaultConfigPaths, DotEnvPath
	DefaultConfigPaths = []string{filepath.Join(dir, "config.yaml")}
	DotEnvPath = filepath.Join(dir, ".env")
	t.Cleanup(func() {
		DefaultConfigPaths, DotEnvPath = origPaths, origDotEnv
	})
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8686 {
		t.Errorf("Server.Port = %d, want 8686", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultLimit != 20 || cfg.Recommend.DefaultSimilarLimit != 10 {
		t.Errorf("Recommend limits = %d/%d, want 20/10", cfg.Recommend.DefaultLimit, cfg.Recommend.DefaultSimilarLimit)
	}
	if cfg.Recommend.CallTimeout != 5*time.Second {
		t.Errorf("Recommend.CallTimeout = %v, want 5s", cfg.Recommend.CallTimeout)
	}
	if cfg.Recommend.CacheEnabled {
		t.Error("Recommend.CacheEnabled should be false by default")
	}
	if cfg.Search.Provider != ProviderGoogleBooks {
		t.Errorf("Search.Provider = %q, want %q", cfg.Search.Provider, ProviderGoogleBooks)
	}
	if cfg.Library.Backend != BackendMemory {
		t.Errorf("Library.Backend = %q, want %q", cfg.Library.Backend, BackendMemory)
	}
	if cfg.Security.AuthMode != AuthModeNone {
		t.Errorf("Security.AuthMode = %q, want %q", cfg.Security.AuthMode, AuthModeNone)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	isolateConfigSources(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	isolateConfigSources(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECOMMEND_CALL_TIMEOUT", "2s")
	t.Setenv("RECOMMEND_FALLBACK_QUERIES", "sci-fi classics, , hugo winners")
	t.Setenv("SEARCH_PROVIDER", "openlibrary")
	t.Setenv("SEARCH_BREAKER_FAILURE_RATIO", "0.5")
	t.Setenv("LIBRARY_BACKEND", "badger")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Recommend.CallTimeout != 2*time.Second {
		t.Errorf("Recommend.CallTimeout = %v, want 2s", cfg.Recommend.CallTimeout)
	}
	if diff := cmp.Diff([]string{"sci-fi classics", "hugo winners"}, cfg.Recommend.FallbackQueries); diff != "" {
		t.Errorf("FallbackQueries mismatch (-want +got):\n%s", diff)
	}
	if cfg.Search.Provider != ProviderOpenLibrary {
		t.Errorf("Search.Provider = %q, want openlibrary", cfg.Search.Provider)
	}
	if cfg.Search.BreakerFailureRatio != 0.5 {
		t.Errorf("Search.BreakerFailureRatio = %v, want 0.5", cfg.Search.BreakerFailureRatio)
	}
	if cfg.Library.Backend != BackendBadger {
		t.Errorf("Library.Backend = %q, want badger", cfg.Library.Backend)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Security.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := isolateConfigSources(t)

	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: 7000
recommend:
  max_limit: 50
  cache_enabled: true
  cache_ttl: 1m
search:
  provider: static
security:
  cors_origins:
    - https://shelf.example
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	// Environment wins over the file.
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100 from env", cfg.Server.Port)
	}
	if cfg.Recommend.MaxLimit != 50 || !cfg.Recommend.CacheEnabled || cfg.Recommend.CacheTTL != time.Minute {
		t.Errorf("Recommend = %+v, want max 50 with a 1m cache", cfg.Recommend)
	}
	if cfg.Search.Provider != ProviderStatic {
		t.Errorf("Search.Provider = %q, want static", cfg.Search.Provider)
	}
	if diff := cmp.Diff([]string{"https://shelf.example"}, cfg.Security.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
	// Untouched sections keep their defaults.
	if cfg.Recommend.DefaultLimit != 20 {
		t.Errorf("Recommend.DefaultLimit = %d, want default 20", cfg.Recommend.DefaultLimit)
	}
}

func TestLoadWithKoanfDotEnv(t *testing.T) {
	isolateConfigSources(t)

	if err := os.WriteFile(DotEnvPath, []byte("SEARCH_API_KEY=from-dotenv\nLOG_FORMAT=console\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	// Register restores for variables godotenv will set, then clear them.
	t.Setenv("SEARCH_API_KEY", "")
	t.Setenv("LOG_FORMAT", "")
	_ = os.Unsetenv("SEARCH_API_KEY")
	_ = os.Unsetenv("LOG_FORMAT")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Search.APIKey != "from-dotenv" {
		t.Errorf("Search.APIKey = %q, want from-dotenv", cfg.Search.APIKey)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadWithKoanfDotEnvDoesNotOverrideEnv(t *testing.T) {
	isolateConfigSources(t)

	if err := os.WriteFile(DotEnvPath, []byte("LOG_LEVEL=error\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn from the environment", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidationError(t *testing.T) {
	isolateConfigSources(t)
	t.Setenv("LIBRARY_BACKEND", "postgres")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("LoadWithKoanf() expected validation error")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":          "server.port",
		"search_api_key":     "search.api_key",
		"NATS_URL":           "events.nats_url",
		"DISABLE_RATE_LIMIT": "security.rate_limit_disabled",
		"PATH":               "",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
