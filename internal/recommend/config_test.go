// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default limit", func(c *Config) { c.Limits.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Limits.MaxLimit = 5 }},
		{"zero call timeout", func(c *Config) { c.Limits.CallTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Limits.MaxConcurrentQueries = 0 }},
		{"zero author results", func(c *Config) { c.Queries.AuthorResults = 0 }},
		{"zero max authors", func(c *Config) { c.Queries.MaxAuthors = 0 }},
		{"no fallback queries", func(c *Config) { c.Queries.FallbackQueries = nil }},
		{"zero fallback results", func(c *Config) { c.Queries.FallbackResults = 0 }},
		{"inverted score range", func(c *Config) { c.Scoring.Min, c.Scoring.Max = 0.9, 0.2 }},
		{"base outside range", func(c *Config) { c.Scoring.Base = 1.5 }},
		{"cache without ttl", func(c *Config) { c.Cache.Enabled = true; c.Cache.TTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestConfigClampLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	tests := []struct {
		limit, def, want int
	}{
		{0, 20, 20},
		{-3, 10, 10},
		{7, 20, 7},
		{100, 20, 100},
		{500, 20, 100},
	}
	for _, tt := range tests {
		if got := cfg.clampLimit(tt.limit, tt.def); got != tt.want {
			t.Errorf("clampLimit(%d, %d) = %d, want %d", tt.limit, tt.def, got, tt.want)
		}
	}
}

func TestConfigClone(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Queries.FallbackQueries[0] = "changed"
	clone.Limits.CallTimeout = time.Minute

	if cfg.Queries.FallbackQueries[0] == "changed" {
		t.Error("Clone() shares FallbackQueries with the original")
	}
	if cfg.Limits.CallTimeout != 5*time.Second {
		t.Errorf("original CallTimeout = %v, want 5s", cfg.Limits.CallTimeout)
	}
}
