// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.With("service", "http").WithGroup("restart").Warn("service failed",
		"attempt", 3,
		"backoff", 2*time.Second,
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"message":"service failed"`,
		`"service":"http"`,
		`"restart.attempt":3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in).String(); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
