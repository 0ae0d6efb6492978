// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tomtom215/shelfwise/internal/models"
)

// ErrProviderUnavailable is returned when a provider is known to be unhealthy
// and the call was not attempted.
var ErrProviderUnavailable = errors.New("search provider unavailable")

// Provider searches an external book catalog.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// Ensure every provider implements Provider
var (
	_ Provider = (*GoogleBooksClient)(nil)
	_ Provider = (*OpenLibraryClient)(nil)
	_ Provider = (*StaticProvider)(nil)
	_ Provider = (*CachedProvider)(nil)
	_ Provider = (*RateLimitedProvider)(nil)
	_ Provider = (*BreakerProvider)(nil)
)

// maxErrorBody caps how much of an error response is copied into the error.
const maxErrorBody = 512

// statusError builds the error for a non-200 provider response.
func statusError(provider string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body)", provider, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
}

// secureURL upgrades plain-http links such as cover images to https.
func secureURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// normalizeQuery trims the query and collapses internal whitespace.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
