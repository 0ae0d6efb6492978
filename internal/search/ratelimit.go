// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tomtom215/shelfwise/internal/models"
)

// RateLimitedProvider holds outbound calls to a token bucket. Callers wait
// for a token for as long as their context allows.
type RateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows perSecond calls on average with bursts of up to burst.
func NewRateLimitedProvider(next Provider, perSecond float64, burst int) *RateLimitedProvider {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Search waits for a token and then calls the wrapped provider.
func (p *RateLimitedProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}
	return p.next.Search(ctx, query, limit)
}
