// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/shelfwise/internal/cache"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// CachedProvider answers repeated queries from a TTL cache. Only successful
// responses are cached, including empty ones.
type CachedProvider struct {
	next  Provider
	cache *cache.TTL[[]models.SearchResult]
}

// NewCachedProvider caches up to maxEntries responses for ttl each.
func NewCachedProvider(next Provider, maxEntries int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: cache.New[[]models.SearchResult](maxEntries, ttl),
	}
}

// Search returns a cached response or calls the wrapped provider.
func (p *CachedProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	key := cacheKey(query, limit)
	if results, ok := p.cache.Get(key); ok {
		metrics.RecordCacheLookup("search", true)
		return append([]models.SearchResult{}, results...), nil
	}
	metrics.RecordCacheLookup("search", false)

	results, err := p.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, append([]models.SearchResult{}, results...))
	return results, nil
}

// Stats exposes cache statistics.
func (p *CachedProvider) Stats() cache.Stats {
	return p.cache.Stats()
}

// cacheKey is case and whitespace insensitive on the query.
func cacheKey(query string, limit int) string {
	return strings.ToLower(normalizeQuery(query)) + "|" + strconv.Itoa(limit)
}
