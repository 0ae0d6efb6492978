// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/models"
)

const staticName = "static"

// StaticProvider searches a fixed in-memory catalog. A result matches when
// every query word appears in its title, authors or categories, ignoring case.
// Catalog order is preserved.
type StaticProvider struct {
	catalog []models.SearchResult
	blobs   []string
}

// NewStaticProvider serves catalog.
func NewStaticProvider(catalog []models.SearchResult) *StaticProvider {
	p := &StaticProvider{
		catalog: make([]models.SearchResult, len(catalog)),
		blobs:   make([]string, len(catalog)),
	}
	for i := range catalog {
		r := catalog[i]
		if r.Source == "" {
			r.Source = staticName
		}
		p.catalog[i] = r
		p.blobs[i] = strings.ToLower(strings.Join([]string{
			r.Title,
			strings.Join(r.Authors, " "),
			strings.Join(r.Categories, " "),
		}, " "))
	}
	return p
}

// LoadStaticProvider reads a JSON array of search results from path.
// An empty path yields an empty catalog.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	if path == "" {
		return NewStaticProvider(nil), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	var catalog []models.SearchResult
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	return NewStaticProvider(catalog), nil
}

// Len returns the catalog size.
func (p *StaticProvider) Len() int {
	return len(p.catalog)
}

// Search returns up to limit catalog entries matching every word of query.
func (p *StaticProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	results := []models.SearchResult{}
	if len(terms) == 0 || limit <= 0 {
		return results, nil
	}

	for i := range p.catalog {
		if len(results) >= limit {
			break
		}
		if matchesAll(p.blobs[i], terms) {
			results = append(results, p.catalog[i])
		}
	}
	return results, nil
}

func matchesAll(blob string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(blob, t) {
			return false
		}
	}
	return true
}
