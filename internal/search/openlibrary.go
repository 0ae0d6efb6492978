// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
openlibrary.go - Open Library Search API Client

Searches works through /search.json. Open Library asks clients to send a
descriptive User-Agent.

API Reference: https://openlibrary.org/dev/docs/api/search
*/

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// DefaultOpenLibraryURL is the public Open Library base.
const DefaultOpenLibraryURL = "https://openlibrary.org"

const (
	openLibraryName     = "openlibrary"
	openLibraryCoverURL = "https://covers.openlibrary.org/b/id/%d-M.jpg"
	openLibraryFields   = "key,title,author_name,first_publish_year,number_of_pages_median,cover_i,subject,first_sentence"
	openLibraryMaxLimit = 100

	// maxSubjects bounds the subjects copied into Categories.
	maxSubjects = 5
)

// OpenLibraryClient provides access to the Open Library search API
type OpenLibraryClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type openLibraryResponse struct {
	NumFound int              `json:"numFound"`
	Docs     []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	PagesMedian      int      `json:"number_of_pages_median"`
	CoverID          int      `json:"cover_i"`
	Subject          []string `json:"subject"`
	FirstSentence    []string `json:"first_sentence"`
}

// NewOpenLibraryClient creates a new Open Library client. An empty baseURL
// uses DefaultOpenLibraryURL.
func NewOpenLibraryClient(baseURL, userAgent string, timeout time.Duration) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = DefaultOpenLibraryURL
	}
	return &OpenLibraryClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the provider in logs and metrics.
func (c *OpenLibraryClient) Name() string {
	return openLibraryName
}

// Search queries /search.json. Works without a title are skipped.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	query = normalizeQuery(query)
	if query == "" || limit <= 0 {
		return []models.SearchResult{}, nil
	}
	if limit > openLibraryMaxLimit {
		limit = openLibraryMaxLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", openLibraryFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(openLibraryName, "error")
		return nil, fmt.Errorf("open library search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordProviderRequest(openLibraryName, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("open library search", resp)
	}

	var payload openLibraryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode open library response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Docs))
	for i := range payload.Docs {
		d := &payload.Docs[i]
		if strings.TrimSpace(d.Title) == "" {
			continue
		}
		results = append(results, d.toResult())
	}
	return results, nil
}

func (d *openLibraryDoc) toResult() models.SearchResult {
	r := models.SearchResult{
		ID:        strings.TrimPrefix(d.Key, "/works/"),
		Title:     d.Title,
		Authors:   d.AuthorName,
		PageCount: d.PagesMedian,
		Source:    openLibraryName,
	}
	if len(d.FirstSentence) > 0 {
		r.Description = d.FirstSentence[0]
	}
	if d.FirstPublishYear > 0 {
		r.PublishedDate = strconv.Itoa(d.FirstPublishYear)
	}
	if d.CoverID > 0 {
		r.CoverURL = fmt.Sprintf(openLibraryCoverURL, d.CoverID)
	}
	if len(d.Subject) > 0 {
		n := min(len(d.Subject), maxSubjects)
		r.Categories = append([]string(nil), d.Subject[:n]...)
	}
	return r
}
