// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
googlebooks.go - Google Books REST API Client

Searches the public volumes endpoint. An API key is optional but raises the
anonymous quota.

API Reference: https://developers.google.com/books/docs/v1/using
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

// DefaultGoogleBooksURL is the public Google Books API base.
const DefaultGoogleBooksURL = "https://www.googleapis.com/books/v1"

// googleBooksMaxResults is the API's per-request cap on maxResults.
const googleBooksMaxResults = 40

const googleBooksName = "googlebooks"

// GoogleBooksClient provides access to the Google Books volumes API
type GoogleBooksClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

type googleVolumes struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string           `json:"id"`
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	PublishedDate string   `json:"publishedDate"`
	PageCount     int      `json:"pageCount"`
	ImageLinks    *struct {
		SmallThumbnail string `json:"smallThumbnail"`
		Thumbnail      string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// NewGoogleBooksClient creates a new Google Books client
//
// Parameters:
//   - baseURL: API base, empty for DefaultGoogleBooksURL
//   - apiKey: Optional API key
//   - timeout: HTTP client timeout
func NewGoogleBooksClient(baseURL, apiKey, userAgent string, timeout time.Duration) *GoogleBooksClient {
	if baseURL == "" {
		baseURL = DefaultGoogleBooksURL
	}
	return &GoogleBooksClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the provider in logs and metrics.
func (c *GoogleBooksClient) Name() string {
	return googleBooksName
}

// Search queries /volumes restricted to books. Volumes without a title are skipped.
func (c *GoogleBooksClient) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	query = normalizeQuery(query)
	if query == "" || limit <= 0 {
		return []models.SearchResult{}, nil
	}
	if limit > googleBooksMaxResults {
		limit = googleBooksMaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	resp, err := c.doRequest(ctx, "/volumes?"+params.Encode())
	if err != nil {
		metrics.RecordProviderRequest(googleBooksName, "error")
		return nil, fmt.Errorf("google books search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordProviderRequest(googleBooksName, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("google books search", resp)
	}

	var volumes googleVolumes
	if err := json.NewDecoder(resp.Body).Decode(&volumes); err != nil {
		return nil, fmt.Errorf("failed to decode google books response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(volumes.Items))
	for i := range volumes.Items {
		v := &volumes.Items[i]
		if strings.TrimSpace(v.VolumeInfo.Title) == "" {
			continue
		}
		results = append(results, v.toResult())
	}
	return results, nil
}

func (v *googleVolume) toResult() models.SearchResult {
	info := &v.VolumeInfo
	r := models.SearchResult{
		ID:            v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   info.Description,
		Categories:    info.Categories,
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
		Source:        googleBooksName,
	}
	if info.ImageLinks != nil {
		cover := info.ImageLinks.Thumbnail
		if cover == "" {
			cover = info.ImageLinks.SmallThumbnail
		}
		r.CoverURL = secureURL(cover)
	}
	return r
}

// doRequest performs an HTTP GET request to the Google Books API
func (c *GoogleBooksClient) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}
