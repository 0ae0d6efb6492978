// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package models holds the value types shared by the library stores, search
// providers and the recommendation engine.
package models

import (
	"strings"
	"time"
)

// ReadingStatus is where a book sits on the user's shelf.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "want-to-read"
	StatusReading    ReadingStatus = "reading"
	StatusRead       ReadingStatus = "read"
	StatusRereading  ReadingStatus = "rereading"
)

// Normalize trims and lowercases s so "Read " and "READ" map to StatusRead.
// It does not check that the result is a known status.
func (s ReadingStatus) Normalize() ReadingStatus {
	return ReadingStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusRead, StatusRereading:
		return true
	default:
		return false
	}
}

// LibraryBook is one entry in a user's personal library.
//
// CreatedAt is kept as the raw timestamp string so that records with an
// unparseable date still take part in analysis (they sort as oldest).
type LibraryBook struct {
	ID        string        `json:"id" yaml:"id" validate:"notblank"`
	Title     string        `json:"title" yaml:"title" validate:"notblank"`
	Author    string        `json:"author" yaml:"author" validate:"notblank"`
	Status    ReadingStatus `json:"status" yaml:"status" validate:"required,readingstatus"`
	Rating    *int          `json:"rating,omitempty" yaml:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	CreatedAt string        `json:"created_at" yaml:"created_at" validate:"notblank"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedTime parses CreatedAt. The second return is false when the value
// matches none of the accepted layouts.
func (b *LibraryBook) CreatedTime() (time.Time, bool) {
	raw := strings.TrimSpace(b.CreatedAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RatingValue returns the rating and whether the book counts as rated.
func (b *LibraryBook) RatingValue() (int, bool) {
	if b.Rating == nil || *b.Rating <= 0 {
		return 0, false
	}
	return *b.Rating, true
}

// IntPtr is a convenience for building optional ratings.
func IntPtr(v int) *int {
	return &v
}

// SearchResult is a single hit returned by a book search provider.
type SearchResult struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Source        string   `json:"source"`
}

// FirstAuthor returns the first listed author, or "" when none is known.
func (r *SearchResult) FirstAuthor() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0]
}

// Strategy identifies which candidate-generation path produced a recommendation.
type Strategy string

const (
	StrategyFavoriteAuthor Strategy = "favorite_author"
	StrategySimilarTitle   Strategy = "similar_title"
	StrategySimilarAuthor  Strategy = "similar_author"
	StrategyPopular        Strategy = "popular"
)

// Priority orders strategies for tie-breaking; lower runs first.
func (s Strategy) Priority() int {
	switch s {
	case StrategyFavoriteAuthor:
		return 0
	case StrategySimilarTitle:
		return 1
	case StrategySimilarAuthor:
		return 2
	default:
		return 3
	}
}

// Recommendation is a search result annotated with why it was suggested and
// how well it matches the reader.
type Recommendation struct {
	SearchResult
	Reason     string   `json:"reason"`
	MatchScore float64  `json:"match_score"`
	Strategy   Strategy `json:"strategy"`
}
