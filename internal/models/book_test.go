// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestReadingStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []ReadingStatus{StatusWantToRead, StatusReading, StatusRead, StatusRereading} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []ReadingStatus{"", "finished", "READ"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestReadingStatusNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   ReadingStatus
		want ReadingStatus
	}{
		{"read", StatusRead},
		{"READ", StatusRead},
		{" Read ", StatusRead},
		{"Want-To-Read", StatusWantToRead},
		{"finished", "finished"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("ReadingStatus(%q).Normalize() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreatedTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-01T10:00:00Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"2024-03-01T10:00:00.123456Z", time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC), true},
		{"2024-03-01 10:00:00", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{" 2024-03-01 ", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		b := LibraryBook{CreatedAt: tt.raw}
		got, ok := b.CreatedTime()
		if ok != tt.wantOK || !got.Equal(tt.want) {
			t.Errorf("CreatedTime(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRatingValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rating *int
		want   int
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"zero", IntPtr(0), 0, false},
		{"five", IntPtr(5), 5, true},
	}
	for _, tt := range tests {
		b := LibraryBook{Rating: tt.rating}
		got, ok := b.RatingValue()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%s: RatingValue() = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRecommendationJSONIsFlat(t *testing.T) {
	t.Parallel()

	rec := Recommendation{
		SearchResult: SearchResult{ID: "v1", Title: "Dune Messiah", Authors: []string{"Frank Herbert"}, Source: "google_books"},
		Reason:       "Another book by Frank Herbert",
		MatchScore:   0.9,
		Strategy:     StrategyFavoriteAuthor,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if flat["title"] != "Dune Messiah" || flat["reason"] != "Another book by Frank Herbert" {
		t.Errorf("unexpected JSON shape: %s", data)
	}
	if _, nested := flat["SearchResult"]; nested {
		t.Errorf("SearchResult should be embedded, got %s", data)
	}
}

func TestStrategyPriority(t *testing.T) {
	t.Parallel()

	order := []Strategy{StrategyFavoriteAuthor, StrategySimilarTitle, StrategySimilarAuthor, StrategyPopular}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Errorf("%s should outrank %s", order[i-1], order[i])
		}
	}
}
