// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"

	"github.com/tomtom215/shelfwise/internal/models"
)

// SearchProvider is the external catalog the candidates come from.
// Search must return an empty slice, not an error, when nothing matches.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// LibraryAccessor reads a user's library. It is called once per request.
type LibraryAccessor interface {
	GetLibrary(ctx context.Context, userID string) ([]models.LibraryBook, error)
}

// AuthorCount pairs an author with how many of their books were read.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// AuthorRating pairs an author with the mean rating of their rated books.
type AuthorRating struct {
	Author  string  `json:"author"`
	Average float64 `json:"average"`
}

// StatusCount pairs a reading status with its frequency in the library.
type StatusCount struct {
	Status models.ReadingStatus `json:"status"`
	Count  int                  `json:"count"`
}

// ReadingPatterns summarizes per-author reading behavior.
type ReadingPatterns struct {
	MostReadAuthors       []AuthorCount  `json:"most_read_authors"`
	AverageRatingByAuthor []AuthorRating `json:"average_rating_by_author"`
}

// UserPreferences is the taste profile derived from a library. It is
// recomputed on every request and never stored.
type UserPreferences struct {
	FavoriteAuthors  []string             `json:"favorite_authors"`
	HighlyRatedBooks []models.LibraryBook `json:"highly_rated_books"`
	RecentBooks      []models.LibraryBook `json:"recent_books"`
	ReadingPatterns  ReadingPatterns      `json:"reading_patterns"`
	PreferredStatus  []StatusCount        `json:"preferred_status"`
	AverageRating    float64              `json:"average_rating"`

	// ValidBooks is how many library records survived validation. Zero
	// marks a new reader.
	ValidBooks int `json:"valid_books"`
}

// IsNewReader reports whether the profile was built from an empty library.
func (p *UserPreferences) IsNewReader() bool {
	return p.ValidBooks == 0
}

// highlyRatedAuthors returns the distinct authors of the highly rated books in order.
func (p *UserPreferences) highlyRatedAuthors() []string {
	seen := make(map[string]struct{}, len(p.HighlyRatedBooks))
	authors := make([]string, 0, len(p.HighlyRatedBooks))
	for i := range p.HighlyRatedBooks {
		a := normalizeAuthor(p.HighlyRatedBooks[i].Author)
		if _, ok := seen[a]; ok || a == "" {
			continue
		}
		seen[a] = struct{}{}
		authors = append(authors, a)
	}
	return authors
}

// Profile bundles everything derived from one library snapshot for the
// lifetime of a single request.
type Profile struct {
	Preferences UserPreferences

	library     *libraryIndex
	highlyRated []string
}

// NewProfile pairs prefs with a lookup index over the raw library it was
// built from, including records the analyzer dropped as malformed.
//
//nolint:gocritic // UserPreferences is copied once per request
func NewProfile(prefs UserPreferences, library []models.LibraryBook) *Profile {
	return &Profile{
		Preferences: prefs,
		library:     newLibraryIndex(library),
		highlyRated: prefs.highlyRatedAuthors(),
	}
}

// index returns the library index, tolerating a nil profile.
func (p *Profile) index() *libraryIndex {
	if p == nil {
		return nil
	}
	return p.library
}
