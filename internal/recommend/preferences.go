// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tomtom215/shelfwise/internal/models"
)

const (
	maxFavoriteAuthors = 10
	maxMostReadAuthors = 5
	maxRatedAuthors    = 5
	maxRecentBooks     = 10
	maxPreferredStatus = 3
	highRatingMinimum  = 4
)

// PreferenceAnalyzer reduces a raw library into a UserPreferences profile.
type PreferenceAnalyzer struct {
	logger zerolog.Logger
}

// NewPreferenceAnalyzer creates an analyzer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPreferenceAnalyzer(logger zerolog.Logger) *PreferenceAnalyzer {
	return &PreferenceAnalyzer{
		logger: logger.With().Str("component", "preference_analyzer").Logger(),
	}
}

// ValidBooks returns the records that carry every required field and a known
// status, with the status normalized. Malformed records are dropped silently.
func ValidBooks(library []models.LibraryBook) []models.LibraryBook {
	valid := make([]models.LibraryBook, 0, len(library))
	for i := range library {
		b := library[i]
		b.Status = b.Status.Normalize()
		if isValidBook(&b) {
			valid = append(valid, b)
		}
	}
	return valid
}

func isValidBook(b *models.LibraryBook) bool {
	return strings.TrimSpace(b.ID) != "" &&
		strings.TrimSpace(b.Title) != "" &&
		strings.TrimSpace(b.Author) != "" &&
		b.Status.Normalize().Valid() &&
		strings.TrimSpace(b.CreatedAt) != ""
}

// Analyze builds the preference profile. It never fails: if profile
// construction panics the failure is logged and an empty profile is returned,
// which callers treat as a new reader.
func (a *PreferenceAnalyzer) Analyze(library []models.LibraryBook) (prefs UserPreferences) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Str("panic", fmt.Sprint(r)).Msg("preference analysis failed")
			prefs = UserPreferences{}
		}
	}()

	books := ValidBooks(library)
	prefs.ValidBooks = len(books)
	if len(books) == 0 {
		return prefs
	}

	var read, rated []models.LibraryBook
	for i := range books {
		if books[i].Status != models.StatusRead {
			continue
		}
		read = append(read, books[i])
		r, ok := books[i].RatingValue()
		if !ok {
			continue
		}
		rated = append(rated, books[i])
		if r >= highRatingMinimum {
			prefs.HighlyRatedBooks = append(prefs.HighlyRatedBooks, books[i])
		}
	}

	authorCounts := countAuthors(read)
	for i, ac := range authorCounts {
		if i < maxFavoriteAuthors {
			prefs.FavoriteAuthors = append(prefs.FavoriteAuthors, ac.Author)
		}
		if i < maxMostReadAuthors {
			prefs.ReadingPatterns.MostReadAuthors = append(prefs.ReadingPatterns.MostReadAuthors, ac)
		}
	}

	ratings := averageRatings(rated)
	if len(ratings) > maxRatedAuthors {
		ratings = ratings[:maxRatedAuthors]
	}
	prefs.ReadingPatterns.AverageRatingByAuthor = ratings

	prefs.RecentBooks = recentBooks(books, maxRecentBooks)
	prefs.AverageRating = meanRating(rated)
	prefs.PreferredStatus = topStatuses(books, maxPreferredStatus)

	a.logger.Debug().
		Int("valid_books", prefs.ValidBooks).
		Int("read", len(read)).
		Int("rated", len(rated)).
		Int("favorite_authors", len(prefs.FavoriteAuthors)).
		Msg("preferences analyzed")

	return prefs
}

// countAuthors tallies read books per author, most-read first. Ties keep the
// order in which authors first appear.
func countAuthors(read []models.LibraryBook) []AuthorCount {
	index := make(map[string]int)
	var counts []AuthorCount
	for i := range read {
		author := normalizeAuthor(read[i].Author)
		if pos, ok := index[author]; ok {
			counts[pos].Count++
			continue
		}
		index[author] = len(counts)
		counts = append(counts, AuthorCount{Author: author, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// averageRatings computes the mean rating per author, highest first.
func averageRatings(rated []models.LibraryBook) []AuthorRating {
	type acc struct {
		sum, count int
	}
	index := make(map[string]int)
	var authors []string
	var sums []acc
	for i := range rated {
		r, _ := rated[i].RatingValue()
		author := normalizeAuthor(rated[i].Author)
		pos, ok := index[author]
		if !ok {
			pos = len(sums)
			index[author] = pos
			authors = append(authors, author)
			sums = append(sums, acc{})
		}
		sums[pos].sum += r
		sums[pos].count++
	}

	out := make([]AuthorRating, len(authors))
	for i, author := range authors {
		out[i] = AuthorRating{Author: author, Average: float64(sums[i].sum) / float64(sums[i].count)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Average > out[j].Average
	})
	return out
}

// recentBooks sorts by creation time, newest first, with unparseable dates last.
func recentBooks(books []models.LibraryBook, n int) []models.LibraryBook {
	type dated struct {
		book models.LibraryBook
		ok   bool
		unix int64
	}
	items := make([]dated, len(books))
	for i := range books {
		t, ok := books[i].CreatedTime()
		items[i] = dated{book: books[i], ok: ok}
		if ok {
			items[i].unix = t.UnixNano()
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		return items[i].unix > items[j].unix
	})

	if len(items) > n {
		items = items[:n]
	}
	out := make([]models.LibraryBook, len(items))
	for i := range items {
		out[i] = items[i].book
	}
	return out
}

func meanRating(rated []models.LibraryBook) float64 {
	if len(rated) == 0 {
		return 0
	}
	sum := 0
	for i := range rated {
		r, _ := rated[i].RatingValue()
		sum += r
	}
	return float64(sum) / float64(len(rated))
}

func topStatuses(books []models.LibraryBook, n int) []StatusCount {
	index := make(map[models.ReadingStatus]int)
	var counts []StatusCount
	for i := range books {
		s := books[i].Status
		if pos, ok := index[s]; ok {
			counts[pos].Count++
			continue
		}
		index[s] = len(counts)
		counts = append(counts, StatusCount{Status: s, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
