// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tomtom215/shelfwise/internal/models"
)

func TestValidBooksDropsMalformedRecords(t *testing.T) {
	t.Parallel()

	library := []models.LibraryBook{
		book("1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01T00:00:00Z"),
		{ID: "", Title: "No ID", Author: "A", Status: models.StatusRead, CreatedAt: "2024-01-01"},
		{ID: "3", Title: "  ", Author: "A", Status: models.StatusRead, CreatedAt: "2024-01-01"},
		{ID: "4", Title: "No Author", Status: models.StatusRead, CreatedAt: "2024-01-01"},
		{ID: "5", Title: "No Status", Author: "A", CreatedAt: "2024-01-01"},
		{ID: "6", Title: "Bad Status", Author: "A", Status: "finished", CreatedAt: "2024-01-01"},
		{ID: "7", Title: "No Date", Author: "A", Status: models.StatusReading},
		{ID: "8", Title: "Odd Date", Author: "A", Status: models.StatusReading, CreatedAt: "last week"},
	}

	got := ValidBooks(library)
	var ids []string
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	if diff := cmp.Diff([]string{"1", "8"}, ids); diff != "" {
		t.Errorf("ValidBooks ids mismatch (-want +got):\n%s", diff)
	}
}

func TestValidBooksNormalizesStatus(t *testing.T) {
	t.Parallel()

	library := []models.LibraryBook{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Status: "READ", Rating: models.IntPtr(5), CreatedAt: "2024-01-01"},
		{ID: "2", Title: "Emma", Author: "Jane Austen", Status: " Reading ", CreatedAt: "2024-01-02"},
	}

	got := ValidBooks(library)
	if len(got) != 2 {
		t.Fatalf("ValidBooks returned %d books, want 2", len(got))
	}
	if got[0].Status != models.StatusRead || got[1].Status != models.StatusReading {
		t.Errorf("statuses = %q, %q; want %q, %q", got[0].Status, got[1].Status, models.StatusRead, models.StatusReading)
	}
	if library[0].Status != "READ" {
		t.Errorf("input record was modified: status = %q", library[0].Status)
	}

	prefs := NewPreferenceAnalyzer(testLogger()).Analyze(library)
	if diff := cmp.Diff([]string{"Frank Herbert"}, prefs.FavoriteAuthors); diff != "" {
		t.Errorf("FavoriteAuthors mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeEmptyLibrary(t *testing.T) {
	t.Parallel()

	prefs := NewPreferenceAnalyzer(testLogger()).Analyze(nil)
	if !prefs.IsNewReader() {
		t.Error("empty library should produce a new-reader profile")
	}
	if prefs.AverageRating != 0 || len(prefs.FavoriteAuthors) != 0 {
		t.Errorf("expected zeroed profile, got %+v", prefs)
	}
}

func TestAnalyzeProfile(t *testing.T) {
	t.Parallel()

	library := []models.LibraryBook{
		book("1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-05T00:00:00Z"),
		book("2", "Dune Messiah", "Frank Herbert", models.StatusRead, 3, "2024-01-04T00:00:00Z"),
		book("3", "Emma", "Jane Austen", models.StatusRead, 4, "2024-01-03T00:00:00Z"),
		book("4", "Persuasion", " Jane Austen ", models.StatusRead, 0, "2024-01-02T00:00:00Z"),
		book("5", "Ulysses", "James Joyce", models.StatusRead, 2, "not a date"),
		book("6", "Neuromancer", "William Gibson", models.StatusReading, 0, "2024-01-06T00:00:00Z"),
		book("7", "Beloved", "Toni Morrison", models.StatusWantToRead, 0, "2024-01-01T00:00:00Z"),
		book("8", "Sula", "Toni Morrison", models.StatusWantToRead, 0, "2023-12-31T00:00:00Z"),
	}

	prefs := NewPreferenceAnalyzer(testLogger()).Analyze(library)

	if prefs.ValidBooks != 8 {
		t.Errorf("ValidBooks = %d, want 8", prefs.ValidBooks)
	}

	wantFavorites := []string{"Frank Herbert", "Jane Austen", "James Joyce"}
	if diff := cmp.Diff(wantFavorites, prefs.FavoriteAuthors); diff != "" {
		t.Errorf("FavoriteAuthors mismatch (-want +got):\n%s", diff)
	}

	wantMostRead := []AuthorCount{
		{Author: "Frank Herbert", Count: 2},
		{Author: "Jane Austen", Count: 2},
		{Author: "James Joyce", Count: 1},
	}
	if diff := cmp.Diff(wantMostRead, prefs.ReadingPatterns.MostReadAuthors); diff != "" {
		t.Errorf("MostReadAuthors mismatch (-want +got):\n%s", diff)
	}

	wantRatings := []AuthorRating{
		{Author: "Frank Herbert", Average: 4},
		{Author: "Jane Austen", Average: 4},
		{Author: "James Joyce", Average: 2},
	}
	if diff := cmp.Diff(wantRatings, prefs.ReadingPatterns.AverageRatingByAuthor); diff != "" {
		t.Errorf("AverageRatingByAuthor mismatch (-want +got):\n%s", diff)
	}

	var highly []string
	for _, b := range prefs.HighlyRatedBooks {
		highly = append(highly, b.Title)
	}
	if diff := cmp.Diff([]string{"Dune", "Emma"}, highly); diff != "" {
		t.Errorf("HighlyRatedBooks mismatch (-want +got):\n%s", diff)
	}

	// (5 + 3 + 4 + 2) / 4
	if prefs.AverageRating != 3.5 {
		t.Errorf("AverageRating = %v, want 3.5", prefs.AverageRating)
	}

	var recent []string
	for _, b := range prefs.RecentBooks {
		recent = append(recent, b.ID)
	}
	if diff := cmp.Diff([]string{"6", "1", "2", "3", "4", "7", "8", "5"}, recent); diff != "" {
		t.Errorf("RecentBooks order mismatch (-want +got):\n%s", diff)
	}

	wantStatus := []StatusCount{
		{Status: models.StatusRead, Count: 5},
		{Status: models.StatusWantToRead, Count: 2},
		{Status: models.StatusReading, Count: 1},
	}
	if diff := cmp.Diff(wantStatus, prefs.PreferredStatus); diff != "" {
		t.Errorf("PreferredStatus mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeCapsLists(t *testing.T) {
	t.Parallel()

	var library []models.LibraryBook
	for i := 0; i < 15; i++ {
		author := fmt.Sprintf("Author %02d", i)
		for j := 0; j <= i%3; j++ {
			id := fmt.Sprintf("%d-%d", i, j)
			library = append(library, book(id, "Title "+id, author, models.StatusRead, 1+i%5, fmt.Sprintf("2024-01-%02dT00:00:00Z", 1+i)))
		}
	}

	prefs := NewPreferenceAnalyzer(testLogger()).Analyze(library)

	if len(prefs.FavoriteAuthors) != maxFavoriteAuthors {
		t.Errorf("len(FavoriteAuthors) = %d, want %d", len(prefs.FavoriteAuthors), maxFavoriteAuthors)
	}
	if len(prefs.ReadingPatterns.MostReadAuthors) != maxMostReadAuthors {
		t.Errorf("len(MostReadAuthors) = %d, want %d", len(prefs.ReadingPatterns.MostReadAuthors), maxMostReadAuthors)
	}
	if len(prefs.ReadingPatterns.AverageRatingByAuthor) != maxRatedAuthors {
		t.Errorf("len(AverageRatingByAuthor) = %d, want %d", len(prefs.ReadingPatterns.AverageRatingByAuthor), maxRatedAuthors)
	}
	if len(prefs.RecentBooks) != maxRecentBooks {
		t.Errorf("len(RecentBooks) = %d, want %d", len(prefs.RecentBooks), maxRecentBooks)
	}
	for i := 1; i < len(prefs.ReadingPatterns.MostReadAuthors); i++ {
		prev, cur := prefs.ReadingPatterns.MostReadAuthors[i-1], prefs.ReadingPatterns.MostReadAuthors[i]
		if prev.Count < cur.Count {
			t.Errorf("MostReadAuthors not sorted: %+v before %+v", prev, cur)
		}
	}
}

func TestAnalyzeIsCaseSensitiveOnAuthors(t *testing.T) {
	t.Parallel()

	library := []models.LibraryBook{
		book("1", "A", "bell hooks", models.StatusRead, 0, "2024-01-01"),
		book("2", "B", "Bell Hooks", models.StatusRead, 0, "2024-01-02"),
	}
	prefs := NewPreferenceAnalyzer(testLogger()).Analyze(library)
	if len(prefs.FavoriteAuthors) != 2 {
		t.Errorf("FavoriteAuthors = %v, want two distinct spellings", prefs.FavoriteAuthors)
	}
}
