// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/shelfwise/internal/models"
)

func testBook(id, title, author string, status models.ReadingStatus, rating int, created string) models.LibraryBook {
	b := models.LibraryBook{
		ID:        id,
		Title:     title,
		Author:    author,
		Status:    status,
		CreatedAt: created,
	}
	if rating > 0 {
		b.Rating = models.IntPtr(rating)
	}
	return b
}

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerStoreFromDB(db)
}

func newTestDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()
	s, err := OpenDuckDBStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenDuckDBStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends returns a constructor per Store implementation so the same
// behavior is checked against each.
func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store { return newTestBadgerStore(t) },
		"duckdb": func(t *testing.T) Store { return newTestDuckDBStore(t) },
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := open(t)

			books := []models.LibraryBook{
				testBook("b2", "Children of Dune", "Frank Herbert", models.StatusReading, 0, "2024-02-01T00:00:00Z"),
				testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01T00:00:00Z"),
			}
			if err := s.PutBooks(ctx, "alice", books); err != nil {
				t.Fatalf("PutBooks() error = %v", err)
			}

			got, err := s.GetLibrary(ctx, "alice")
			if err != nil {
				t.Fatalf("GetLibrary() error = %v", err)
			}
			want := []models.LibraryBook{books[1], books[0]}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("GetLibrary() mismatch (-want +got):\n%s", diff)
			}

			one, err := s.GetBook(ctx, "alice", "b1")
			if err != nil {
				t.Fatalf("GetBook() error = %v", err)
			}
			if diff := cmp.Diff(books[1], one); diff != "" {
				t.Errorf("GetBook() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := open(t)

			first := testBook("b1", "Dune", "Frank Herbert", models.StatusWantToRead, 0, "2024-01-01")
			if err := s.PutBooks(ctx, "alice", []models.LibraryBook{first}); err != nil {
				t.Fatalf("PutBooks() error = %v", err)
			}
			updated := testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 4, "2024-01-01")
			if err := s.PutBooks(ctx, "alice", []models.LibraryBook{updated}); err != nil {
				t.Fatalf("PutBooks() update error = %v", err)
			}

			got, err := s.GetLibrary(ctx, "alice")
			if err != nil {
				t.Fatalf("GetLibrary() error = %v", err)
			}
			if diff := cmp.Diff([]models.LibraryBook{updated}, got); diff != "" {
				t.Errorf("GetLibrary() after upsert mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreIsolatesUsers(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := open(t)

			if err := s.PutBooks(ctx, "alice", []models.LibraryBook{
				testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01"),
			}); err != nil {
				t.Fatalf("PutBooks(alice) error = %v", err)
			}
			if err := s.PutBooks(ctx, "bob", []models.LibraryBook{
				testBook("b9", "Emma", "Jane Austen", models.StatusRead, 3, "2024-01-01"),
			}); err != nil {
				t.Fatalf("PutBooks(bob) error = %v", err)
			}

			got, err := s.GetLibrary(ctx, "bob")
			if err != nil {
				t.Fatalf("GetLibrary() error = %v", err)
			}
			if len(got) != 1 || got[0].ID != "b9" {
				t.Errorf("GetLibrary(bob) = %+v, want only b9", got)
			}

			empty, err := s.GetLibrary(ctx, "carol")
			if err != nil {
				t.Fatalf("GetLibrary(carol) error = %v", err)
			}
			if empty == nil || len(empty) != 0 {
				t.Errorf("GetLibrary(carol) = %#v, want empty non-nil slice", empty)
			}

			if _, err := s.GetBook(ctx, "bob", "b1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetBook(bob, b1) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := open(t)

			if err := s.PutBooks(ctx, "alice", []models.LibraryBook{
				testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01"),
				testBook("b2", "Emma", "Jane Austen", models.StatusRead, 0, "2024-01-02"),
			}); err != nil {
				t.Fatalf("PutBooks() error = %v", err)
			}

			if err := s.DeleteBook(ctx, "alice", "b1"); err != nil {
				t.Fatalf("DeleteBook() error = %v", err)
			}
			if err := s.DeleteBook(ctx, "alice", "b1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second DeleteBook() error = %v, want ErrNotFound", err)
			}

			got, err := s.GetLibrary(ctx, "alice")
			if err != nil {
				t.Fatalf("GetLibrary() error = %v", err)
			}
			if len(got) != 1 || got[0].ID != "b2" {
				t.Errorf("GetLibrary() = %+v, want only b2", got)
			}
		})
	}
}

func TestStoreRejectsBlankUser(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			err := s.PutBooks(context.Background(), "  ", []models.LibraryBook{
				testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01"),
			})
			if !errors.Is(err, ErrInvalidUser) {
				t.Errorf("PutBooks(blank user) error = %v, want ErrInvalidUser", err)
			}
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore()

	in := []models.LibraryBook{testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01")}
	if err := s.PutBooks(ctx, "alice", in); err != nil {
		t.Fatalf("PutBooks() error = %v", err)
	}
	*in[0].Rating = 1

	got, err := s.GetLibrary(ctx, "alice")
	if err != nil {
		t.Fatalf("GetLibrary() error = %v", err)
	}
	if *got[0].Rating != 5 {
		t.Errorf("stored rating = %d, want 5 (caller mutation leaked)", *got[0].Rating)
	}
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemoryStore().GetLibrary(ctx, "alice"); !errors.Is(err, context.Canceled) {
		t.Errorf("GetLibrary() error = %v, want context.Canceled", err)
	}
}

func TestDuckDBStoreBatchRepeatsLastWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestDuckDBStore(t)

	err := s.PutBooks(ctx, "alice", []models.LibraryBook{
		testBook("b1", "Dune", "Frank Herbert", models.StatusReading, 0, "2024-01-01"),
		testBook("b1", "Dune", "Frank Herbert", models.StatusRead, 5, "2024-01-01"),
	})
	if err != nil {
		t.Fatalf("PutBooks() error = %v", err)
	}
	got, err := s.GetBook(ctx, "alice", "b1")
	if err != nil {
		t.Fatalf("GetBook() error = %v", err)
	}
	if got.Status != models.StatusRead {
		t.Errorf("Status = %s, want read", got.Status)
	}
}

func TestLastByID(t *testing.T) {
	t.Parallel()

	in := []models.LibraryBook{
		{ID: "a", Title: "first"},
		{ID: "b", Title: "b"},
		{ID: "a", Title: "second"},
	}
	got := lastByID(in)
	want := []models.LibraryBook{{ID: "a", Title: "second"}, {ID: "b", Title: "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lastByID() mismatch (-want +got):\n%s", diff)
	}
}
