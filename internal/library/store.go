// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package library stores each user's personal book library.
//
// Three backends implement Store:
//   - MemoryStore: process-local maps, used by tests and the CLI
//   - BadgerStore: embedded key-value store, one key per book
//   - DuckDBStore: embedded SQL database, one row per book
//
// Open builds the configured backend and wraps it in an ObservedStore that
// records Prometheus metrics and notifies subscribers after writes.
package library

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/shelfwise/internal/models"
)

// ErrNotFound is returned when a requested book is not in the user's library.
var ErrNotFound = errors.New("library: book not found")

// ErrInvalidUser is returned when the user ID is blank.
var ErrInvalidUser = errors.New("library: user id is required")

// Accessor reads a user's library.
type Accessor interface {
	GetLibrary(ctx context.Context, userID string) ([]models.LibraryBook, error)
}

// Store is a writable library backend.
type Store interface {
	Accessor

	// GetBook returns a single book or ErrNotFound.
	GetBook(ctx context.Context, userID, bookID string) (models.LibraryBook, error)

	// PutBooks inserts or replaces books by ID.
	PutBooks(ctx context.Context, userID string, books []models.LibraryBook) error

	// DeleteBook removes one book. Deleting a missing book returns ErrNotFound.
	DeleteBook(ctx context.Context, userID, bookID string) error

	Close() error
}

// Notifier is told about library writes after they commit.
type Notifier interface {
	LibraryChanged(ctx context.Context, userID string, bookIDs []string)
}

// Ensure the backends implement Store.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BadgerStore)(nil)
	_ Store = (*DuckDBStore)(nil)
	_ Store = (*ObservedStore)(nil)
)

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	return nil
}

// sortBooks orders a library by creation time and then ID so every backend
// returns the same sequence for the same data.
func sortBooks(books []models.LibraryBook) {
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].CreatedAt != books[j].CreatedAt {
			return books[i].CreatedAt < books[j].CreatedAt
		}
		return books[i].ID < books[j].ID
	})
}

func bookIDs(books []models.LibraryBook) []string {
	ids := make([]string, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	return ids
}

func cloneBook(b *models.LibraryBook) models.LibraryBook {
	out := *b
	if b.Rating != nil {
		out.Rating = models.IntPtr(*b.Rating)
	}
	return out
}
