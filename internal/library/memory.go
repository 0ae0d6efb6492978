// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"context"
	"sync"

	"github.com/tomtom215/shelfwise/internal/models"
)

// MemoryStore keeps libraries in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]models.LibraryBook
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]models.LibraryBook)}
}

// GetLibrary returns a copy of the user's books. An unknown user has an empty library.
func (s *MemoryStore) GetLibrary(ctx context.Context, userID string) ([]models.LibraryBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	shelf := s.users[userID]
	books := make([]models.LibraryBook, 0, len(shelf))
	for id := range shelf {
		b := shelf[id]
		books = append(books, cloneBook(&b))
	}
	sortBooks(books)
	return books, nil
}

// GetBook returns one book.
func (s *MemoryStore) GetBook(ctx context.Context, userID, bookID string) (models.LibraryBook, error) {
	if err := ctx.Err(); err != nil {
		return models.LibraryBook{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.users[userID][bookID]
	if !ok {
		return models.LibraryBook{}, ErrNotFound
	}
	return cloneBook(&b), nil
}

// PutBooks upserts books by ID.
func (s *MemoryStore) PutBooks(ctx context.Context, userID string, books []models.LibraryBook) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	shelf, ok := s.users[userID]
	if !ok {
		shelf = make(map[string]models.LibraryBook, len(books))
		s.users[userID] = shelf
	}
	for i := range books {
		shelf[books[i].ID] = cloneBook(&books[i])
	}
	return nil
}

// DeleteBook removes one book.
func (s *MemoryStore) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	shelf := s.users[userID]
	if _, ok := shelf[bookID]; !ok {
		return ErrNotFound
	}
	delete(shelf, bookID)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
