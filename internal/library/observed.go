// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// ObservedStore wraps a backend with operation metrics, debug logging and
// change notification.
type ObservedStore struct {
	next     Store
	backend  string
	notifier Notifier
	logger   zerolog.Logger
}

// NewObservedStore wraps next. notifier may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewObservedStore(next Store, backend string, notifier Notifier, logger zerolog.Logger) *ObservedStore {
	return &ObservedStore{
		next:     next,
		backend:  backend,
		notifier: notifier,
		logger:   logger.With().Str("component", "library").Str("backend", backend).Logger(),
	}
}

// SetNotifier replaces the change notifier. It is meant to be called once
// during startup, before the store is shared.
func (s *ObservedStore) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetLibrary implements Accessor.
func (s *ObservedStore) GetLibrary(ctx context.Context, userID string) ([]models.LibraryBook, error) {
	books, err := s.next.GetLibrary(ctx, userID)
	metrics.RecordLibraryOperation(s.backend, "get_library", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to read library")
		return nil, err
	}
	return books, nil
}

// GetBook implements Store.
func (s *ObservedStore) GetBook(ctx context.Context, userID, bookID string) (models.LibraryBook, error) {
	b, err := s.next.GetBook(ctx, userID, bookID)
	metrics.RecordLibraryOperation(s.backend, "get_book", ignoreNotFound(err))
	return b, err
}

// PutBooks implements Store and notifies on success.
func (s *ObservedStore) PutBooks(ctx context.Context, userID string, books []models.LibraryBook) error {
	if len(books) == 0 {
		return nil
	}
	err := s.next.PutBooks(ctx, userID, books)
	metrics.RecordLibraryOperation(s.backend, "put_books", err)
	if err != nil {
		return err
	}

	ids := bookIDs(books)
	s.logger.Debug().Str("user_id", userID).Int("count", len(ids)).Msg("Library books stored")
	s.notify(ctx, userID, ids)
	return nil
}

// DeleteBook implements Store and notifies on success.
func (s *ObservedStore) DeleteBook(ctx context.Context, userID, bookID string) error {
	err := s.next.DeleteBook(ctx, userID, bookID)
	metrics.RecordLibraryOperation(s.backend, "delete_book", ignoreNotFound(err))
	if err != nil {
		return err
	}

	s.logger.Debug().Str("user_id", userID).Str("book_id", bookID).Msg("Library book deleted")
	s.notify(ctx, userID, []string{bookID})
	return nil
}

// Close closes the wrapped backend.
func (s *ObservedStore) Close() error {
	return s.next.Close()
}

// Backend returns the backend name.
func (s *ObservedStore) Backend() string {
	return s.backend
}

func (s *ObservedStore) notify(ctx context.Context, userID string, ids []string) {
	if s.notifier == nil {
		return
	}
	s.notifier.LibraryChanged(ctx, userID, ids)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
