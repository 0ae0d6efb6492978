// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/models"
)

// Key layout: library:{user}:{book}
const badgerKeyPrefix = "library:"

// BadgerStore keeps one JSON value per book in BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for library: %w", err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStoreFromDB wraps an existing database. Close leaves db open.
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func userPrefix(userID string) []byte {
	return []byte(badgerKeyPrefix + userID + ":")
}

func bookKey(userID, bookID string) []byte {
	return []byte(badgerKeyPrefix + userID + ":" + bookID)
}

// GetLibrary scans every key under the user's prefix.
func (s *BadgerStore) GetLibrary(ctx context.Context, userID string) ([]models.LibraryBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := userPrefix(userID)
	var books []models.LibraryBook

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var b models.LibraryBook
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			books = append(books, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan library: %w", err)
	}

	if books == nil {
		books = []models.LibraryBook{}
	}
	sortBooks(books)
	return books, nil
}

// GetBook reads one book.
func (s *BadgerStore) GetBook(ctx context.Context, userID, bookID string) (models.LibraryBook, error) {
	if err := ctx.Err(); err != nil {
		return models.LibraryBook{}, err
	}
	var b models.LibraryBook
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bookKey(userID, bookID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &b)
		})
	})
	if err != nil {
		return models.LibraryBook{}, err
	}
	return b, nil
}

// PutBooks writes all books in one transaction.
func (s *BadgerStore) PutBooks(ctx context.Context, userID string, books []models.LibraryBook) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range books {
		data, err := json.Marshal(&books[i])
		if err != nil {
			return fmt.Errorf("marshal book %s: %w", books[i].ID, err)
		}
		if err := wb.Set(bookKey(userID, books[i].ID), data); err != nil {
			return fmt.Errorf("write book %s: %w", books[i].ID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush library batch: %w", err)
	}
	return nil
}

// DeleteBook removes one key.
func (s *BadgerStore) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := bookKey(userID, bookID)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Close closes the database when the store opened it.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
