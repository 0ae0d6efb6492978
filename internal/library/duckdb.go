// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver

	"github.com/tomtom215/shelfwise/internal/models"
)

const duckdbSchema = `
CREATE TABLE IF NOT EXISTS library_books (
	user_id    VARCHAR NOT NULL,
	id         VARCHAR NOT NULL,
	title      VARCHAR NOT NULL,
	author     VARCHAR NOT NULL,
	status     VARCHAR NOT NULL,
	rating     INTEGER,
	created_at VARCHAR NOT NULL,
	PRIMARY KEY (user_id, id)
)`

const (
	duckdbSelectLibrary = `SELECT id, title, author, status, rating, created_at
FROM library_books WHERE user_id = ? ORDER BY created_at, id`

	duckdbSelectBook = `SELECT id, title, author, status, rating, created_at
FROM library_books WHERE user_id = ? AND id = ?`

	duckdbUpsertBook = `INSERT OR REPLACE INTO library_books
(user_id, id, title, author, status, rating, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	duckdbDeleteBook = `DELETE FROM library_books WHERE user_id = ? AND id = ?`
)

// DuckDBStore keeps libraries in a DuckDB table.
type DuckDBStore struct {
	conn *sql.DB
}

// OpenDuckDBStore opens the database at path (":memory:" for a private
// in-memory database) and creates the schema.
func OpenDuckDBStore(ctx context.Context, path string) (*DuckDBStore, error) {
	connStr := path
	if connStr == ":memory:" {
		connStr = ""
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if connStr == "" {
		conn.SetMaxOpenConns(1)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	if _, err := conn.ExecContext(ctx, duckdbSchema); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("create library schema: %w", err)
	}
	return &DuckDBStore{conn: conn}, nil
}

func closeQuietly(conn *sql.DB) {
	_ = conn.Close() //nolint:errcheck // best effort on an already failing path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (models.LibraryBook, error) {
	var (
		b      models.LibraryBook
		status string
		rating sql.NullInt64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &status, &rating, &b.CreatedAt); err != nil {
		return models.LibraryBook{}, err
	}
	b.Status = models.ReadingStatus(status)
	if rating.Valid {
		b.Rating = models.IntPtr(int(rating.Int64))
	}
	return b, nil
}

// GetLibrary returns the user's rows ordered by creation time.
func (s *DuckDBStore) GetLibrary(ctx context.Context, userID string) ([]models.LibraryBook, error) {
	rows, err := s.conn.QueryContext(ctx, duckdbSelectLibrary, userID)
	if err != nil {
		return nil, fmt.Errorf("query library: %w", err)
	}
	defer rows.Close()

	books := []models.LibraryBook{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan library row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate library rows: %w", err)
	}
	return books, nil
}

// GetBook returns one row.
func (s *DuckDBStore) GetBook(ctx context.Context, userID, bookID string) (models.LibraryBook, error) {
	b, err := scanBook(s.conn.QueryRowContext(ctx, duckdbSelectBook, userID, bookID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LibraryBook{}, ErrNotFound
		}
		return models.LibraryBook{}, fmt.Errorf("query book: %w", err)
	}
	return b, nil
}

// PutBooks upserts the books in one transaction. When the batch repeats an
// ID the last record wins.
func (s *DuckDBStore) PutBooks(ctx context.Context, userID string, books []models.LibraryBook) error {
	if err := checkUser(userID); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin library tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	stmt, err := tx.PrepareContext(ctx, duckdbUpsertBook)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range lastByID(books) {
		var rating any
		if b.Rating != nil {
			rating = *b.Rating
		}
		if _, err := stmt.ExecContext(ctx, userID, b.ID, b.Title, b.Author, string(b.Status), rating, b.CreatedAt); err != nil {
			return fmt.Errorf("upsert book %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit library tx: %w", err)
	}
	return nil
}

// DeleteBook removes one row.
func (s *DuckDBStore) DeleteBook(ctx context.Context, userID, bookID string) error {
	res, err := s.conn.ExecContext(ctx, duckdbDeleteBook, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}

// lastByID keeps the last occurrence of each ID, in first-seen order.
func lastByID(books []models.LibraryBook) []models.LibraryBook {
	index := make(map[string]int, len(books))
	out := make([]models.LibraryBook, 0, len(books))
	for i := range books {
		if pos, ok := index[books[i].ID]; ok {
			out[pos] = books[i]
			continue
		}
		index[books[i].ID] = len(out)
		out = append(out, books[i])
	}
	return out
}
