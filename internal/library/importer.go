// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package library

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/validation"
)

// Format is the encoding of a library export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// maxImportBytes caps how much of an export is read.
const maxImportBytes = 32 << 20

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported library export extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// RejectedRecord describes a record dropped during import.
type RejectedRecord struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult reports what an import read and kept.
type ImportResult struct {
	Books    []models.LibraryBook `json:"-"`
	Total    int                  `json:"total"`
	Accepted int                  `json:"accepted"`
	Rejected []RejectedRecord     `json:"rejected,omitempty"`
}

// envelope lets an export wrap the list as {"books": [...]}.
type envelope struct {
	Books []models.LibraryBook `json:"books" yaml:"books"`
}

// Importer decodes library exports and drops malformed records.
type Importer struct {
	logger zerolog.Logger
}

// NewImporter creates an importer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewImporter(logger zerolog.Logger) *Importer {
	return &Importer{logger: logger.With().Str("component", "library_importer").Logger()}
}

// ReadFile decodes the export at path, choosing the format by extension.
func (im *Importer) ReadFile(path string) (*ImportResult, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("open library export: %w", err)
	}
	defer f.Close()

	return im.Read(f, format)
}

// Read decodes an export from r.
func (im *Importer) Read(r io.Reader, format Format) (*ImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read library export: %w", err)
	}
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("library export exceeds %d bytes", maxImportBytes)
	}

	books, err := decodeBooks(data, format)
	if err != nil {
		return nil, err
	}

	result := im.Filter(books)
	im.logger.Info().
		Str("format", string(format)).
		Int("total", result.Total).
		Int("accepted", result.Accepted).
		Int("rejected", len(result.Rejected)).
		Msg("Library export decoded")
	return result, nil
}

// Filter normalizes and validates books, keeping the well-formed ones.
func (im *Importer) Filter(books []models.LibraryBook) *ImportResult {
	result := &ImportResult{
		Books: make([]models.LibraryBook, 0, len(books)),
		Total: len(books),
	}
	for i := range books {
		b := normalizeBook(&books[i])
		if err := validation.ValidateBook(&b); err != nil {
			result.Rejected = append(result.Rejected, RejectedRecord{Index: i, ID: b.ID, Reason: err.Error()})
			im.logger.Debug().Int("index", i).Str("book_id", b.ID).Err(err).Msg("Dropping malformed library record")
			continue
		}
		result.Books = append(result.Books, b)
	}
	result.Accepted = len(result.Books)
	return result
}

// Import decodes the export at path and stores the accepted books for userID.
func (im *Importer) Import(ctx context.Context, store Store, userID, path string) (*ImportResult, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	result, err := im.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(result.Books) == 0 {
		return result, nil
	}
	if err := store.PutBooks(ctx, userID, result.Books); err != nil {
		return nil, fmt.Errorf("store imported books: %w", err)
	}
	return result, nil
}

func decodeBooks(data []byte, format Format) ([]models.LibraryBook, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.LibraryBook{}, nil
	}

	switch format {
	case FormatJSON:
		if trimmed[0] == '{' {
			var env envelope
			if err := json.Unmarshal(trimmed, &env); err != nil {
				return nil, fmt.Errorf("decode json library export: %w", err)
			}
			return env.Books, nil
		}
		var books []models.LibraryBook
		if err := json.Unmarshal(trimmed, &books); err != nil {
			return nil, fmt.Errorf("decode json library export: %w", err)
		}
		return books, nil

	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("decode yaml library export: %w", err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
			var env envelope
			if err := node.Decode(&env); err != nil {
				return nil, fmt.Errorf("decode yaml library export: %w", err)
			}
			return env.Books, nil
		}
		var books []models.LibraryBook
		if err := node.Decode(&books); err != nil {
			return nil, fmt.Errorf("decode yaml library export: %w", err)
		}
		return books, nil

	default:
		return nil, fmt.Errorf("unsupported library export format %q", format)
	}
}

// normalizeBook trims text fields and treats a zero rating as unrated.
func normalizeBook(b *models.LibraryBook) models.LibraryBook {
	out := cloneBook(b)
	out.ID = strings.TrimSpace(out.ID)
	out.Title = strings.TrimSpace(out.Title)
	out.Author = strings.TrimSpace(out.Author)
	out.CreatedAt = strings.TrimSpace(out.CreatedAt)
	out.Status = out.Status.Normalize()
	if out.Rating != nil && *out.Rating == 0 {
		out.Rating = nil
	}
	return out
}
