// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/library"
	"github.com/tomtom215/shelfwise/internal/models"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// PutBooksResult is the body of a successful PUT /library/books.
type PutBooksResult struct {
	Stored int `json:"stored"`
}

// Health reports liveness. It does not require authentication.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, HealthStatus{Status: "ok", Version: h.version})
}

// Recommendations handles GET /api/v1/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	req := RecommendationsRequest{Limit: limit}
	if !validateRequest(w, r, &req) {
		return
	}

	respondList(w, r, h.recommender.GetRecommendations(r.Context(), userID, req.Limit))
}

// SimilarBooks handles GET /api/v1/recommendations/similar.
func (h *Handler) SimilarBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	q := r.URL.Query()
	req := SimilarRequest{
		Title:  strings.TrimSpace(q.Get("title")),
		Author: strings.TrimSpace(q.Get("author")),
		Limit:  limit,
	}
	if !validateRequest(w, r, &req) {
		return
	}

	respondList(w, r, h.recommender.GetSimilarBooks(r.Context(), userID, req.Title, req.Author, req.Limit))
}

// Profile handles GET /api/v1/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	prefs, err := h.recommender.Preferences(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load reading profile", err)
		return
	}
	respondSuccess(w, r, prefs)
}

// Library handles GET /api/v1/library.
func (h *Handler) Library(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	books, err := h.store.GetLibrary(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load library", err)
		return
	}
	respondList(w, r, books)
}

// PutBooks handles PUT /api/v1/library/books. The body is a JSON array of
// books. The batch is stored only if every record is valid.
func (h *Handler) PutBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	books, err := decodeBookArray(w, r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), err)
		return
	}
	if len(books) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "at least one book is required", nil)
		return
	}
	if len(books) > maxBooksPerRequest {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("at most %d books per request", maxBooksPerRequest), nil)
		return
	}

	result := h.importer.Filter(books)
	if len(result.Rejected) > 0 {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("%d of %d books are invalid", len(result.Rejected), result.Total),
			map[string]interface{}{"rejected": result.Rejected})
		return
	}

	if err := h.store.PutBooks(r.Context(), userID, result.Books); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to store books", err)
		return
	}
	respondSuccess(w, r, PutBooksResult{Stored: len(result.Books)})
}

// DeleteBook handles DELETE /api/v1/library/books/{id}.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	bookID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "id must not be blank", nil)
		return
	}

	err := h.store.DeleteBook(r.Context(), userID, bookID)
	switch {
	case errors.Is(err, library.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "book not found", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to delete book", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required", nil)
		return "", false
	}
	return userID, true
}

func decodeBookArray(w http.ResponseWriter, r *http.Request) ([]models.LibraryBook, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}

	var books []models.LibraryBook
	if err := json.Unmarshal(body, &books); err != nil {
		return nil, errors.New("request body must be a JSON array of books")
	}
	return books, nil
}
