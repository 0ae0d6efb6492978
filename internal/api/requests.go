// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/shelfwise/internal/validation"
)

// maxBodyBytes caps request bodies for library uploads.
const maxBodyBytes = 4 << 20

// maxBooksPerRequest caps a single PUT /library/books batch.
const maxBooksPerRequest = 1000

// RecommendationsRequest is the query of GET /recommendations.
// A zero limit selects the configured default.
type RecommendationsRequest struct {
	Limit int `json:"limit" validate:"min=0,max=1000"`
}

// SimilarRequest is the query of GET /recommendations/similar.
type SimilarRequest struct {
	Title  string `json:"title" validate:"notblank,max=300"`
	Author string `json:"author" validate:"max=200"`
	Limit  int    `json:"limit" validate:"min=0,max=1000"`
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// validateRequest validates req and writes a VALIDATION_ERROR response on
// failure. It reports whether the handler may continue.
func validateRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return true
	}
	respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, verr.Error(), verr.Details())
	return false
}
