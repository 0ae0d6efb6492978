// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"sync"

	"github.com/tomtom215/shelfwise/internal/models"
)

// stubProvider records calls and answers with fixed results or an error.
type stubProvider struct {
	mu      sync.Mutex
	calls   int
	results []models.SearchResult
	err     error
}

func (s *stubProvider) Search(_ context.Context, _ string, _ int) ([]models.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.SearchResult{}, s.results...), nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubProvider) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
