// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/library"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/middleware"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/recommend"
)

const testSecret = "api-test-secret-with-at-least-32-characters"

type recommendCall struct {
	UserID string
	Title  string
	Author string
	Limit  int
}

type fakeRecommender struct {
	mu       sync.Mutex
	calls    []recommendCall
	recs     []models.Recommendation
	prefs    recommend.UserPreferences
	prefsErr error
}

func (f *fakeRecommender) GetRecommendations(_ context.Context, userID string, limit int) []models.Recommendation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recommendCall{UserID: userID, Limit: limit})
	return f.recs
}

func (f *fakeRecommender) GetSimilarBooks(_ context.Context, userID, title, author string, limit int) []models.Recommendation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recommendCall{UserID: userID, Title: title, Author: author, Limit: limit})
	return f.recs
}

func (f *fakeRecommender) Preferences(_ context.Context, _ string) (recommend.UserPreferences, error) {
	return f.prefs, f.prefsErr
}

func (f *fakeRecommender) lastCall() recommendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return recommendCall{}
	}
	return f.calls[len(f.calls)-1]
}

type testEnvelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Error    *Error          `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func noneSecurity() *config.SecurityConfig {
	return &config.SecurityConfig{
		AuthMode:          config.AuthModeNone,
		DefaultUserID:     "default",
		RateLimitDisabled: true,
	}
}

func newTestServer(t *testing.T, rec Recommender, store library.Store, sec *config.SecurityConfig) http.Handler {
	t.Helper()
	h, err := NewHandler(rec, store, "test", logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	router, err := h.Router(sec)
	if err != nil {
		t.Fatalf("Router() error = %v", err)
	}
	return router
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env testEnvelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func sampleBooksJSON() string {
	return `[
		{"id": "b1", "title": "Dune", "author": "Frank Herbert", "status": "read", "rating": 5, "created_at": "2024-01-01"},
		{"id": "b2", "title": "Emma", "author": "Jane Austen", "status": "Want-To-Read", "created_at": "2024-02-01"}
	]`
}

func TestNewHandlerRequiresDependencies(t *testing.T) {
	t.Parallel()

	logger := logging.NewTestLogger(io.Discard)
	if _, err := NewHandler(nil, library.NewMemoryStore(), "", logger); err == nil {
		t.Error("NewHandler() with nil recommender: expected error")
	}
	if _, err := NewHandler(&fakeRecommender{}, nil, "", logger); err == nil {
		t.Error("NewHandler() with nil store: expected error")
	}
}

func TestRouterRejectsUnknownAuthMode(t *testing.T) {
	t.Parallel()

	h, err := NewHandler(&fakeRecommender{}, library.NewMemoryStore(), "", logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if _, err := h.Router(&config.SecurityConfig{AuthMode: "ldap"}); err == nil {
		t.Error("Router() with unknown auth mode: expected error")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())
	rec, env := do(t, srv, http.MethodGet, "/api/v1/health", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Status != statusSuccess {
		t.Errorf("envelope status = %q, want %q", env.Status, statusSuccess)
	}
	var health HealthStatus
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if diff := cmp.Diff(HealthStatus{Status: "ok", Version: "test"}, health); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
	if env.Metadata.RequestID == "" {
		t.Error("metadata.request_id is empty")
	}
	if got := rec.Header().Get(middleware.RequestIDHeader); got != env.Metadata.RequestID {
		t.Errorf("%s header = %q, want %q", middleware.RequestIDHeader, got, env.Metadata.RequestID)
	}
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{recs: []models.Recommendation{
		{
			SearchResult: models.SearchResult{ID: "v1", Title: "Dune Messiah", Authors: []string{"Frank Herbert"}},
			Reason:       "By Frank Herbert",
			MatchScore:   0.9,
			Strategy:     models.StrategyFavoriteAuthor,
		},
	}}
	srv := newTestServer(t, fake, library.NewMemoryStore(), noneSecurity())

	rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations?limit=5", "", map[string]string{auth.UserIDHeader: "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := fake.lastCall(); got != (recommendCall{UserID: "alice", Limit: 5}) {
		t.Errorf("recommender call = %+v", got)
	}
	var recs []models.Recommendation
	if err := json.Unmarshal(env.Data, &recs); err != nil {
		t.Fatalf("decode recommendations: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "v1" {
		t.Errorf("recommendations = %+v", recs)
	}
	if env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Errorf("metadata.count = %v, want 1", env.Metadata.Count)
	}
}

func TestRecommendationsEmptyListIsArray(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())
	rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if string(env.Data) != "[]" {
		t.Errorf("data = %s, want []", env.Data)
	}
}

func TestRecommendationsLimitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "default", query: "", status: http.StatusOK},
		{name: "zero", query: "?limit=0", status: http.StatusOK},
		{name: "not a number", query: "?limit=ten", status: http.StatusBadRequest},
		{name: "negative", query: "?limit=-1", status: http.StatusBadRequest},
		{name: "too large", query: "?limit=1001", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())
			rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations"+tt.query, "", nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusBadRequest {
				if env.Error == nil || env.Error.Code != ErrCodeValidation {
					t.Errorf("error = %+v, want code %s", env.Error, ErrCodeValidation)
				}
			}
		})
	}
}

func TestSimilarBooks(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{}
	srv := newTestServer(t, fake, library.NewMemoryStore(), noneSecurity())

	rec, _ := do(t, srv, http.MethodGet, "/api/v1/recommendations/similar?title=%20Dune%20&author=Frank+Herbert&limit=3", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	want := recommendCall{UserID: "default", Title: "Dune", Author: "Frank Herbert", Limit: 3}
	if got := fake.lastCall(); got != want {
		t.Errorf("recommender call = %+v, want %+v", got, want)
	}
}

func TestSimilarBooksRequiresTitle(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{}
	srv := newTestServer(t, fake, library.NewMemoryStore(), noneSecurity())

	rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations/similar?title=%20%20", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Fatalf("error = %+v, want %s", env.Error, ErrCodeValidation)
	}
	if !strings.Contains(env.Error.Message, "title") {
		t.Errorf("message %q does not name the title field", env.Error.Message)
	}
	if len(fake.calls) != 0 {
		t.Errorf("recommender called %d times, want 0", len(fake.calls))
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{prefs: recommend.UserPreferences{
		FavoriteAuthors: []string{"Frank Herbert"},
		AverageRating:   4.5,
		ValidBooks:      2,
	}}
	srv := newTestServer(t, fake, library.NewMemoryStore(), noneSecurity())

	rec, env := do(t, srv, http.MethodGet, "/api/v1/profile", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var prefs recommend.UserPreferences
	if err := json.Unmarshal(env.Data, &prefs); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if diff := cmp.Diff([]string{"Frank Herbert"}, prefs.FavoriteAuthors); diff != "" {
		t.Errorf("favorite authors mismatch (-want +got):\n%s", diff)
	}
	if prefs.ValidBooks != 2 {
		t.Errorf("valid books = %d, want 2", prefs.ValidBooks)
	}
}

func TestProfileError(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{prefsErr: errors.New("store offline")}
	srv := newTestServer(t, fake, library.NewMemoryStore(), noneSecurity())

	rec, env := do(t, srv, http.MethodGet, "/api/v1/profile", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeInternal {
		t.Fatalf("error = %+v", env.Error)
	}
	if strings.Contains(env.Error.Message, "offline") {
		t.Errorf("internal error leaked to client: %q", env.Error.Message)
	}
}

func TestLibraryLifecycle(t *testing.T) {
	t.Parallel()

	store := library.NewMemoryStore()
	srv := newTestServer(t, &fakeRecommender{}, store, noneSecurity())
	alice := map[string]string{auth.UserIDHeader: "alice"}

	rec, env := do(t, srv, http.MethodPut, "/api/v1/library/books", sampleBooksJSON(), alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var put PutBooksResult
	if err := json.Unmarshal(env.Data, &put); err != nil {
		t.Fatalf("decode put result: %v", err)
	}
	if put.Stored != 2 {
		t.Errorf("stored = %d, want 2", put.Stored)
	}

	rec, env = do(t, srv, http.MethodGet, "/api/v1/library", "", alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var books []models.LibraryBook
	if err := json.Unmarshal(env.Data, &books); err != nil {
		t.Fatalf("decode library: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("library has %d books, want 2", len(books))
	}
	if books[1].Status != models.StatusWantToRead {
		t.Errorf("status = %q, want normalized %q", books[1].Status, models.StatusWantToRead)
	}

	// Another user sees nothing.
	_, env = do(t, srv, http.MethodGet, "/api/v1/library", "", map[string]string{auth.UserIDHeader: "bob"})
	if string(env.Data) != "[]" {
		t.Errorf("bob's library = %s, want []", env.Data)
	}

	rec, _ = do(t, srv, http.MethodDelete, "/api/v1/library/books/b1", "", alice)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}
	rec, env = do(t, srv, http.MethodDelete, "/api/v1/library/books/b1", "", alice)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second DELETE status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeNotFound)
	}

	remaining, err := store.GetLibrary(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetLibrary() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "b2" {
		t.Errorf("remaining = %+v, want only b2", remaining)
	}
}

func TestPutBooksRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "not json", body: `{{`, code: ErrCodeBadRequest},
		{name: "object not array", body: `{"id": "b1"}`, code: ErrCodeBadRequest},
		{name: "empty array", body: `[]`, code: ErrCodeValidation},
		{name: "invalid record", body: `[
			{"id": "b1", "title": "Dune", "author": "Frank Herbert", "status": "read", "created_at": "2024-01-01"},
			{"id": "b2", "title": "", "author": "Jane Austen", "status": "shelved", "created_at": "2024-01-01"}
		]`, code: ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := library.NewMemoryStore()
			srv := newTestServer(t, &fakeRecommender{}, store, noneSecurity())

			rec, env := do(t, srv, http.MethodPut, "/api/v1/library/books", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.code)
			}

			books, err := store.GetLibrary(context.Background(), "default")
			if err != nil {
				t.Fatalf("GetLibrary() error = %v", err)
			}
			if len(books) != 0 {
				t.Errorf("store has %d books after rejected batch, want 0", len(books))
			}
		})
	}
}

func TestPutBooksReportsRejectedRecords(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())
	body := `[
		{"id": "b1", "title": "Dune", "author": "Frank Herbert", "status": "read", "created_at": "2024-01-01"},
		{"id": "b2", "title": "Emma", "author": "Jane Austen", "status": "shelved", "created_at": "2024-01-01"}
	]`
	_, env := do(t, srv, http.MethodPut, "/api/v1/library/books", body, nil)
	if env.Error == nil {
		t.Fatal("expected error envelope")
	}

	details, ok := env.Error.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("details = %T, want object", env.Error.Details)
	}
	rejected, ok := details["rejected"].([]interface{})
	if !ok || len(rejected) != 1 {
		t.Fatalf("rejected = %v, want one record", details["rejected"])
	}
	first, _ := rejected[0].(map[string]interface{})
	if first["id"] != "b2" {
		t.Errorf("rejected id = %v, want b2", first["id"])
	}
}

func TestNoneModeRejectsBadUserHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())
	rec, env := do(t, srv, http.MethodGet, "/api/v1/library", "", map[string]string{auth.UserIDHeader: "a:b"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeValidation)
	}
}

func TestJWTMode(t *testing.T) {
	t.Parallel()

	sec := &config.SecurityConfig{
		AuthMode:          config.AuthModeJWT,
		JWTSecret:         testSecret,
		RateLimitDisabled: true,
	}
	fake := &fakeRecommender{}
	srv := newTestServer(t, fake, library.NewMemoryStore(), sec)

	t.Run("missing token", func(t *testing.T) {
		rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if env.Error == nil || env.Error.Code != ErrCodeUnauthorized {
			t.Errorf("error = %+v, want %s", env.Error, ErrCodeUnauthorized)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Error("WWW-Authenticate header missing")
		}
	})

	t.Run("health is public", func(t *testing.T) {
		rec, _ := do(t, srv, http.MethodGet, "/api/v1/health", "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		mgr, err := auth.NewJWTManager(sec)
		if err != nil {
			t.Fatalf("NewJWTManager() error = %v", err)
		}
		token, err := mgr.GenerateToken("carol", time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		rec, _ := do(t, srv, http.MethodGet, "/api/v1/recommendations", "", map[string]string{
			"Authorization": "Bearer " + token,
			// Ignored in jwt mode.
			auth.UserIDHeader: "mallory",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if got := fake.lastCall().UserID; got != "carol" {
			t.Errorf("user = %q, want carol", got)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	sec := noneSecurity()
	sec.RateLimitDisabled = false
	sec.RateLimitReqs = 2
	sec.RateLimitWindow = time.Minute
	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), sec)

	for i := 0; i < 2; i++ {
		rec, _ := do(t, srv, http.MethodGet, "/api/v1/recommendations", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}
	rec, env := do(t, srv, http.MethodGet, "/api/v1/recommendations", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeRateLimited {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeRateLimited)
	}

	// Health sits outside the limited group.
	if rec, _ := do(t, srv, http.MethodGet, "/api/v1/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())

	rec, env := do(t, srv, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: status %d, error %+v", rec.Code, env.Error)
	}

	rec, env = do(t, srv, http.MethodPost, "/api/v1/library", "", nil)
	if rec.Code != http.StatusMethodNotAllowed || env.Error == nil || env.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("wrong method: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	sec := noneSecurity()
	sec.CORSOrigins = []string{"https://books.example.com"}
	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), sec)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/library", nil)
	req.Header.Set("Origin", "https://books.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://books.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRecommender{}, library.NewMemoryStore(), noneSecurity())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "# HELP") {
		t.Error("metrics output has no HELP lines")
	}
}
