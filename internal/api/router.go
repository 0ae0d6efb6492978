// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/library"
	"github.com/tomtom215/shelfwise/internal/middleware"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/recommend"
)

// Recommender is the recommendation service used by the handlers.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID string, limit int) []models.Recommendation
	GetSimilarBooks(ctx context.Context, userID, title, author string, limit int) []models.Recommendation
	Preferences(ctx context.Context, userID string) (recommend.UserPreferences, error)
}

var _ Recommender = (*recommend.Engine)(nil)

// Handler serves the HTTP API.
type Handler struct {
	recommender Recommender
	store       library.Store
	importer    *library.Importer
	version     string
	logger      zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(recommender Recommender, store library.Store, version string, logger zerolog.Logger) (*Handler, error) {
	if recommender == nil {
		return nil, errors.New("api: recommender is required")
	}
	if store == nil {
		return nil, errors.New("api: library store is required")
	}
	logger = logger.With().Str("component", "api").Logger()
	return &Handler{
		recommender: recommender,
		store:       store,
		importer:    library.NewImporter(logger),
		version:     version,
		logger:      logger,
	}, nil
}

// Router builds the chi router with the full middleware stack.
func (h *Handler) Router(sec *config.SecurityConfig) (http.Handler, error) {
	authn, err := auth.NewMiddleware(sec, h.writeAuthError)
	if err != nil {
		return nil, fmt.Errorf("auth middleware: %w", err)
	}

	chiCfg := ChiMiddlewareConfigFromSecurity(sec)
	chiCfg.RateLimitOnLimit = func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded", nil)
	}
	chiMW := NewChiMiddleware(chiCfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chiMW.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(chiMW.RateLimit())
			r.Use(authn.Authenticate)

			r.Get("/recommendations", h.Recommendations)
			r.Get("/recommendations/similar", h.SimilarBooks)
			r.Get("/profile", h.Profile)

			r.Get("/library", h.Library)
			r.Put("/library/books", h.PutBooks)
			r.Delete("/library/books/{id}", h.DeleteBook)
		})
	})

	return r, nil
}

func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := ErrCodeUnauthorized
	message := "authentication required"
	if status == http.StatusBadRequest {
		code = ErrCodeValidation
		message = err.Error()
	}
	respondError(w, r, status, code, message, err)
}
