// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/cache"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// Request outcomes reported to metrics.
const (
	outcomePersonalized = "personalized"
	outcomeFallback     = "fallback"
	outcomeCached       = "cached"
	outcomeEmpty        = "empty"
)

// Engine is the recommendation service. It owns the per-request dedup state
// and is the only component callers talk to. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	library   LibraryAccessor
	analyzer  *PreferenceAnalyzer
	generator *CandidateGenerator
	ranker    *ScoreRanker

	// cache is nil unless Config.Cache.Enabled.
	cache *cache.TTL[[]models.Recommendation]
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider SearchProvider, library LibraryAccessor, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, errors.New("search provider is required")
	}
	if library == nil {
		return nil, errors.New("library accessor is required")
	}

	e := &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		library:   library,
		analyzer:  NewPreferenceAnalyzer(logger),
		generator: NewCandidateGenerator(provider, NewNonBookFilter(), cfg, logger),
		ranker:    NewScoreRanker(cfg.Scoring),
	}
	if cfg.Cache.Enabled {
		e.cache = cache.New[[]models.Recommendation](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// GetRecommendations returns up to limit ranked suggestions for userID.
// It never fails: if the library cannot be read or the pipeline breaks, the
// popularity fallback is returned instead, and at worst an empty list.
func (e *Engine) GetRecommendations(ctx context.Context, userID string, limit int) []models.Recommendation {
	start := time.Now()
	limit = e.config.clampLimit(limit, e.config.Limits.DefaultLimit)
	logger := e.requestLogger(ctx, userID).With().Int("limit", limit).Logger()

	key := cacheKey(userID, limit)
	if cached, ok := e.checkCache(key); ok {
		metrics.RecordRecommendation("recommendations", outcomeCached, time.Since(start))
		return cached
	}

	recs, outcome := e.recommend(ctx, userID, limit, logger)
	if outcome == outcomePersonalized {
		e.storeCache(key, recs)
	}

	metrics.RecordRecommendation("recommendations", outcome, time.Since(start))
	logger.Debug().
		Str("outcome", outcome).
		Int("count", len(recs)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendations served")
	return recs
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) recommend(ctx context.Context, userID string, limit int, logger zerolog.Logger) (recs []models.Recommendation, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("recommendation pipeline failed, serving popular books")
			recs, outcome = e.fallback(ctx, nil, limit, "pipeline_failure", logger), outcomeFallback
		}
	}()

	library, err := e.library.GetLibrary(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("library unavailable, serving popular books")
		return e.fallback(ctx, nil, limit, "library_error", logger), outcomeFallback
	}

	prefs := e.analyzer.Analyze(library)
	profile := NewProfile(prefs, library)
	if prefs.IsNewReader() {
		return e.fallback(ctx, profile, limit, "new_reader", logger), outcomeFallback
	}

	candidates := dedupByID(e.generator.Generate(ctx, profile, limit))
	e.ranker.ScoreAll(candidates, profile)
	recs = e.ranker.Rank(candidates, limit)
	if len(recs) == 0 {
		return []models.Recommendation{}, outcomeEmpty
	}
	return recs, outcomePersonalized
}

// fallback serves the popularity list. It recovers from its own failures so
// that callers always receive a list.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) fallback(ctx context.Context, profile *Profile, limit int, reason string, logger zerolog.Logger) (recs []models.Recommendation) {
	metrics.RecordFallback(reason)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("popularity fallback failed")
			recs = []models.Recommendation{}
		}
	}()

	recs = e.ranker.Rank(e.generator.Popular(ctx, profile, limit), limit)
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs
}

// GetSimilarBooks returns books like the given one, for "more like this"
// views. When userID is set, books already in that user's library are left
// out. It never fails; the worst case is an empty list.
func (e *Engine) GetSimilarBooks(ctx context.Context, userID, title, author string, limit int) (recs []models.Recommendation) {
	start := time.Now()
	limit = e.config.clampLimit(limit, e.config.Limits.DefaultSimilarLimit)
	logger := e.requestLogger(ctx, userID).With().
		Str("title", title).
		Str("author", author).
		Int("limit", limit).
		Logger()

	outcome := outcomePersonalized
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("similar-books pipeline failed")
			recs, outcome = []models.Recommendation{}, outcomeEmpty
		}
		metrics.RecordRecommendation("similar", outcome, time.Since(start))
	}()

	profile := e.seedProfile(ctx, userID, title, author, logger)
	candidates := dedupByID(e.generator.Similar(ctx, title, author, profile))
	e.ranker.ScoreAll(candidates, profile)
	recs = e.ranker.Rank(candidates, limit)
	if len(recs) == 0 {
		outcome = outcomeEmpty
		recs = []models.Recommendation{}
	}
	return recs
}

// seedProfile treats the seed book as the reader's single favorite, on top
// of whatever the reader's library holds.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) seedProfile(ctx context.Context, userID, title, author string, logger zerolog.Logger) *Profile {
	var library []models.LibraryBook
	if userID != "" {
		books, err := e.library.GetLibrary(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Msg("library unavailable, similar books will not exclude owned titles")
		} else {
			library = books
		}
	}

	seed := models.LibraryBook{
		ID:        "seed",
		Title:     title,
		Author:    author,
		Status:    models.StatusRead,
		Rating:    models.IntPtr(5),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	books := append(append(make([]models.LibraryBook, 0, len(library)+1), library...), seed)

	prefs := UserPreferences{ValidBooks: len(ValidBooks(library)) + 1}
	if isValidBook(&seed) {
		prefs.HighlyRatedBooks = []models.LibraryBook{seed}
		prefs.FavoriteAuthors = []string{normalizeAuthor(author)}
	}
	return NewProfile(prefs, books)
}

// Preferences returns the taste profile for userID. Unlike the
// recommendation entry points it reports library errors.
func (e *Engine) Preferences(ctx context.Context, userID string) (UserPreferences, error) {
	library, err := e.library.GetLibrary(ctx, userID)
	if err != nil {
		return UserPreferences{}, fmt.Errorf("load library: %w", err)
	}
	return e.analyzer.Analyze(library), nil
}

// Invalidate drops cached recommendations for userID. It is a no-op when
// caching is disabled.
func (e *Engine) Invalidate(userID string) {
	if e.cache == nil {
		return
	}
	if n := e.cache.DeletePrefix(cacheKeyPrefix(userID)); n > 0 {
		e.logger.Debug().Str("user_id", userID).Int("entries", n).Msg("recommendation cache invalidated")
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

func (e *Engine) requestLogger(ctx context.Context, userID string) zerolog.Logger {
	lc := e.logger.With().Str("user_id", userID)
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		lc = lc.Str("request_id", requestID)
	}
	return lc.Logger()
}

// cacheKeyPrefix quotes userID so one user's prefix never matches another's.
func cacheKeyPrefix(userID string) string {
	return "rec:" + strconv.Quote(userID) + ":"
}

func cacheKey(userID string, limit int) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix(userID), limit)
}

func (e *Engine) checkCache(key string) ([]models.Recommendation, bool) {
	if e.cache == nil {
		return nil, false
	}
	recs, ok := e.cache.Get(key)
	metrics.RecordCacheLookup("recommendations", ok)
	if !ok {
		return nil, false
	}
	return append([]models.Recommendation(nil), recs...), true
}

func (e *Engine) storeCache(key string, recs []models.Recommendation) {
	if e.cache == nil {
		return
	}
	e.cache.Set(key, append([]models.Recommendation(nil), recs...))
}
