// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

const (
	reasonPopular        = "Popular and well-rated book"
	reasonSimilarAuthor  = "Author similar to ones you like"
	minTitleKeywordRunes = 4
)

func reasonAuthor(author string) string {
	return fmt.Sprintf("Another book by %s", author)
}

func reasonSimilarTitle(title string) string {
	return fmt.Sprintf("Similar to '%s'", title)
}

// query is one planned search-provider call together with the rules its
// results must pass before they become candidates.
type query struct {
	strategy models.Strategy
	text     string
	limit    int
	reason   string

	// matchAuthor, when set, drops results none of whose authors fuzzily match it.
	matchAuthor string

	// excludeTitle, when set, drops results whose normalized title equals it.
	excludeTitle string
}

// CandidateGenerator turns a preference profile into unranked candidates by
// querying the search provider once per planned query.
type CandidateGenerator struct {
	provider SearchProvider
	filter   *NonBookFilter
	cfg      *Config
	logger   zerolog.Logger
}

// NewCandidateGenerator creates a generator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCandidateGenerator(provider SearchProvider, filter *NonBookFilter, cfg *Config, logger zerolog.Logger) *CandidateGenerator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if filter == nil {
		filter = NewNonBookFilter()
	}
	return &CandidateGenerator{
		provider: provider,
		filter:   filter,
		cfg:      cfg,
		logger:   logger.With().Str("component", "candidate_generator").Logger(),
	}
}

// Generate returns candidates for the profile in strategy order. They are
// filtered and checked against the library but not deduplicated across
// strategies. A new reader gets the popularity fallback, where limit bounds
// the size of each fallback query. A nil profile is treated as a new reader.
func (g *CandidateGenerator) Generate(ctx context.Context, profile *Profile, limit int) []models.Recommendation {
	if profile == nil || profile.Preferences.IsNewReader() {
		return g.Popular(ctx, profile, limit)
	}
	return g.execute(ctx, g.plan(&profile.Preferences), profile.index())
}

// plan lays out every query for prefs in strategy order: favorite author,
// similar title, similar author.
func (g *CandidateGenerator) plan(prefs *UserPreferences) []query {
	q := g.cfg.Queries
	var plans []query

	authors := g.favoriteAuthorSet(prefs)
	for _, author := range authors {
		plans = append(plans, query{
			strategy:    models.StrategyFavoriteAuthor,
			text:        author,
			limit:       q.AuthorResults,
			reason:      reasonAuthor(author),
			matchAuthor: author,
		})
	}

	for i := range prefs.HighlyRatedBooks {
		if i >= q.TitleSeeds {
			break
		}
		seed := &prefs.HighlyRatedBooks[i]
		plans = append(plans, g.similarTitleQuery(seed.Title, seed.Author))
	}

	if len(prefs.FavoriteAuthors) >= q.MinFavoriteAuthors {
		queried := make(map[string]struct{}, len(authors))
		for _, a := range authors {
			queried[a] = struct{}{}
		}
		added := 0
		for _, ar := range prefs.ReadingPatterns.AverageRatingByAuthor {
			if added >= q.SimilarAuthors {
				break
			}
			author := normalizeAuthor(ar.Author)
			if _, ok := queried[author]; ok || author == "" {
				continue
			}
			queried[author] = struct{}{}
			added++
			plans = append(plans, query{
				strategy:    models.StrategySimilarAuthor,
				text:        author,
				limit:       q.SimilarAuthorResults,
				reason:      reasonSimilarAuthor,
				matchAuthor: author,
			})
		}
	}

	return plans
}

// favoriteAuthorSet collects authors of highly rated books, then recent
// books, then the leading favorites, first seen wins, capped at MaxAuthors.
func (g *CandidateGenerator) favoriteAuthorSet(prefs *UserPreferences) []string {
	q := g.cfg.Queries
	seen := make(map[string]struct{})
	var authors []string
	add := func(a string) {
		a = normalizeAuthor(a)
		if a == "" || len(authors) >= q.MaxAuthors {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		authors = append(authors, a)
	}

	for i := range prefs.HighlyRatedBooks {
		add(prefs.HighlyRatedBooks[i].Author)
	}
	for i := range prefs.RecentBooks {
		add(prefs.RecentBooks[i].Author)
	}
	for i, a := range prefs.FavoriteAuthors {
		if i >= q.FavoriteAuthorSeeds {
			break
		}
		add(a)
	}
	return authors
}

// similarTitleQuery combines up to TitleKeywords significant title words with the author.
func (g *CandidateGenerator) similarTitleQuery(title, author string) query {
	keywords := titleKeywords(title, g.cfg.Queries.TitleKeywords)
	text := strings.TrimSpace(strings.Join(append(keywords, normalizeAuthor(author)), " "))
	return query{
		strategy:     models.StrategySimilarTitle,
		text:         text,
		limit:        g.cfg.Queries.TitleResults,
		reason:       reasonSimilarTitle(title),
		excludeTitle: normalizeTitle(title),
	}
}

// titleKeywords returns up to n words of title longer than three characters.
func titleKeywords(title string, n int) []string {
	var words []string
	for _, w := range strings.Fields(title) {
		if len(words) >= n {
			break
		}
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if utf8.RuneCountInString(w) >= minTitleKeywordRunes {
			words = append(words, w)
		}
	}
	return words
}

// Popular runs the generic popularity queries used for readers without
// history. Results are deduplicated by ID and carry a flat score.
// A nil profile skips the library exclusion.
func (g *CandidateGenerator) Popular(ctx context.Context, profile *Profile, limit int) []models.Recommendation {
	perQuery := g.cfg.Queries.FallbackResults
	if limit > 0 && limit < perQuery {
		perQuery = limit
	}

	plans := make([]query, 0, len(g.cfg.Queries.FallbackQueries))
	for _, text := range g.cfg.Queries.FallbackQueries {
		plans = append(plans, query{
			strategy: models.StrategyPopular,
			text:     text,
			limit:    perQuery,
			reason:   reasonPopular,
		})
	}

	recs := dedupByID(g.execute(ctx, plans, profile.index()))
	for i := range recs {
		recs[i].MatchScore = g.cfg.Scoring.PopularScore
	}
	return recs
}

// Similar runs the reduced two-query plan seeded by a single book.
func (g *CandidateGenerator) Similar(ctx context.Context, title, author string, profile *Profile) []models.Recommendation {
	var plans []query
	if a := normalizeAuthor(author); a != "" {
		plans = append(plans, query{
			strategy:    models.StrategyFavoriteAuthor,
			text:        a,
			limit:       g.cfg.Queries.AuthorResults,
			reason:      reasonAuthor(a),
			matchAuthor: a,
		})
	}
	if strings.TrimSpace(title) != "" {
		plans = append(plans, g.similarTitleQuery(strings.TrimSpace(title), author))
	}
	return g.execute(ctx, plans, profile.index())
}

// execute issues every query concurrently and merges the surviving results
// back in plan order, so the output does not depend on response timing.
func (g *CandidateGenerator) execute(ctx context.Context, plans []query, library *libraryIndex) []models.Recommendation {
	results := make([][]models.SearchResult, len(plans))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Limits.MaxConcurrentQueries)
	for i := range plans {
		eg.Go(func() error {
			results[i] = g.runQuery(ctx, &plans[i])
			return nil
		})
	}
	_ = eg.Wait() // queries never return errors; failures are logged in runQuery

	var out []models.Recommendation
	for i := range plans {
		kept := g.accept(&plans[i], results[i], library)
		metrics.RecommendationCandidates.WithLabelValues(string(plans[i].strategy)).Add(float64(len(kept)))
		out = append(out, kept...)
	}
	return out
}

// runQuery performs a single bounded provider call. Errors, timeouts and
// panics are logged and yield no results.
func (g *CandidateGenerator) runQuery(ctx context.Context, q *query) (results []models.SearchResult) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Limits.CallTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Str("strategy", string(q.strategy)).
				Str("query", q.text).
				Str("panic", fmt.Sprint(r)).
				Msg("search provider panicked")
			metrics.ObserveSearchQuery(string(q.strategy), time.Since(start), fmt.Errorf("panic: %v", r))
			results = nil
		}
	}()

	results, err := g.provider.Search(callCtx, q.text, q.limit)
	metrics.ObserveSearchQuery(string(q.strategy), time.Since(start), err)
	if err != nil {
		g.logger.Warn().
			Err(err).
			Str("strategy", string(q.strategy)).
			Str("query", q.text).
			Dur("elapsed", time.Since(start)).
			Msg("search query failed")
		return nil
	}
	return results
}

// accept applies the book filter, the query's own match rules and the
// library exclusion to one query's results.
func (g *CandidateGenerator) accept(q *query, results []models.SearchResult, library *libraryIndex) []models.Recommendation {
	var out []models.Recommendation
	for i := range results {
		r := &results[i]
		if !g.filter.IsBook(r) {
			continue
		}
		if q.matchAuthor != "" && !anyAuthorMatches(r.Authors, []string{q.matchAuthor}) {
			continue
		}
		if q.excludeTitle != "" && normalizeTitle(r.Title) == q.excludeTitle {
			continue
		}
		if library.contains(r) {
			continue
		}
		out = append(out, models.Recommendation{
			SearchResult: *r,
			Reason:       q.reason,
			Strategy:     q.strategy,
		})
	}
	return out
}

// dedupKey identifies a candidate across strategies. Results without a
// provider ID fall back to title and first author.
func dedupKey(r *models.SearchResult) string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return "ta:" + titleAuthorKey(r.Title, r.FirstAuthor())
}

// dedupByID keeps the first occurrence of every candidate.
func dedupByID(recs []models.Recommendation) []models.Recommendation {
	seen := make(map[string]struct{}, len(recs))
	out := make([]models.Recommendation, 0, len(recs))
	for i := range recs {
		key := dedupKey(&recs[i].SearchResult)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, recs[i])
	}
	return out
}
