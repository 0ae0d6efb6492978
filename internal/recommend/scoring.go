// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/tomtom215/shelfwise/internal/models"
)

// ScoreRanker assigns bounded match scores and orders candidates by them.
type ScoreRanker struct {
	weights ScoringConfig
}

// NewScoreRanker creates a ranker with the given weights.
func NewScoreRanker(weights ScoringConfig) *ScoreRanker {
	return &ScoreRanker{weights: weights}
}

// Score computes how well c matches the reader. Popularity candidates get a
// flat score. Every other strategy starts from the base score, earns a
// strategy-specific bonus when the candidate's author is already on the
// reader's shelf, and picks up small bonuses for a highly rated author, a
// substantial description and a cover image.
func (r *ScoreRanker) Score(c *models.SearchResult, profile *Profile, strategy models.Strategy) float64 {
	w := r.weights
	if strategy == models.StrategyPopular {
		return r.clamp(w.PopularScore)
	}

	score := w.Base
	if profile.index().hasAuthor(c.Authors) {
		switch strategy {
		case models.StrategyFavoriteAuthor:
			score += w.FavoriteAuthorBonus
		case models.StrategySimilarAuthor:
			score += w.SimilarAuthorBonus
		case models.StrategySimilarTitle:
			score += w.SimilarTitleBonus
		}
	}
	if profile != nil && anyAuthorMatches(c.Authors, profile.highlyRated) {
		score += w.HighlyRatedAuthorBonus
	}
	if utf8.RuneCountInString(c.Description) > w.DescriptionMinLength {
		score += w.DescriptionBonus
	}
	if c.CoverURL != "" {
		score += w.CoverBonus
	}
	return r.clamp(score)
}

// clamp bounds s to [Min, Max] and rounds away float noise so equal
// bonus sums compare equal.
func (r *ScoreRanker) clamp(s float64) float64 {
	s = math.Round(s*1e6) / 1e6
	return math.Max(r.weights.Min, math.Min(r.weights.Max, s))
}

// ScoreAll sets MatchScore on every candidate in place.
func (r *ScoreRanker) ScoreAll(recs []models.Recommendation, profile *Profile) {
	for i := range recs {
		recs[i].MatchScore = r.Score(&recs[i].SearchResult, profile, recs[i].Strategy)
	}
}

// Rank sorts recs by descending score, keeping discovery order for ties,
// and truncates to limit. A non-positive limit keeps everything.
func (r *ScoreRanker) Rank(recs []models.Recommendation, limit int) []models.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MatchScore > recs[j].MatchScore
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
