// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package recommend turns a reader's library into ranked book suggestions.
//
// The pipeline for a single request is:
//
//	library -> PreferenceAnalyzer -> UserPreferences
//	        -> CandidateGenerator (search provider queries, NonBookFilter,
//	           library exclusion)
//	        -> cross-strategy dedup (first strategy to surface an ID wins)
//	        -> ScoreRanker -> top-N Recommendations
//
// Candidate strategies run in a fixed priority order: favorite author,
// similar title, similar author. Provider calls are issued concurrently but
// their results are merged back in plan order before dedup, so the outcome
// never depends on network timing. A reader with no valid library entries
// gets the popularity fallback instead.
//
// The Engine never returns an error to its callers. Per-query failures are
// logged and contribute nothing; a failure of the whole pipeline degrades to
// the popularity fallback.
package recommend
