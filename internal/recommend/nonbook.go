// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"regexp"
	"strings"

	"github.com/tomtom215/shelfwise/internal/models"
)

// descriptionLeadRunes is how much of a description counts as "prominent"
// for a strong non-book keyword.
const descriptionLeadRunes = 200

// nonBookKeywords mark academic, reference or catalog material. Keywords
// match whole words, so inflected forms are listed explicitly.
// English and Portuguese only.
var nonBookKeywords = []string{
	"paper", "papers", "white paper", "white papers", "thesis", "theses",
	"dissertation", "dissertations", "article", "articles", "proceedings",
	"conference", "conferences", "symposium", "journal", "journals",
	"technical manual", "technical report", "report", "reports", "catalog",
	"catalogs", "catalogue", "catalogues", "handbook", "user guide", "abstract",
	"abstracts", "artigo", "artigos", "tese", "teses", "dissertação",
	"dissertações", "monografia", "monografias", "anais", "congresso",
	"relatório", "relatórios", "periódico", "periódicos", "revista científica",
	"manual técnico", "catálogo", "catálogos",
}

// strongNonBookKeywords can veto a result on their own when they appear in
// the title or near the start of the description.
var strongNonBookKeywords = map[string]struct{}{
	"paper":         {},
	"papers":        {},
	"thesis":        {},
	"theses":        {},
	"dissertation":  {},
	"dissertations": {},
	"article":       {},
	"articles":      {},
	"artigo":        {},
	"artigos":       {},
	"tese":          {},
	"teses":         {},
	"dissertação":   {},
	"dissertações":  {},
}

// bookKeywords affirm that a result is a trade book.
var bookKeywords = []string{
	"novel", "novels", "novella", "novelist", "fiction", "nonfiction",
	"non-fiction", "biography", "biographies", "autobiography", "memoir",
	"memoirs", "poetry", "poems", "short stories", "stories", "essay", "essays",
	"book", "books", "literature", "fantasy", "mystery", "thriller", "thrillers",
	"romance", "saga", "romance policial", "livro", "livros", "romancista",
	"ficção", "biografia", "biografias", "autobiografia", "memórias", "poesia",
	"poemas", "contos", "crônicas", "ensaio", "ensaios", "literatura",
	"fantasia", "suspense",
}

// academicTitlePatterns match the shapes of paper and periodical titles.
var academicTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}\b`),
	regexp.MustCompile(`^[\[(]`),
	regexp.MustCompile(`(?i)\bvol\.\s*\d+`),
	regexp.MustCompile(`(?i)\bvolume\s+\d+`),
	regexp.MustCompile(`(?i)\bissue\s+\d+`),
	regexp.MustCompile(`(?i)\bn\.\s*\d+`),
	regexp.MustCompile(`(?i)\bpp\.\s*\d+`),
	regexp.MustCompile(`(?i)\bpages?\s+\d+`),
}

// NonBookFilter separates trade books from papers, theses, catalogs and
// similar search noise. It favors precision: ambiguous non-fiction may be
// rejected. It is stateless and safe for concurrent use.
type NonBookFilter struct{}

// NewNonBookFilter creates a filter.
func NewNonBookFilter() *NonBookFilter {
	return &NonBookFilter{}
}

// IsBook classifies a single search result.
func (f *NonBookFilter) IsBook(r *models.SearchResult) bool {
	title := strings.ToLower(strings.TrimSpace(r.Title))
	description := strings.ToLower(r.Description)
	blob := strings.Join([]string{title, description, strings.ToLower(strings.Join(r.Categories, " "))}, " ")

	lead := firstRunes(description, descriptionLeadRunes)
	for _, kw := range nonBookKeywords {
		if !containsWord(blob, kw) {
			continue
		}
		if _, strong := strongNonBookKeywords[kw]; !strong {
			continue
		}
		if containsWord(title, kw) || containsWord(lead, kw) {
			return false
		}
	}

	for _, kw := range bookKeywords {
		if containsWord(blob, kw) {
			return true
		}
	}

	if len(strings.Fields(title)) < 2 {
		return false
	}
	for _, p := range academicTitlePatterns {
		if p.MatchString(title) {
			return false
		}
	}
	return true
}

// FilterBooks returns the results classified as books, preserving order.
func (f *NonBookFilter) FilterBooks(results []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(results))
	for i := range results {
		if f.IsBook(&results[i]) {
			out = append(out, results[i])
		}
	}
	return out
}
