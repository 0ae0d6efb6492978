// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/shelfwise/internal/models"
)

// normalizeAuthor trims an author name. Author grouping is case-sensitive.
func normalizeAuthor(s string) string {
	return strings.TrimSpace(s)
}

// normalizeTitle lowercases a title and collapses runs of whitespace.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// fuzzyAuthorMatch reports whether either name contains the other,
// ignoring case. Empty names never match.
func fuzzyAuthorMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// anyAuthorMatches reports whether any candidate author fuzzily matches any known author.
func anyAuthorMatches(candidates, known []string) bool {
	for _, c := range candidates {
		for _, k := range known {
			if fuzzyAuthorMatch(c, k) {
				return true
			}
		}
	}
	return false
}

// containsWord reports whether phrase occurs in text on word boundaries.
// Both arguments are expected to be lowercase already.
func containsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if isBoundary(text, start, true) && isBoundary(text, end, false) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

// isBoundary checks the rune just before (before=true) or at pos.
func isBoundary(text string, pos int, before bool) bool {
	var r rune
	if before {
		if pos == 0 {
			return true
		}
		r, _ = utf8.DecodeLastRuneInString(text[:pos])
	} else {
		if pos >= len(text) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(text[pos:])
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// firstRunes returns at most n runes of s.
func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// libraryIndex answers "is this candidate already on the shelf" and
// "has the reader read this author" for a single request.
type libraryIndex struct {
	titles       map[string]struct{}
	titleAuthors map[string]struct{}
	authors      []string
}

func titleAuthorKey(title, author string) string {
	return normalizeTitle(title) + "\x00" + strings.ToLower(normalizeAuthor(author))
}

// newLibraryIndex indexes every record that has a title, malformed or not,
// so an owned book is never suggested back. Only valid records contribute
// authors for scoring.
func newLibraryIndex(books []models.LibraryBook) *libraryIndex {
	ix := &libraryIndex{
		titles:       make(map[string]struct{}, len(books)),
		titleAuthors: make(map[string]struct{}, len(books)),
	}
	seenAuthors := make(map[string]struct{})
	for i := range books {
		b := &books[i]
		title := normalizeTitle(b.Title)
		if title == "" {
			continue
		}
		ix.titles[title] = struct{}{}
		ix.titleAuthors[titleAuthorKey(b.Title, b.Author)] = struct{}{}

		if !isValidBook(b) {
			continue
		}
		author := normalizeAuthor(b.Author)
		if _, ok := seenAuthors[author]; !ok && author != "" {
			seenAuthors[author] = struct{}{}
			ix.authors = append(ix.authors, author)
		}
	}
	return ix
}

// contains reports whether r is already in the library: a normalized title
// match, or a normalized title match with the same first author.
func (ix *libraryIndex) contains(r *models.SearchResult) bool {
	if ix == nil {
		return false
	}
	if _, ok := ix.titles[normalizeTitle(r.Title)]; ok {
		return true
	}
	_, ok := ix.titleAuthors[titleAuthorKey(r.Title, r.FirstAuthor())]
	return ok
}

// hasAuthor reports whether any of authors fuzzily matches a library author.
func (ix *libraryIndex) hasAuthor(authors []string) bool {
	if ix == nil {
		return false
	}
	return anyAuthorMatches(authors, ix.authors)
}
