// Package search implements the autocomplete matcher over a catalog
// snapshot: substring matching with grouped capped results, the popular
// shortcut set, and the cursor for keyboard-driven result lists.
package search

import (
	"strings"
	"unicode/utf8"

	"coinvert/internals/core/domain"
)

const (
	// totalCap bounds the rendered result list; fiatCap additionally
	// bounds the fiat group so crypto matches are not starved.
	totalCap = 30
	fiatCap  = 15

	// markerMinLen is the query length from which an empty result set
	// is reported as "no matches" instead of rendering nothing.
	markerMinLen = 2
)

// Match runs a case-insensitive substring match of query against every
// entry's code and name. Results are grouped fiat-then-crypto, each group
// preserving catalog order. Empty queries return the empty result; callers
// route those to Popular.
func Match(query string, cat *domain.Catalog) domain.SearchResult {
	var res domain.SearchResult

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return res
	}

	total := 0
	for _, e := range cat.Entries() {
		if total >= totalCap {
			break
		}
		if e.Kind == domain.Fiat && len(res.Fiat) >= fiatCap {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Code), q) &&
			!strings.Contains(strings.ToLower(e.Name), q) {
			continue
		}
		switch e.Kind {
		case domain.Fiat:
			res.Fiat = append(res.Fiat, e)
			total++
		case domain.Crypto:
			res.Crypto = append(res.Crypto, e)
			total++
		}
	}

	// Single-rune queries stay quiet on a miss; the marker only appears
	// once the query is long enough to be a deliberate search.
	if total == 0 && utf8.RuneCountInString(q) >= markerMinLen {
		res.NoMatches = true
	}
	return res
}

// Popular returns the catalog entries named by codes, in that order,
// silently dropping codes the catalog does not carry.
func Popular(cat *domain.Catalog, codes []string) domain.SearchResult {
	var res domain.SearchResult
	for _, code := range codes {
		e, ok := cat.Lookup(code)
		if !ok {
			continue
		}
		switch e.Kind {
		case domain.Fiat:
			res.Fiat = append(res.Fiat, e)
		case domain.Crypto:
			res.Crypto = append(res.Crypto, e)
		}
	}
	return res
}
