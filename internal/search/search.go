// Package search implements the query sanitizer and the two-phase
// filename-then-full-text search algorithm from spec §4.8. Grounded on
// the original Rust search.rs's Searcher shape, extended with the
// filename-CONTAINS phase and auto-prefix handling the distilled spec
// requires but that file's Searcher.search did not implement.
package search

import (
	"strings"

	"github.com/mneves75/ffts-grep/internal/store"
)

// phaseARank is the synthetic rank assigned to filename-CONTAINS matches,
// strictly better than any BM25 score the store returns (spec §4.8).
const phaseARank = -1000.0

// Result is one ranked search hit.
type Result struct {
	Path string
	Rank float64
}

// Searcher runs queries against a read-only Store.
type Searcher struct {
	s          *store.Store
	maxResults int
}

// New creates a Searcher bounded by maxResults (spec default 15).
func New(s *store.Store, maxResults int) *Searcher {
	return &Searcher{s: s, maxResults: maxResults}
}

// Search runs the two-phase algorithm: sanitize, filename-CONTAINS on the
// first token, then full-text BM25 for the remainder, deduplicated
// against phase A.
func (sr *Searcher) Search(query string) ([]Result, error) {
	sanitized := Sanitize(query)
	if sanitized == "" {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []Result

	firstToken := sanitized
	if i := strings.IndexByte(sanitized, ' '); i >= 0 {
		firstToken = sanitized[:i]
	}

	phaseA, err := sr.s.SearchFilenameContains(firstToken, sr.maxResults)
	if err != nil {
		return nil, err
	}
	for _, r := range phaseA {
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, Result{Path: r.Path, Rank: phaseARank})
	}

	if len(out) >= sr.maxResults {
		return out[:sr.maxResults], nil
	}

	remaining := sr.maxResults - len(out) + len(seen)
	phaseB, err := sr.s.Search(sanitized, false, remaining)
	if err != nil {
		return nil, err
	}
	for _, r := range phaseB {
		if len(out) >= sr.maxResults {
			break
		}
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, Result{Path: r.Path, Rank: r.Rank})
	}

	return out, nil
}
