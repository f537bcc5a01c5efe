package search

import (
	"path/filepath"
	"testing"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/store"
)

func TestSanitizeAutoPrefix(t *testing.T) {
	cases := map[string]string{
		"01-":   "01*",
		"test_": "test*",
		"intro": "intro",
		"-":     "",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for _, q := range []string{"01-", "hello world", `weird"chars*(here)`, "  spaced  out  "} {
		once := Sanitize(q)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("sanitize not idempotent for %q: %q vs %q", q, once, twice)
		}
	}
}

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".ffts-index.db")
	s, err := store.Open(path, config.Default().Pragma)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, 15)
}

func TestFilenameBoost(t *testing.T) {
	sr := newTestSearcher(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	must(sr.s.UpsertFile("CLAUDE.md", []byte("# Project Documentation"), 1, 1, 1))
	must(sr.s.UpsertFile("docs/MASTRA-VS-CLAUDE-SDK.md", []byte("Comparison document"), 1, 1, 1))
	must(sr.s.UpsertFile("README.md", []byte("Built for Claude Code integration"), 1, 1, 1))

	results, err := sr.Search("claude")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 || results[0].Path != "CLAUDE.md" {
		t.Fatalf("expected CLAUDE.md first, got %+v", results)
	}
	if results[0].Rank != phaseARank {
		t.Fatalf("expected phase-A rank %v, got %v", phaseARank, results[0].Rank)
	}
}

func TestSubstringFindsUntokenizedMatch(t *testing.T) {
	sr := newTestSearcher(t)
	if err := sr.s.UpsertFile("docs/learn/01-introduction.md", []byte("intro text"), 1, 1, 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := sr.Search("intro")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, r := range results {
		if r.Path == "docs/learn/01-introduction.md" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected substring match, got %+v", results)
	}
}

func TestTwoPhaseDeduplication(t *testing.T) {
	sr := newTestSearcher(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	must(sr.s.UpsertFile("test.rs", []byte("test content"), 1, 1, 1))
	must(sr.s.UpsertFile("other.rs", []byte("test content"), 1, 1, 1))

	results, err := sr.Search("test")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Path] {
			t.Fatalf("duplicate path %q in results: %+v", r.Path, results)
		}
		seen[r.Path] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct paths, got %d: %+v", len(seen), results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	sr := newTestSearcher(t)
	results, err := sr.Search("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}
