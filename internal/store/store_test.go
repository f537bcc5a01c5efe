package store

import (
	"path/filepath"
	"testing"

	"github.com/mneves75/ffts-grep/internal/config"
)

func testPragma() config.PragmaConfig {
	return config.Default().Pragma
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".ffts-index.db")
	s, err := Open(path, testPragma())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestOpenRejectsNegativeBusyTimeout(t *testing.T) {
	cfg := testPragma()
	cfg.BusyTimeoutMs = -1
	_, err := Open(filepath.Join(t.TempDir(), "db"), cfg)
	if err == nil {
		t.Fatal("expected ConfigInvalid error")
	}
}

func TestApplicationIDRoundtrip(t *testing.T) {
	s, _ := openTestStore(t)
	id, err := s.GetApplicationID()
	if err != nil {
		t.Fatalf("get_application_id: %v", err)
	}
	if id != ApplicationID {
		t.Fatalf("expected application id %d, got %d", ApplicationID, id)
	}
}

func TestInitSchemaIsComplete(t *testing.T) {
	s, _ := openTestStore(t)
	check, err := s.CheckSchema()
	if err != nil {
		t.Fatalf("check_schema: %v", err)
	}
	if !check.IsComplete() {
		t.Fatalf("expected complete schema, missing: %v", check.MissingObjects())
	}
}

func TestUpsertAndSearch(t *testing.T) {
	s, _ := openTestStore(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	must(s.UpsertFile("CLAUDE.md", []byte("# Project Documentation"), 1000, 24, 1000))
	must(s.UpsertFile("docs/MASTRA-VS-CLAUDE-SDK.md", []byte("Comparison document"), 1000, 20, 1000))
	must(s.UpsertFile("README.md", []byte("Built for Claude Code integration"), 1000, 34, 1000))

	results, err := s.Search("claude", false, 15)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	results, err := s.Search("   ", false, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestLazyInvalidationSkipsUnchangedContent(t *testing.T) {
	s, _ := openTestStore(t)

	if err := s.UpsertFile("test.rs", []byte("original"), 100, 8, 1000); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}
	if err := s.UpsertFile("test.rs", []byte("original"), 200, 8, 2000); err != nil {
		t.Fatalf("re-upsert same content: %v", err)
	}

	files, err := s.GetAllFiles(10)
	if err != nil {
		t.Fatalf("get_all_files: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].IndexedAt != 1000 {
		t.Fatalf("expected indexed_at to stay at 1000 (lazy invalidation), got %d", files[0].IndexedAt)
	}

	if err := s.UpsertFile("test.rs", []byte("modified"), 300, 8, 3000); err != nil {
		t.Fatalf("upsert modified content: %v", err)
	}
	files, err = s.GetAllFiles(10)
	if err != nil {
		t.Fatalf("get_all_files: %v", err)
	}
	if files[0].IndexedAt != 3000 {
		t.Fatalf("expected indexed_at to advance to 3000, got %d", files[0].IndexedAt)
	}
}

func TestSearchFilenameContainsOrdering(t *testing.T) {
	s, _ := openTestStore(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	must(s.UpsertFile("config.rs", []byte("fn main() {}"), 1, 1, 1))
	must(s.UpsertFile("src/config/mod.rs", []byte("mod config;"), 1, 1, 1))
	must(s.UpsertFile("src/utils/config_helper.rs", []byte("helper"), 1, 1, 1))

	results, err := s.SearchFilenameContains("config", 15)
	if err != nil {
		t.Fatalf("search_filename_contains: %v", err)
	}
	if len(results) == 0 || results[0].Path != "config.rs" {
		t.Fatalf("expected config.rs first, got %+v", results)
	}
}

func TestPruneMissingFiles(t *testing.T) {
	s, dir := openTestStore(t)
	if err := s.UpsertFile("gone.txt", []byte("x"), 1, 1, 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	n, err := s.PruneMissingFiles(dir)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
	count, err := s.GetFileCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 remaining, got %d", count)
	}
}
