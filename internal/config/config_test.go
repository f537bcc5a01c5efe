package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseName != Default().DatabaseName {
		t.Fatalf("expected default database name, got %q", cfg.DatabaseName)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Indexer.BatchSize = 250
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Indexer.BatchSize != 250 {
		t.Fatalf("expected batch size 250, got %d", loaded.Indexer.BatchSize)
	}
}

func TestValidateRejectsBadPageSize(t *testing.T) {
	cfg := Default()
	cfg.Pragma.PageSize = 1000 // not a power of two
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-power-of-two page size")
	}
}

func TestValidateRejectsNegativeBusyTimeout(t *testing.T) {
	cfg := Default()
	cfg.Pragma.BusyTimeoutMs = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative busy timeout")
	}
}
