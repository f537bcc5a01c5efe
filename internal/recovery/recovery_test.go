package recovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/health"
)

const dbName = ".ffts-index.db"

func TestEnsureInitializesMissingDatabase(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := Ensure(root, dbName, config.Default())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if h != health.Healthy {
		t.Fatalf("expected Healthy, got %v", h)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()

	if _, err := Ensure(root, dbName, cfg); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	h, err := Ensure(root, dbName, cfg)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if h != health.Healthy {
		t.Fatalf("expected Healthy on second call, got %v", h)
	}
}

func TestEnsureReinitsCorruptedSchema(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	if _, err := Ensure(root, dbName, cfg); err != nil {
		t.Fatalf("initial ensure: %v", err)
	}

	// Corrupt the schema by truncating the file to a non-empty but
	// unreadable blob so CheckFast reports Unreadable or Corrupted.
	if err := os.WriteFile(filepath.Join(root, dbName), []byte("not a real sqlite file but non-empty"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := health.CheckFastInDir(root, dbName)
	if h.IsUnrecoverable() {
		t.Skip("corrupted file happened to classify as unrecoverable on this platform")
	}

	got, err := Ensure(root, dbName, cfg)
	if err != nil {
		t.Fatalf("ensure after corruption: %v", err)
	}
	if got != health.Healthy {
		t.Fatalf("expected Healthy after reinit, got %v", got)
	}
}
