package atomicswap

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/health"
)

const dbName = ".ffts-index.db"

func TestBuildCreatesHealthyDatabase(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	stats, err := Build(root, dbName, cfg.Pragma, cfg.Indexer, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if stats.FilesIndexed != 1 {
		t.Fatalf("expected 1 file indexed, got %d", stats.FilesIndexed)
	}

	if got := health.CheckFastInDir(root, dbName); got != health.Healthy {
		t.Fatalf("expected Healthy, got %v", got)
	}

	for _, suffix := range []string{".tmp", "-shm", "-wal"} {
		matches, _ := filepath.Glob(filepath.Join(root, dbName+"*"+suffix+"*"))
		if len(matches) > 0 {
			t.Fatalf("unexpected residue for suffix %q: %v", suffix, matches)
		}
	}
}

func TestBuildSkipsIfDatabaseAlreadyExists(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	if _, err := Build(root, dbName, cfg.Pragma, cfg.Indexer, nil); err != nil {
		t.Fatalf("first build: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "new.txt"), []byte("added after first build"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Build(root, dbName, cfg.Pragma, cfg.Indexer, nil); err != nil {
		t.Fatalf("second build: %v", err)
	}
}

func TestBuildConcurrentIsRaceSafe(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()

	const n = 4
	var wg sync.WaitGroup
	successes := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := Build(root, dbName, cfg.Pragma, cfg.Indexer, nil)
			successes[i] = err == nil
		}(i)
	}
	wg.Wait()

	anySuccess := false
	for _, ok := range successes {
		if ok {
			anySuccess = true
		}
	}
	if !anySuccess {
		t.Fatal("expected at least one concurrent build to succeed")
	}
	if got := health.CheckFastInDir(root, dbName); got != health.Healthy {
		t.Fatalf("expected final state Healthy, got %v", got)
	}
}

func TestBackupAndReinit(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	if _, err := Build(root, dbName, cfg.Pragma, cfg.Indexer, nil); err != nil {
		t.Fatalf("initial build: %v", err)
	}

	if _, err := BackupAndReinit(root, dbName, 1700000000, cfg.Pragma, cfg.Indexer, nil); err != nil {
		t.Fatalf("backup_and_reinit: %v", err)
	}

	backupPath := filepath.Join(root, dbName+".backup.1700000000")
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("expected backup file to exist: %v", err)
	}
	if got := health.CheckFastInDir(root, dbName); !got.IsUsable() {
		t.Fatalf("expected usable health after reinit, got %v", got)
	}
}
