// Package atomicswap builds a database in a temp location and swaps it
// into place atomically: WAL checkpoint, fsync, rename, then fsync the
// containing directory. Grounded on the original Rust implementation's
// auto_init in health.rs and sync_file/sync_parent_dir in fs_utils.rs;
// the teacher's comfort with low-level syscall access in
// scanner/filesystem.go grounds the platform-specific half.
package atomicswap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/ftserr"
	"github.com/mneves75/ffts-grep/internal/indexer"
	"github.com/mneves75/ffts-grep/internal/store"
)

var tempCounter atomic.Uint64

// tempSuffix derives a unique per-attempt suffix from the process id and a
// monotonic counter, playing the role of spec §9's "<pid>_<threadhash>":
// a shared temp name would corrupt concurrent initializers.
func tempSuffix() string {
	return fmt.Sprintf("%d_%x", os.Getpid(), tempCounter.Add(1))
}

// Build builds a fresh database for root under a unique temp path, indexes
// the whole directory into it, checkpoints the WAL, and atomically swaps
// it into place as dbName. If another process wins the race and the
// target already exists by the time this attempt is ready to commit, the
// temp build is discarded and success is reported (spec §4.7/§5).
func Build(root, dbName string, pragma config.PragmaConfig, idxCfg config.IndexerConfig, ignoreExtras []string) (indexer.Stats, error) {
	tempName := dbName + ".tmp." + tempSuffix()
	tempPath := filepath.Join(root, tempName)
	targetPath := filepath.Join(root, dbName)

	cleanupAux(tempPath)
	defer cleanupAux(tempPath)

	s, err := store.Open(tempPath, pragma)
	if err != nil {
		return indexer.Stats{}, err
	}
	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		return indexer.Stats{}, err
	}

	ix := indexer.New(s, root, idxCfg, dbName, ignoreExtras)
	stats, err := ix.IndexDirectory()
	if err != nil {
		_ = s.Close()
		return stats, err
	}

	busy, log, checkpointed, err := s.WalCheckpointTruncate()
	_ = busy
	if err != nil {
		_ = s.Close()
		return stats, err
	}
	checkpointOK := log == checkpointed

	if err := s.Close(); err != nil {
		return stats, ftserr.New(ftserr.Database, "close temp store", err)
	}

	if !checkpointOK {
		if targetExists(targetPath) {
			return stats, nil // another process already won the race
		}
		return stats, ftserr.New(ftserr.Database, "WAL checkpoint failed, cannot safely create database", nil)
	}

	if targetExists(targetPath) {
		return stats, nil // race lost, existing DB is authoritative
	}

	if err := syncFile(tempPath); err != nil {
		return stats, ftserr.New(ftserr.Io, "fsync temp database", err)
	}

	if err := atomicReplace(tempPath, targetPath); err != nil {
		if targetExists(targetPath) {
			return stats, nil // assume a concurrent winner raced us here
		}
		return stats, ftserr.New(ftserr.Io, "rename temp database into place", err)
	}

	_ = os.Remove(tempPath + "-shm")
	_ = os.Remove(tempPath + "-wal")

	if err := syncParentDir(root); err != nil {
		return stats, ftserr.New(ftserr.Io, "fsync project root", err)
	}

	return stats, nil
}

// BackupAndReinit renames the existing database aside (or removes it if
// the rename fails), clears stale WAL auxiliaries, then runs Build fresh.
// Spec §4.7 "Backup and reinit" / §9's recovery-monotonicity law.
func BackupAndReinit(root, dbName string, unixTS int64, pragma config.PragmaConfig, idxCfg config.IndexerConfig, ignoreExtras []string) (indexer.Stats, error) {
	dbPath := filepath.Join(root, dbName)
	backupPath := filepath.Join(root, fmt.Sprintf("%s.backup.%d", dbName, unixTS))

	if _, err := os.Stat(dbPath); err == nil {
		if err := os.Rename(dbPath, backupPath); err != nil {
			_ = os.Remove(dbPath)
		} else {
			_ = syncParentDir(root)
		}
	}
	cleanupAux(dbPath)

	return Build(root, dbName, pragma, idxCfg, ignoreExtras)
}

func targetExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// cleanupAux removes path and its -shm/-wal auxiliaries, if present.
func cleanupAux(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + "-shm")
	_ = os.Remove(path + "-wal")
}

// IgnoreEntries returns the gitignore-style entries the external init
// collaborator should add for dbName, per spec §6's "Gitignore
// contribution".
func IgnoreEntries(dbName string) []string {
	return []string{dbName, dbName + "-shm", dbName + "-wal", dbName + ".tmp*"}
}
