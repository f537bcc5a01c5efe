// Package indexer orchestrates the Walker and the Store: it reads each
// file the walker yields, validates and hashes its content, and upserts
// it, using the conditional transaction strategy from spec §4.6. Grounded
// on the teacher's scanner/scanner.go and scanner/batch.go orchestration
// style, with the transaction algorithm ported from the original Rust
// indexer.rs.
package indexer

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/ftserr"
	"github.com/mneves75/ffts-grep/internal/store"
	"github.com/mneves75/ffts-grep/internal/walker"
)

// transactionThreshold is the batch_count at which the indexer switches
// from auto-commit to an explicit BEGIN IMMEDIATE transaction (spec §4.6).
const transactionThreshold = 50

// Stats summarizes one indexing run.
type Stats struct {
	FilesIndexed int64
	FilesSkipped int64
	BytesIndexed int64
	Duration     time.Duration
}

// Indexer orchestrates a single index_directory run against one Store.
type Indexer struct {
	s      *store.Store
	root   string
	cfg    config.IndexerConfig
	dbName string
	ignore []string
	runID  string
}

// New creates an Indexer for root, writing into s.
func New(s *store.Store, root string, cfg config.IndexerConfig, dbName string, ignoreExtras []string) *Indexer {
	return &Indexer{
		s:      s,
		root:   root,
		cfg:    cfg,
		dbName: dbName,
		ignore: ignoreExtras,
		runID:  uuid.NewString(),
	}
}

// IndexDirectory walks the project root and upserts every eligible file,
// following the per-entry pipeline and batching strategy from spec §4.6.
func (ix *Indexer) IndexDirectory() (Stats, error) {
	start := time.Now()
	var stats Stats

	batchCount := 0
	transactionStarted := false

	beginTx := func() error {
		if _, err := ix.s.Conn().Exec("BEGIN IMMEDIATE"); err != nil {
			return ftserr.New(ftserr.Database, "begin immediate", err)
		}
		transactionStarted = true
		return nil
	}
	commitTx := func() error {
		if _, err := ix.s.Conn().Exec("COMMIT"); err != nil {
			return ftserr.New(ftserr.Database, "commit", err)
		}
		return nil
	}
	rollbackTx := func() {
		if transactionStarted {
			_, _ = ix.s.Conn().Exec("ROLLBACK")
		}
	}

	walkErr := walker.Walk(ix.root, ix.cfg, ix.dbName, ix.ignore, func(e walker.Entry) error {
		indexed, n, err := ix.processEntry(e)
		if err != nil {
			if ftserr.IsPerFileSkippable(err) {
				log.Printf("fts-grep: skipping %s: %v", e.RelPath, err)
				stats.FilesSkipped++
				return nil
			}
			rollbackTx()
			return err
		}
		if !indexed {
			return nil
		}

		stats.FilesIndexed++
		stats.BytesIndexed += n
		batchCount++

		if batchCount == transactionThreshold && !transactionStarted {
			if err := beginTx(); err != nil {
				return err
			}
		}
		if transactionStarted && batchCount >= ix.cfg.BatchSize {
			if err := commitTx(); err != nil {
				return err
			}
			if err := beginTx(); err != nil {
				return err
			}
			batchCount = transactionThreshold
		}
		return nil
	})
	if walkErr != nil {
		return stats, walkErr
	}

	if transactionStarted {
		if err := commitTx(); err != nil {
			return stats, err
		}
	}

	pruned, err := ix.s.PruneMissingFiles(ix.root)
	if err != nil {
		return stats, err
	}
	if pruned > 0 {
		log.Printf("fts-grep[%s]: pruned %d missing files", ix.runID, pruned)
	}

	if err := ix.s.Analyze(); err != nil {
		log.Printf("fts-grep[%s]: analyze failed: %v", ix.runID, err)
	}
	if err := ix.s.Optimize(); err != nil {
		log.Printf("fts-grep[%s]: optimize failed: %v", ix.runID, err)
	}
	if err := ix.s.OptimizeFTS(); err != nil {
		log.Printf("fts-grep[%s]: optimize_fts failed: %v", ix.runID, err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// processEntry implements spec §4.6's per-entry pipeline steps 3-7.
// Returns (indexed, bytesRead, err).
func (ix *Indexer) processEntry(e walker.Entry) (bool, int64, error) {
	size := e.Info.Size()
	if size > ix.cfg.MaxFileSize {
		return false, 0, ftserr.New(ftserr.FileTooLarge, e.RelPath, nil)
	}

	content, err := readAtMost(e.AbsPath, ix.cfg.MaxFileSize)
	if err != nil {
		return false, 0, err
	}

	if !utf8.Valid(content) {
		return false, 0, ftserr.New(ftserr.InvalidUtf8, e.RelPath, nil)
	}

	relPath := filepath.ToSlash(e.RelPath)

	mtime := e.Info.ModTime().Unix()
	if mtime < 0 {
		return false, 0, ftserr.New(ftserr.Io, e.RelPath+": mtime out of range", nil)
	}
	sz := int64(len(content))

	if err := ix.s.UpsertFile(relPath, content, mtime, sz, time.Now().Unix()); err != nil {
		return false, 0, err
	}
	return true, sz, nil
}

// readAtMost reads at most maxSize+1 bytes into a pre-allocated buffer,
// failing FileTooLarge if the read exceeds maxSize (spec §4.6 step 4).
func readAtMost(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ftserr.New(ftserr.Io, path, err)
	}
	defer f.Close()

	applySequentialHint(f)

	buf := make([]byte, maxSize+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, ftserr.New(ftserr.Io, path, err)
	}
	if int64(n) > maxSize {
		return nil, ftserr.New(ftserr.FileTooLarge, path, nil)
	}
	return buf[:n], nil
}
