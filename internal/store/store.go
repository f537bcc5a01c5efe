// Package store wraps the embedded SQLite database: connection
// lifecycle, tuning knobs, schema management, and the upsert/search/
// introspection operations described in spec §4.2. Grounded on the
// teacher's internal/database/db.go connection-lifecycle idiom, with the
// query shapes and algorithms ported from the original Rust db.rs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/ftserr"
	"github.com/mneves75/ffts-grep/internal/hash"
)

// applicationIDUnsigned is the fixed 32-bit marker from spec §3/§6.
var applicationIDUnsigned uint32 = 0xA17E6D42

// ApplicationID is applicationIDUnsigned reinterpreted as the signed value
// SQLite's `application_id` pragma field actually stores.
var ApplicationID int32 = int32(applicationIDUnsigned)

// Result is one ranked match returned by Search/SearchFilenameContains.
type Result struct {
	Path string
	Rank float64
}

// File is a full file record, used by GetAllFiles.
type File struct {
	Path        string
	Filename    string
	ContentHash string
	Mtime       int64
	Size        int64
	IndexedAt   int64
}

// Store holds one connection to the embedded database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database at path if missing and applies the tuning
// knobs in cfg. Returns ConfigInvalid if busy_timeout_ms is negative,
// Database for any other store-level failure.
func Open(path string, cfg config.PragmaConfig) (*Store, error) {
	if cfg.BusyTimeoutMs < 0 {
		return nil, ftserr.New(ftserr.ConfigInvalid, "busy_timeout_ms must be non-negative", nil)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, ftserr.New(ftserr.Database, "open", err)
	}
	db.SetMaxOpenConns(1) // one writer connection; see spec §9 ownership note

	s := &Store{db: db, path: path}
	if err := s.applyPragmas(cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens path without applying any write-requiring pragma, for
// use by HealthChecker and concurrent searchers (spec §4.2).
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=0", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, ftserr.New(ftserr.Database, "open_readonly", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, ftserr.New(ftserr.Database, "open_readonly ping", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) applyPragmas(cfg config.PragmaConfig) error {
	stmts := []string{
		fmt.Sprintf("PRAGMA application_id = %d", ApplicationID),
		fmt.Sprintf("PRAGMA journal_mode = %s", cfg.JournalMode),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.Synchronous),
		fmt.Sprintf("PRAGMA cache_size = %d", cfg.CacheSize),
		fmt.Sprintf("PRAGMA temp_store = %s", cfg.TempStore),
		fmt.Sprintf("PRAGMA mmap_size = %d", cfg.MmapSize),
		fmt.Sprintf("PRAGMA page_size = %d", cfg.PageSize),
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMs),
		"PRAGMA foreign_keys = ON",
		"PRAGMA trusted_schema = OFF",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return ftserr.New(ftserr.Database, "apply pragma: "+stmt, err)
		}
	}
	return nil
}

// Conn exposes the underlying *sql.DB for the Indexer's explicit
// transaction control (BEGIN IMMEDIATE / COMMIT / ROLLBACK).
func (s *Store) Conn() *sql.DB { return s.db }

// Path returns the filesystem path this Store was opened against.
func (s *Store) Path() string { return s.path }

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// InitSchema is idempotent: creates the file table, FTS table, triggers,
// and indexes if they do not already exist.
func (s *Store) InitSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return ftserr.New(ftserr.Database, "init_schema", err)
	}
	return nil
}

// MigrateSchema detects a legacy schema lacking the filename column, adds
// it, backfills it via host-side path segmentation (never the store's own
// string functions, per spec §4.2), and drops the legacy FTS table and
// triggers so InitSchema can recreate them with the new column list.
func (s *Store) MigrateSchema() error {
	hasFilename, err := s.columnExists("files", "filename")
	if err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: inspect columns", err)
	}
	if hasFilename {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("ALTER TABLE files ADD COLUMN filename TEXT"); err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: add column", err)
	}

	rows, err := tx.Query("SELECT id, path FROM files")
	if err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: select", err)
	}
	type row struct {
		id   int64
		path string
	}
	var toUpdate []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.path); err != nil {
			rows.Close()
			return ftserr.New(ftserr.Database, "migrate_schema: scan", err)
		}
		toUpdate = append(toUpdate, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: rows", err)
	}

	stmt, err := tx.Prepare("UPDATE files SET filename = ? WHERE id = ?")
	if err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: prepare update", err)
	}
	defer stmt.Close()
	for _, r := range toUpdate {
		filename := filepath.Base(r.path) // host-side segmentation, not SQL
		if _, err := stmt.Exec(filename, r.id); err != nil {
			return ftserr.New(ftserr.Database, "migrate_schema: backfill", err)
		}
	}

	for _, drop := range []string{
		"DROP TRIGGER IF EXISTS files_ai",
		"DROP TRIGGER IF EXISTS files_ad",
		"DROP TRIGGER IF EXISTS files_au",
		"DROP TABLE IF EXISTS files_fts",
	} {
		if _, err := tx.Exec(drop); err != nil {
			return ftserr.New(ftserr.Database, "migrate_schema: "+drop, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ftserr.New(ftserr.Database, "migrate_schema: commit", err)
	}
	return nil
}

func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dflt       sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// RebuildFTSIndex bulk-repopulates the FTS table from the file table,
// bypassing the triggers. Used after MigrateSchema.
func (s *Store) RebuildFTSIndex() error {
	const q = `INSERT INTO files_fts(rowid, filename, path, content)
		SELECT id, filename, path, content FROM files`
	if _, err := s.db.Exec(q); err != nil {
		return ftserr.New(ftserr.Database, "rebuild_fts_index", err)
	}
	return nil
}

// UpsertFile computes the content hash and filename, then performs the
// lazy-invalidation conditional upsert from spec §4.2: the row (and its
// indexed_at) is left untouched when the stored content_hash already
// matches.
func (s *Store) UpsertFile(path string, content []byte, mtime, size, indexedAt int64) error {
	filename := filepath.Base(path)
	contentHash := hash.Content(content)

	const q = `
INSERT INTO files (path, filename, content_hash, mtime, size, indexed_at, content)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	filename = excluded.filename,
	content_hash = excluded.content_hash,
	mtime = excluded.mtime,
	size = excluded.size,
	indexed_at = excluded.indexed_at,
	content = excluded.content
WHERE excluded.content_hash != files.content_hash`

	if _, err := s.db.Exec(q, path, filename, contentHash, mtime, size, indexedAt, string(content)); err != nil {
		return ftserr.New(ftserr.Database, "upsert_file", err)
	}
	return nil
}

// DeleteFile removes the record for path, if present.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return ftserr.New(ftserr.Database, "delete_file", err)
	}
	return nil
}

// escapeLikePattern escapes backslash, percent, and underscore so a LIKE
// pattern treats the query as a literal substring.
func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Search runs the fixed BM25 query shape from spec §4.2 against either the
// path column or the whole FTS table. Empty/whitespace query returns an
// empty result, no error.
func (s *Store) Search(query string, pathsOnly bool, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	column := "files_fts"
	if pathsOnly {
		column = "path"
	}
	q := fmt.Sprintf(
		`SELECT path, bm25(files_fts, 100.0, 50.0, 1.0) AS rank
		 FROM files_fts WHERE %s MATCH ?
		 ORDER BY rank LIMIT ?`, column)

	rows, err := s.db.Query(q, query, limit)
	if err != nil {
		return nil, ftserr.New(ftserr.QueryParse, "search", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Path, &r.Rank); err != nil {
			return nil, ftserr.New(ftserr.Database, "search scan", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchFilenameContains performs the case-insensitive substring search
// from spec §4.2: a trailing '*' is stripped, the pattern is LIKE-escaped,
// and results are ordered exact(0) < prefix(1) < contains(2), then by
// filename length ascending.
func (s *Store) SearchFilenameContains(query string, limit int) ([]Result, error) {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, "*")
	if trimmed == "" {
		return nil, nil
	}

	escaped := escapeLikePattern(trimmed)
	const q = `
SELECT path FROM files
WHERE LOWER(filename) LIKE '%' || LOWER(?) || '%' ESCAPE '\' COLLATE NOCASE
ORDER BY
	CASE
		WHEN LOWER(filename) = LOWER(?) THEN 0
		WHEN LOWER(filename) LIKE LOWER(?) || '%' ESCAPE '\' THEN 1
		ELSE 2
	END,
	length(filename)
LIMIT ?`

	rows, err := s.db.Query(q, escaped, trimmed, escaped, limit)
	if err != nil {
		return nil, ftserr.New(ftserr.Database, "search_filename_contains", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, ftserr.New(ftserr.Database, "search_filename_contains scan", err)
		}
		out = append(out, Result{Path: path, Rank: 0})
	}
	return out, rows.Err()
}

// GetAllFiles returns up to limit file records, most recently indexed first.
func (s *Store) GetAllFiles(limit int) ([]File, error) {
	rows, err := s.db.Query(
		`SELECT path, filename, content_hash, mtime, size, indexed_at
		 FROM files ORDER BY indexed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, ftserr.New(ftserr.Database, "get_all_files", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.Path, &f.Filename, &f.ContentHash, &f.Mtime, &f.Size, &f.IndexedAt); err != nil {
			return nil, ftserr.New(ftserr.Database, "get_all_files scan", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetFileCount returns the total number of indexed file records.
func (s *Store) GetFileCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, ftserr.New(ftserr.Database, "get_file_count", err)
	}
	return n, nil
}

// PruneMissingFiles removes every record whose path, joined to root, no
// longer exists on disk, returning the number removed.
func (s *Store) PruneMissingFiles(root string) (int64, error) {
	rows, err := s.db.Query("SELECT id, path FROM files")
	if err != nil {
		return 0, ftserr.New(ftserr.Database, "prune_missing_files: select", err)
	}
	type rec struct {
		id   int64
		path string
	}
	var candidates []rec
	for rows.Next() {
		var r rec
		if err := rows.Scan(&r.id, &r.path); err != nil {
			rows.Close()
			return 0, ftserr.New(ftserr.Database, "prune_missing_files: scan", err)
		}
		candidates = append(candidates, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, ftserr.New(ftserr.Database, "prune_missing_files: rows", err)
	}

	var toDelete []int64
	for _, c := range candidates {
		full := filepath.Join(root, c.path)
		if _, err := os.Lstat(full); err != nil {
			if os.IsNotExist(err) {
				toDelete = append(toDelete, c.id)
			}
		}
	}
	if len(toDelete) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, ftserr.New(ftserr.Database, "prune_missing_files: begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM files WHERE id = ?")
	if err != nil {
		return 0, ftserr.New(ftserr.Database, "prune_missing_files: prepare", err)
	}
	defer stmt.Close()
	for _, id := range toDelete {
		if _, err := stmt.Exec(id); err != nil {
			return 0, ftserr.New(ftserr.Database, "prune_missing_files: delete", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, ftserr.New(ftserr.Database, "prune_missing_files: commit", err)
	}
	return int64(len(toDelete)), nil
}

// OptimizeFTS triggers an FTS5 segment merge.
func (s *Store) OptimizeFTS() error {
	if _, err := s.db.Exec(`INSERT INTO files_fts(files_fts) VALUES('optimize')`); err != nil {
		return ftserr.New(ftserr.Database, "optimize_fts", err)
	}
	return nil
}

// Optimize refreshes the query planner's statistics via PRAGMA optimize.
func (s *Store) Optimize() error {
	if _, err := s.db.Exec("PRAGMA optimize"); err != nil {
		return ftserr.New(ftserr.Database, "optimize", err)
	}
	return nil
}

// Analyze runs ANALYZE to refresh table statistics after a bulk change.
func (s *Store) Analyze() error {
	if _, err := s.db.Exec("ANALYZE"); err != nil {
		return ftserr.New(ftserr.Database, "analyze", err)
	}
	return nil
}

// CheckFTSIntegrity runs the FTS5 integrity-check command, returning false
// and an IndexCorrupted error on failure.
func (s *Store) CheckFTSIntegrity() (bool, error) {
	if _, err := s.db.Exec(`INSERT INTO files_fts(files_fts) VALUES('integrity-check')`); err != nil {
		return false, ftserr.New(ftserr.IndexCorrupted, "check_fts_integrity", err)
	}
	return true, nil
}

// CheckSchema reports which required schema objects are present.
func (s *Store) CheckSchema() (SchemaCheck, error) {
	rows, err := s.db.Query(
		`SELECT type, name FROM sqlite_master WHERE name IN (?, ?, ?, ?, ?, ?, ?, ?)`,
		schemaObjects[0], schemaObjects[1], schemaObjects[2], schemaObjects[3],
		schemaObjects[4], schemaObjects[5], schemaObjects[6], schemaObjects[7],
	)
	if err != nil {
		return SchemaCheck{}, ftserr.New(ftserr.Database, "check_schema", err)
	}
	defer rows.Close()

	var check SchemaCheck
	for rows.Next() {
		var typ, name string
		if err := rows.Scan(&typ, &name); err != nil {
			return SchemaCheck{}, ftserr.New(ftserr.Database, "check_schema scan", err)
		}
		switch name {
		case "files":
			check.HasFilesTable = true
		case "files_fts":
			check.HasFTSTable = true
		case "files_ai":
			check.HasInsertTrigger = true
		case "files_au":
			check.HasUpdateTrigger = true
		case "files_ad":
			check.HasDeleteTrigger = true
		case "idx_files_mtime":
			check.HasMtimeIndex = true
		case "idx_files_path":
			check.HasPathIndex = true
		case "idx_files_hash":
			check.HasHashIndex = true
		}
	}
	return check, rows.Err()
}

// GetApplicationID reads the application_id pragma.
func (s *Store) GetApplicationID() (int32, error) {
	var id int32
	if err := s.db.QueryRow("PRAGMA application_id").Scan(&id); err != nil {
		return 0, ftserr.New(ftserr.Database, "get_application_id", err)
	}
	return id, nil
}

// GetJournalMode reads the journal_mode pragma.
func (s *Store) GetJournalMode() (string, error) {
	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", ftserr.New(ftserr.Database, "get_journal_mode", err)
	}
	return mode, nil
}

// GetDBSizeBytes computes page_count * page_size.
func (s *Store) GetDBSizeBytes() (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, ftserr.New(ftserr.Database, "get_db_size_bytes: page_count", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, ftserr.New(ftserr.Database, "get_db_size_bytes: page_size", err)
	}
	return pageCount * pageSize, nil
}

// WalCheckpointTruncate runs `PRAGMA wal_checkpoint(TRUNCATE)` and returns
// its three result fields for AtomicSwap's checkpoint-then-rename decision
// (spec §4.7): checkpoint is considered OK iff log == checkpointed,
// regardless of busy.
func (s *Store) WalCheckpointTruncate() (busy, log, checkpointed int, err error) {
	row := s.db.QueryRow("PRAGMA wal_checkpoint(TRUNCATE)")
	if scanErr := row.Scan(&busy, &log, &checkpointed); scanErr != nil {
		return 0, 0, 0, ftserr.New(ftserr.Database, "wal_checkpoint", scanErr)
	}
	return busy, log, checkpointed, nil
}
