package store

// schema creates the file table, the external-content FTS5 virtual table,
// the three triggers that keep it in sync, and the three secondary
// indexes named in spec §4.2/§6. Grounded on the teacher's
// database/schema.go raw-SQL-constant style and the original Rust
// implementation's init_schema in db.rs.
const schema = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	mtime INTEGER NOT NULL,
	size INTEGER NOT NULL,
	indexed_at INTEGER NOT NULL,
	content TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
	filename,
	path,
	content,
	content='files',
	content_rowid='id',
	tokenize='porter unicode61',
	columnsize=0
);

CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
	INSERT INTO files_fts(rowid, filename, path, content)
	VALUES (new.id, new.filename, new.path, new.content);
END;

CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
	INSERT INTO files_fts(files_fts, rowid, filename, path, content)
	VALUES ('delete', old.id, old.filename, old.path, old.content);
END;

CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
	INSERT INTO files_fts(files_fts, rowid, filename, path, content)
	VALUES ('delete', old.id, old.filename, old.path, old.content);
	INSERT INTO files_fts(rowid, filename, path, content)
	VALUES (new.id, new.filename, new.path, new.content);
END;

CREATE INDEX IF NOT EXISTS idx_files_mtime ON files(mtime);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(content_hash);
`

// schemaObjects is the fixed set of schema-object names CheckSchema
// verifies are present, one per spec §4.4's SchemaInvalid criterion.
var schemaObjects = []string{
	"files", "files_fts", "files_ai", "files_ad", "files_au",
	"idx_files_mtime", "idx_files_path", "idx_files_hash",
}

// SchemaCheck reports which schema objects exist, per spec §6's
// check_schema introspection operation (supplemented from the original
// Rust db.rs's SchemaCheck).
type SchemaCheck struct {
	HasFilesTable    bool
	HasFTSTable      bool
	HasInsertTrigger bool
	HasUpdateTrigger bool
	HasDeleteTrigger bool
	HasMtimeIndex    bool
	HasPathIndex     bool
	HasHashIndex     bool
}

// IsComplete reports whether every required schema object is present.
func (s SchemaCheck) IsComplete() bool {
	return s.HasFilesTable && s.HasFTSTable &&
		s.HasInsertTrigger && s.HasUpdateTrigger && s.HasDeleteTrigger &&
		s.HasMtimeIndex && s.HasPathIndex && s.HasHashIndex
}

// MissingObjects lists the names of schema objects that are absent.
func (s SchemaCheck) MissingObjects() []string {
	var missing []string
	if !s.HasFilesTable {
		missing = append(missing, "files")
	}
	if !s.HasFTSTable {
		missing = append(missing, "files_fts")
	}
	if !s.HasInsertTrigger {
		missing = append(missing, "files_ai")
	}
	if !s.HasUpdateTrigger {
		missing = append(missing, "files_au")
	}
	if !s.HasDeleteTrigger {
		missing = append(missing, "files_ad")
	}
	if !s.HasMtimeIndex {
		missing = append(missing, "idx_files_mtime")
	}
	if !s.HasPathIndex {
		missing = append(missing, "idx_files_path")
	}
	if !s.HasHashIndex {
		missing = append(missing, "idx_files_hash")
	}
	return missing
}

// TriggerCount and IndexCount are convenience accessors mirroring the
// original Rust SchemaCheck's helper methods.
func (s SchemaCheck) TriggerCount() int {
	n := 0
	for _, ok := range []bool{s.HasInsertTrigger, s.HasUpdateTrigger, s.HasDeleteTrigger} {
		if ok {
			n++
		}
	}
	return n
}

func (s SchemaCheck) IndexCount() int {
	n := 0
	for _, ok := range []bool{s.HasMtimeIndex, s.HasPathIndex, s.HasHashIndex} {
		if ok {
			n++
		}
	}
	return n
}
