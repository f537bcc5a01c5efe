// Package walker traverses a project directory producing the file
// entries the Indexer should consider, honoring gitignore-style ignore
// rules, a symlink containment policy, and the database's own auxiliary
// files. Grounded on the teacher's scanner/filesystem.go traversal idiom,
// generalized to follow+containment-check symlink semantics and
// gitignore-aware filtering per spec §4.5.
package walker

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/mneves75/ffts-grep/internal/config"
)

// Entry is one file the Indexer should process.
type Entry struct {
	// RelPath is the path relative to the project root, using the OS
	// path separator as returned by filepath.Rel.
	RelPath string
	// AbsPath is the absolute path on disk (may be a symlink target's
	// original path, not its resolved target).
	AbsPath string
	Info    fs.FileInfo
}

// VisitFunc is called once per file entry Walk yields. An error from
// VisitFunc aborts the walk.
type VisitFunc func(Entry) error

// dbAuxSuffixes are the auxiliary/temp file suffixes the walker must
// never hand to the Indexer (spec §4.5 last bullet).
var dbAuxSuffixes = []string{"-shm", "-wal"}
var dbExtraExtensions = []string{".db", ".sqlite", ".sqlite3"}

// isDatabaseFile reports whether name is the primary DB file, one of its
// WAL auxiliaries, a temp database of the `.tmp.<unique>` family, or any
// file carrying a generic database extension.
func isDatabaseFile(name, dbName string) bool {
	if name == dbName {
		return true
	}
	for _, suf := range dbAuxSuffixes {
		if name == dbName+suf {
			return true
		}
	}
	if strings.HasPrefix(name, dbName+".tmp") {
		return true
	}
	if strings.HasPrefix(name, dbName+".backup.") {
		return true
	}
	for _, ext := range dbExtraExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Walk traverses root, invoking visit for every regular file that passes
// ignore rules, symlink policy, and the database-file filter. Directories
// are never yielded.
func Walk(root string, cfg config.IndexerConfig, dbName string, extraIgnores []string, visit VisitFunc) error {
	rootCanonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		rootCanonical = root
	}

	ignore := compileIgnore(root, extraIgnores)
	rootDev, haveDev := deviceID(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A walk error for a single entry is logged and the entry is
			// skipped; the walk continues and the Indexer never sees it.
			log.Printf("fts-grep: skipping %s: %v", path, err)
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(relSlash) {
				return filepath.SkipDir
			}
			if haveDev {
				if dev, ok := deviceID(path); ok && dev != rootDev {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if ignore != nil && ignore.MatchesPath(relSlash) {
			return nil
		}

		if isDatabaseFile(d.Name(), dbName) {
			return nil
		}

		info, statErr := os.Lstat(path)
		if statErr != nil {
			return nil
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			if !cfg.FollowSymlinks {
				return nil
			}
			resolved, resolveErr := filepath.EvalSymlinks(path)
			if resolveErr != nil || !withinRoot(rootCanonical, resolved) {
				log.Printf("fts-grep: skipping %s: symlink escapes project root", rel)
				return nil
			}
			resolvedInfo, statErr := os.Stat(resolved)
			if statErr != nil || resolvedInfo.IsDir() {
				return nil
			}
			return visit(Entry{RelPath: rel, AbsPath: path, Info: resolvedInfo})
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return visit(Entry{RelPath: rel, AbsPath: path, Info: info})
	})
}

// withinRoot reports whether resolved lies within canonicalRoot, with no
// residual ".." components after stripping the prefix (spec §4.5/§8 S8).
func withinRoot(canonicalRoot, resolved string) bool {
	rel, err := filepath.Rel(canonicalRoot, resolved)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

func compileIgnore(root string, extra []string) *gitignore.GitIgnore {
	var lines []string
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, extra...)
	if len(lines) == 0 {
		return nil
	}
	return gitignore.CompileIgnoreLines(lines...)
}
