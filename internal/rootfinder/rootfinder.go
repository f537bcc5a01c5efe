// Package rootfinder resolves a project's indexing root by walking
// ancestor directories, preferring an existing valid database over a VCS
// marker over a fallback to the start directory. Grounded on the original
// Rust implementation's find_project_root in health.rs.
package rootfinder

import (
	"os"
	"path/filepath"

	"github.com/mneves75/ffts-grep/internal/store"
)

// Method identifies how a project root was resolved.
type Method int

const (
	ExistingDatabase Method = iota
	VCSMarker
	Fallback
)

func (m Method) String() string {
	switch m {
	case ExistingDatabase:
		return "existing_database"
	case VCSMarker:
		return "vcs"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ProjectRoot is the result of Find.
type ProjectRoot struct {
	Path   string
	Method Method
}

// vcsMarker is the VCS metadata directory name RootFinder treats as a
// project boundary signal.
const vcsMarker = ".git"

// isValidDatabase reports whether dbPath exists, opens read-only, and
// carries the expected application id. A malformed, empty, or foreign
// database must not hijack detection (spec §4.3, tested by S7).
func isValidDatabase(dbPath string) bool {
	if _, err := os.Stat(dbPath); err != nil {
		return false
	}
	s, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return false
	}
	defer s.Close()

	id, err := s.GetApplicationID()
	if err != nil {
		return false
	}
	return id == store.ApplicationID
}

// Find walks the ancestors of startDir from deepest to root. The first
// ancestor with a valid existing database wins immediately; otherwise the
// nearest ancestor with a VCS marker wins; otherwise startDir itself is
// returned. dbName is the primary database filename to look for (e.g.
// ".ffts-index.db").
func Find(startDir, dbName string) ProjectRoot {
	dir := startDir
	var vcsAncestor string

	for {
		dbPath := filepath.Join(dir, dbName)
		if isValidDatabase(dbPath) {
			return ProjectRoot{Path: dir, Method: ExistingDatabase}
		}

		if vcsAncestor == "" {
			if info, err := os.Stat(filepath.Join(dir, vcsMarker)); err == nil && info.IsDir() {
				vcsAncestor = dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if vcsAncestor != "" {
		return ProjectRoot{Path: vcsAncestor, Method: VCSMarker}
	}
	return ProjectRoot{Path: startDir, Method: Fallback}
}
