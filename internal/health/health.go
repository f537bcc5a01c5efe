// Package health classifies a database's state into a fixed, severity-
// ordered variant set via cheap read-only probes. Grounded on the
// original Rust implementation's DatabaseHealth/check_health_fast in
// health.rs.
package health

import (
	"os"
	"path/filepath"

	"github.com/mneves75/ffts-grep/internal/store"
)

// DatabaseHealth is a closed but extensible classification of a
// database's state. Treat it as non-exhaustive: dispatch via the
// predicate methods below, not by exhaustive switch or numeric compare.
type DatabaseHealth int

const (
	Healthy DatabaseHealth = iota
	Empty
	Missing
	Unreadable
	WrongApplicationId
	SchemaInvalid
	Corrupted
)

func (h DatabaseHealth) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Empty:
		return "empty"
	case Missing:
		return "missing"
	case Unreadable:
		return "unreadable"
	case WrongApplicationId:
		return "wrong_application_id"
	case SchemaInvalid:
		return "schema_invalid"
	case Corrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

// IsUsable reports whether the database can be queried as-is.
func (h DatabaseHealth) IsUsable() bool { return h == Healthy }

// NeedsInit reports whether auto_init should create the database from
// scratch.
func (h DatabaseHealth) NeedsInit() bool { return h == Missing || h == Empty }

// NeedsReinit reports whether the database must be rebuilt rather than
// merely created.
func (h DatabaseHealth) NeedsReinit() bool { return h == SchemaInvalid || h == Corrupted }

// IsUnrecoverable reports whether automatic recovery must not be
// attempted; the caller should report and stop.
func (h DatabaseHealth) IsUnrecoverable() bool {
	return h == WrongApplicationId || h == Unreadable
}

// CheckFast classifies the database at dbPath using the fail-fast order
// from spec §4.4.
func CheckFast(dbPath string) DatabaseHealth {
	if _, err := os.Stat(dbPath); err != nil {
		return Missing
	}

	s, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return Unreadable
	}
	defer s.Close()

	id, err := s.GetApplicationID()
	if err != nil {
		return Corrupted
	}
	if id != store.ApplicationID {
		return WrongApplicationId
	}

	check, err := s.CheckSchema()
	if err != nil {
		return Corrupted
	}
	if !check.IsComplete() {
		return SchemaInvalid
	}

	count, err := s.GetFileCount()
	if err != nil {
		return Corrupted
	}
	if count == 0 {
		return Empty
	}
	return Healthy
}

// CheckFastInDir is a convenience wrapper joining dir and dbName.
func CheckFastInDir(dir, dbName string) DatabaseHealth {
	return CheckFast(filepath.Join(dir, dbName))
}
