// Package recovery drives the atomicswap and indexer packages according
// to a HealthChecker verdict: spec §4.7/§4.4's auto_init and
// backup_and_reinit strategies. Grounded on the original Rust
// implementation's auto_init/backup_and_reinit_with_config in health.rs.
package recovery

import (
	"time"

	"github.com/mneves75/ffts-grep/internal/atomicswap"
	"github.com/mneves75/ffts-grep/internal/config"
	"github.com/mneves75/ffts-grep/internal/ftserr"
	"github.com/mneves75/ffts-grep/internal/health"
	"github.com/mneves75/ffts-grep/internal/indexer"
)

// AutoInit builds a fresh database for root if health.CheckFast reports
// NeedsInit (Missing or Empty); it is a no-op returning zero Stats when the
// database is already usable. For every other state (NeedsReinit or
// unrecoverable) it returns an error and leaves the database untouched;
// NeedsReinit states are handled by BackupAndReinit.
func AutoInit(root, dbName string, cfg *config.Config) (indexer.Stats, error) {
	h := health.CheckFastInDir(root, dbName)
	if !h.NeedsInit() {
		if h.IsUsable() {
			return indexer.Stats{}, nil
		}
		return indexer.Stats{}, ftserr.New(ftserr.Database, "auto_init: database requires backup_and_reinit, refusing to auto-repair "+h.String(), nil)
	}
	return atomicswap.Build(root, dbName, cfg.Pragma, cfg.Indexer, cfg.IgnoreExtras)
}

// BackupAndReinit unconditionally backs up any existing database and
// builds a fresh one, per spec §4.7. Safe to call for SchemaInvalid,
// Corrupted, or as an explicit "force reindex" operation; never call it
// for WrongApplicationId or Unreadable (spec §7: those are never
// auto-repaired).
func BackupAndReinit(root, dbName string, cfg *config.Config) (indexer.Stats, error) {
	h := health.CheckFastInDir(root, dbName)
	if h.IsUnrecoverable() {
		return indexer.Stats{}, ftserr.New(ftserr.ForeignDatabase, "backup_and_reinit: refusing to touch unrecoverable database ("+h.String()+")", nil)
	}
	return atomicswap.BackupAndReinit(root, dbName, time.Now().Unix(), cfg.Pragma, cfg.Indexer, cfg.IgnoreExtras)
}

// Ensure makes sure root has a usable database, choosing AutoInit or
// BackupAndReinit based on the current health verdict. This is the
// operation a search-path caller should invoke before opening a reader.
func Ensure(root, dbName string, cfg *config.Config) (health.DatabaseHealth, error) {
	h := health.CheckFastInDir(root, dbName)
	switch {
	case h.IsUsable():
		return h, nil
	case h.NeedsInit():
		if _, err := AutoInit(root, dbName, cfg); err != nil {
			return h, err
		}
	case h.NeedsReinit():
		if _, err := BackupAndReinit(root, dbName, cfg); err != nil {
			return h, err
		}
	default:
		return h, ftserr.New(ftserr.ForeignDatabase, "database is unrecoverable: "+h.String(), nil)
	}
	return health.CheckFastInDir(root, dbName), nil
}
