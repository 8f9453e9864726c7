package store

import (
	"database/sql"

	"github.com/lefth/tmsu/internal/errs"
)

// currentSchemaVersion mirrors the sequential versioning idiom of
// theRebelliousNerd-codenerd's migrations.go (CurrentSchemaVersion +
// pendingMigrations), simplified to tmsu's single-generation schema: there
// is, so far, exactly one version.
const currentSchemaVersion = 1

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tag (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS value (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS file (
	id INTEGER PRIMARY KEY,
	directory TEXT NOT NULL,
	name TEXT NOT NULL,
	fingerprint TEXT NOT NULL DEFAULT '',
	mod_time INTEGER NOT NULL DEFAULT 0,
	size INTEGER NOT NULL DEFAULT 0,
	is_dir INTEGER NOT NULL DEFAULT 0,
	UNIQUE (directory, name)
);

CREATE TABLE IF NOT EXISTS file_tag (
	file_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL,
	value_id INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (file_id, tag_id, value_id)
);

CREATE INDEX IF NOT EXISTS idx_file_tag_tag_id ON file_tag (tag_id);
CREATE INDEX IF NOT EXISTS idx_file_tag_value_id ON file_tag (value_id);
CREATE INDEX IF NOT EXISTS idx_file_tag_file_id ON file_tag (file_id);

CREATE TABLE IF NOT EXISTS implication (
	tag_id INTEGER NOT NULL,
	value_id INTEGER NOT NULL DEFAULT 0,
	implied_tag_id INTEGER NOT NULL,
	implied_value_id INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (tag_id, value_id, implied_tag_id, implied_value_id)
);

CREATE INDEX IF NOT EXISTS idx_implication_implied ON implication (implied_tag_id, implied_value_id);

CREATE TABLE IF NOT EXISTS setting (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);
`

// upgradeSchema creates the schema on a fresh database and runs any pending
// sequential upgrades on an older one. Per spec.md §6 it maintains "a simple
// schema-version cell updated by a sequential upgrade routine".
func (s *Store) upgradeSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Storage("begin schema upgrade", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaDDL); err != nil {
		return errs.Storage("create schema", err)
	}

	var version int
	row := tx.QueryRow("SELECT version FROM schema_version LIMIT 1")
	switch err := row.Scan(&version); err {
	case nil:
		// existing database: fall through to sequential upgrades below.
	default:
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return errs.Storage("initialize schema version", err)
		}
		version = currentSchemaVersion
	}

	for version < currentSchemaVersion {
		version++
		if err := applyMigration(tx, version); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE schema_version SET version = ?", version); err != nil {
			return errs.Storage("update schema version", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Storage("commit schema upgrade", err)
	}
	return nil
}

// applyMigration runs the migration that brings the schema from toVersion-1
// to toVersion. There are none yet; this is the hook future schema changes
// attach to, in the shape of the teacher's pendingMigrations table.
func applyMigration(_ *sql.Tx, _ int) error {
	return nil
}
