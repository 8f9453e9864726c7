// Package store is the narrow transactional storage abstraction of spec.md
// §4.5 (C5): one logical store per SQLite database file, one open writable
// transaction at a time. It is grounded on original_source/src/storage.rs
// (the Storage/Transaction split and db-location/root-path rules) and on
// theRebelliousNerd-codenerd's internal/store/local_core.go for the
// sql.Open + PRAGMA setup idiom, adapted from mattn/go-sqlite3 in place of
// that teacher's modernc.org/sqlite driver.
package store

import (
	"database/sql"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/errs"
)

// Store is a single tmsu database file.
type Store struct {
	db       *sql.DB
	dbPath   string
	rootPath string
	log      *zap.Logger
}

// Create initializes the database file at dbPath (SQLite creates it when
// absent) and closes it again. An existing database at dbPath is not
// rejected: it is opened, its schema brought up to date, and left as is.
func Create(dbPath string, log *zap.Logger) error {
	s, err := openOrCreate(dbPath, log)
	if err != nil {
		return err
	}
	return s.Close()
}

// Open opens the database file at dbPath, creating it if absent, and
// determines the storage root per spec.md §6.
func Open(dbPath string, log *zap.Logger) (*Store, error) {
	return openOrCreate(dbPath, log)
}

func openOrCreate(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("store")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errs.DatabaseAccessError(dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	canonical, err := filepath.Abs(dbPath)
	if err != nil {
		db.Close()
		return nil, errs.NoDatabaseFound(dbPath)
	}

	s := &Store{db: db, dbPath: canonical, rootPath: determineRootPath(canonical), log: log}

	if err := s.upgradeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// determineRootPath implements spec.md §6: if the database file's parent
// directory is named ".tmsu", the root is that directory's parent;
// otherwise it is the database file's parent.
func determineRootPath(canonicalDBPath string) string {
	parent := filepath.Dir(canonicalDBPath)
	if filepath.Base(parent) == ".tmsu" {
		return filepath.Dir(parent)
	}
	return parent
}

// RootPath returns the storage root determined at open time.
func (s *Store) RootPath() string { return s.rootPath }

// DBPath returns the canonical path of the database file.
func (s *Store) DBPath() string { return s.dbPath }

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a single open transaction, borrowed mutably by storage operations
// for the duration of one statement (spec.md §5). It is not safe for
// concurrent use.
type Tx struct {
	tx  *sql.Tx
	log *zap.Logger
}

// Begin opens a new writable transaction. All mutating operations require
// one; read operations also run inside one to observe a consistent
// snapshot.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Storage("begin transaction", err)
	}
	return &Tx{tx: tx, log: s.log}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return errs.Storage("commit", err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit (it is then a
// no-op returning sql.ErrTxDone, which is ignored).
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errs.Storage("rollback", err)
	}
	return nil
}

// exec runs a statement expected to affect rows, returning the affected
// count.
func (t *Tx) exec(query string, args ...interface{}) (int64, error) {
	res, err := t.tx.Exec(query, args...)
	if err != nil {
		return 0, errs.Storage("exec", err)
	}
	return res.RowsAffected()
}

func (t *Tx) lastInsertID() (int64, error) {
	// sqlite3 reports last_insert_rowid() per-connection; called
	// immediately after the insert within the same transaction.
	row := t.tx.QueryRow("SELECT last_insert_rowid()")
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, errs.Storage("last_insert_rowid", err)
	}
	return id, nil
}

func (t *Tx) countFromTable(table string) (uint64, error) {
	row := t.tx.QueryRow("SELECT count(*) FROM " + table)
	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, errs.Storage("count "+table, err)
	}
	return n, nil
}

// collationFor returns the SQL collation clause for name comparisons, per
// spec.md §4.5's "Name matching obeys ignore_case by switching the
// collation".
func collationFor(ignoreCase bool) string {
	if ignoreCase {
		return " COLLATE NOCASE"
	}
	return ""
}
