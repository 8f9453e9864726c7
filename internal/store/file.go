package store

import (
	"database/sql"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
)

const fileColumns = "id, directory, name, fingerprint, mod_time, size, is_dir"

// FileCount returns the number of tracked files.
func (t *Tx) FileCount() (uint64, error) {
	return t.countFromTable("file")
}

// Files returns every tracked file, ordered per sort.
func (t *Tx) Files(sortBy model.Sort) ([]model.File, error) {
	b := NewBuilder()
	b.SQL("SELECT " + fileColumns + " FROM file")
	appendSort(b, sortBy)
	sql, params := b.Build()

	rows, err := t.tx.Query(sql, params...)
	if err != nil {
		return nil, errs.Storage("list files", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FileByPath looks up the file row stored at (directory, name).
func (t *Tx) FileByPath(directory, name string) (*model.File, error) {
	row := t.tx.QueryRow("SELECT "+fileColumns+" FROM file WHERE directory = ? AND name = ?", directory, name)
	return scanOptionalFile(row)
}

// FilesByDirectory returns every file stored directly under, or within,
// directory (spec.md §4.5), optionally including in-root rows when
// containsRoot is set (the directory escapes but encloses the storage
// root).
func (t *Tx) FilesByDirectory(directory string, containsRoot bool) ([]model.File, error) {
	b := NewBuilder()
	b.SQL("SELECT " + fileColumns + " FROM file WHERE directory = ?")
	b.params = append(b.params, directory)
	b.SQL("OR directory LIKE ?")
	b.params = append(b.params, directory+"/%")
	if containsRoot {
		b.SQL("OR directory NOT LIKE '/%'")
	}
	b.SQL("ORDER BY directory || '/' || name")
	sql, params := b.Build()

	rows, err := t.tx.Query(sql, params...)
	if err != nil {
		return nil, errs.Storage("list files by directory", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// UpdateFile inserts or updates the file row identified by (directory,
// name), returning its id.
func (t *Tx) UpdateFile(directory, name, fingerprint string, modTime int64, size uint64, isDir bool) (model.FileID, error) {
	existing, err := t.FileByPath(directory, name)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		if _, err := t.exec(
			"INSERT INTO file (directory, name, fingerprint, mod_time, size, is_dir) VALUES (?, ?, ?, ?, ?, ?)",
			directory, name, fingerprint, modTime, size, boolToInt(isDir),
		); err != nil {
			return 0, errs.Storage("insert file", err)
		}
		id, err := t.lastInsertID()
		if err != nil {
			return 0, err
		}
		return model.FileID(id), nil
	}

	if _, err := t.exec(
		"UPDATE file SET directory = ?, name = ?, fingerprint = ?, mod_time = ?, size = ?, is_dir = ? WHERE id = ?",
		directory, name, fingerprint, modTime, size, boolToInt(isDir), uint32(existing.ID),
	); err != nil {
		return 0, errs.Storage("update file", err)
	}
	return existing.ID, nil
}

// UpdateFileByID refreshes an existing file row identified by id in place:
// its (directory, name), fingerprint, mod-time, size and is_dir are all
// overwritten. The repair planner uses this both to refresh a file at its
// current path and to relocate one to a new path (spec.md §4.9).
func (t *Tx) UpdateFileByID(id model.FileID, directory, name, fingerprint string, modTime int64, size uint64, isDir bool) error {
	n, err := t.exec(
		"UPDATE file SET directory = ?, name = ?, fingerprint = ?, mod_time = ?, size = ?, is_dir = ? WHERE id = ?",
		directory, name, fingerprint, modTime, size, boolToInt(isDir), uint32(id),
	)
	if err != nil {
		return errs.Storage("update file", err)
	}
	if n != 1 {
		return errs.UnaffectedRows(1, n)
	}
	return nil
}

// DeleteUntaggedFiles deletes every file in ids whose file-tag count is
// zero (spec.md §4.5), leaving the rest untouched.
func (t *Tx) DeleteUntaggedFiles(ids []model.FileID) error {
	const sql = `
DELETE FROM file
WHERE id = ?1
AND (SELECT count(1) FROM file_tag WHERE file_id = ?1) == 0`

	for _, id := range ids {
		if _, err := t.exec(sql, uint32(id)); err != nil {
			return errs.Storage("delete untagged file", err)
		}
	}
	return nil
}

// FilesForQuery runs a fully-built SELECT (as produced by the query
// compiler) and returns the matching file rows.
func (t *Tx) FilesForQuery(sqlText string, params []interface{}) ([]model.File, error) {
	rows, err := t.tx.Query(sqlText, params...)
	if err != nil {
		return nil, errs.Storage("query files", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FileColumns is the column list callers building queries against the file
// table (e.g. the query compiler) must select, in scan order.
const FileColumns = fileColumns

func appendSort(b *Builder, sortBy model.Sort) {
	switch sortBy {
	case model.SortID:
		b.SQL("ORDER BY id")
	case model.SortName:
		b.SQL("ORDER BY directory || '/' || name")
	case model.SortTime:
		b.SQL("ORDER BY mod_time, directory || '/' || name")
	case model.SortSize:
		b.SQL("ORDER BY size, directory || '/' || name")
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanFiles(rows *sql.Rows) ([]model.File, error) {
	var out []model.File
	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFileRow(rows *sql.Rows) (model.File, error) {
	var f model.File
	var isDir int
	if err := rows.Scan(&f.ID, &f.Directory, &f.Name, &f.Fingerprint, &f.ModTime, &f.Size, &isDir); err != nil {
		return model.File{}, errs.Storage("scan file", err)
	}
	f.IsDir = isDir != 0
	return f, nil
}

func scanOptionalFile(row *sql.Row) (*model.File, error) {
	var f model.File
	var isDir int
	switch err := row.Scan(&f.ID, &f.Directory, &f.Name, &f.Fingerprint, &f.ModTime, &f.Size, &isDir); err {
	case nil:
		f.IsDir = isDir != 0
		return &f, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, errs.Storage("scan file", err)
	}
}
