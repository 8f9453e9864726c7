package store

import (
	"database/sql"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
)

// FileTagCount returns the number of explicit file-tag rows.
func (t *Tx) FileTagCount() (uint64, error) {
	return t.countFromTable("file_tag")
}

// FileTagExists reports whether an explicit file-tag row exists for the
// given (file, tag, value) tuple.
func (t *Tx) FileTagExists(fileID model.FileID, tagID model.TagID, value model.OptionalValueID) (bool, error) {
	row := t.tx.QueryRow(
		"SELECT count(*) FROM file_tag WHERE file_id = ? AND tag_id = ? AND value_id = ?",
		uint32(fileID), uint32(tagID), value.ToStorage(),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, errs.Storage("check file-tag", err)
	}
	return n > 0, nil
}

// AddFileTag inserts an explicit file-tag row, idempotently (spec.md §4.5:
// "add (idempotent)").
func (t *Tx) AddFileTag(fileID model.FileID, tagID model.TagID, value model.OptionalValueID) error {
	exists, err := t.FileTagExists(fileID, tagID, value)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := t.exec(
		"INSERT INTO file_tag (file_id, tag_id, value_id) VALUES (?, ?, ?)",
		uint32(fileID), uint32(tagID), value.ToStorage(),
	); err != nil {
		return errs.Storage("add file-tag", err)
	}
	return nil
}

// DeleteFileTag removes one explicit file-tag row.
func (t *Tx) DeleteFileTag(fileID model.FileID, tagID model.TagID, value model.OptionalValueID) error {
	if _, err := t.exec(
		"DELETE FROM file_tag WHERE file_id = ? AND tag_id = ? AND value_id = ?",
		uint32(fileID), uint32(tagID), value.ToStorage(),
	); err != nil {
		return errs.Storage("delete file-tag", err)
	}
	return nil
}

// FileTagsByTagID returns every explicit file-tag row for tagID.
func (t *Tx) FileTagsByTagID(tagID model.TagID) ([]model.FileTag, error) {
	rows, err := t.tx.Query("SELECT file_id, tag_id, value_id FROM file_tag WHERE tag_id = ?", uint32(tagID))
	if err != nil {
		return nil, errs.Storage("file-tags by tag", err)
	}
	defer rows.Close()
	return scanFileTags(rows)
}

// FileTagsByValueID returns every explicit file-tag row for valueID.
func (t *Tx) FileTagsByValueID(valueID model.ValueID) ([]model.FileTag, error) {
	rows, err := t.tx.Query("SELECT file_id, tag_id, value_id FROM file_tag WHERE value_id = ?", uint32(valueID))
	if err != nil {
		return nil, errs.Storage("file-tags by value", err)
	}
	defer rows.Close()
	return scanFileTags(rows)
}

// FileTagsByFileID returns every explicit file-tag row for fileID.
func (t *Tx) FileTagsByFileID(fileID model.FileID) ([]model.FileTag, error) {
	rows, err := t.tx.Query("SELECT file_id, tag_id, value_id FROM file_tag WHERE file_id = ?", uint32(fileID))
	if err != nil {
		return nil, errs.Storage("file-tags by file", err)
	}
	defer rows.Close()
	return scanFileTags(rows)
}

// DeleteFileTagsByTagID removes every explicit file-tag row for tagID.
func (t *Tx) DeleteFileTagsByTagID(tagID model.TagID) error {
	if _, err := t.exec("DELETE FROM file_tag WHERE tag_id = ?", uint32(tagID)); err != nil {
		return errs.Storage("delete file-tags by tag", err)
	}
	return nil
}

// DeleteFileTagsByValueID removes every explicit file-tag row for valueID.
func (t *Tx) DeleteFileTagsByValueID(valueID model.ValueID) error {
	if _, err := t.exec("DELETE FROM file_tag WHERE value_id = ?", uint32(valueID)); err != nil {
		return errs.Storage("delete file-tags by value", err)
	}
	return nil
}

// DeleteFileTagsByFileID removes every explicit file-tag row for fileID,
// used by the repair planner's missing-file disposition (spec.md §4.9.5).
func (t *Tx) DeleteFileTagsByFileID(fileID model.FileID) error {
	if _, err := t.exec("DELETE FROM file_tag WHERE file_id = ?", uint32(fileID)); err != nil {
		return errs.Storage("delete file-tags by file", err)
	}
	return nil
}

// CopyFileTags duplicates every file-tag row of sourceTagID under destTagID,
// preserving each row's value (spec.md §4.5 "copy all rows of one tag to
// another").
func (t *Tx) CopyFileTags(sourceTagID, destTagID model.TagID) error {
	if _, err := t.exec(
		"INSERT OR IGNORE INTO file_tag (file_id, tag_id, value_id) SELECT file_id, ?, value_id FROM file_tag WHERE tag_id = ?",
		uint32(destTagID), uint32(sourceTagID),
	); err != nil {
		return errs.Storage("copy file-tags", err)
	}
	return nil
}

func scanFileTags(rows *sql.Rows) ([]model.FileTag, error) {
	var out []model.FileTag
	for rows.Next() {
		var ft model.FileTag
		var rawValue uint32
		if err := rows.Scan(&ft.FileID, &ft.TagID, &rawValue); err != nil {
			return nil, errs.Storage("scan file-tag", err)
		}
		ft.Value = model.FromStorage(rawValue)
		ft.Explicit = true
		out = append(out, ft)
	}
	return out, rows.Err()
}
