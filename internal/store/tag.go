package store

import (
	"database/sql"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
)

// TagCount returns the number of tags known to storage.
func (t *Tx) TagCount() (uint64, error) {
	return t.countFromTable("tag")
}

// Tags returns every tag, ordered by name.
func (t *Tx) Tags() ([]model.Tag, error) {
	rows, err := t.tx.Query("SELECT id, name FROM tag ORDER BY name")
	if err != nil {
		return nil, errs.Storage("list tags", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// TagByID looks up a tag by its id.
func (t *Tx) TagByID(id model.TagID) (*model.Tag, error) {
	row := t.tx.QueryRow("SELECT id, name FROM tag WHERE id = ?", uint32(id))
	return scanOptionalTag(row)
}

// TagsByNames looks up every tag named in names, honoring ignoreCase.
func (t *Tx) TagsByNames(names []string, ignoreCase bool) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	b := NewBuilder()
	b.SQL("SELECT id, name FROM tag WHERE name" + collationFor(ignoreCase) + " IN (")
	b.Placeholders(toInterfaceSlice(names))
	b.SQL(")")
	sql, params := b.Build()

	rows, err := t.tx.Query(sql, params...)
	if err != nil {
		return nil, errs.Storage("lookup tags by name", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// TagByName looks up a single tag by exact (case-sensitive) name. An empty
// name always yields (nil, nil), matching the legacy behavior of treating
// it as "no such tag" rather than a lookup of a zero-id placeholder.
func (t *Tx) TagByName(name string) (*model.Tag, error) {
	tags, err := t.TagsByNames([]string{name}, false)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return &tags[0], nil
}

// InsertTag creates a new tag row.
func (t *Tx) InsertTag(name string) (model.Tag, error) {
	if _, err := t.exec("INSERT INTO tag (name) VALUES (?)", name); err != nil {
		return model.Tag{}, errs.Storage("insert tag", err)
	}
	id, err := t.lastInsertID()
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: model.TagID(id), Name: name}, nil
}

// RenameTag updates a tag's name, requiring exactly one row affected.
func (t *Tx) RenameTag(id model.TagID, name string) error {
	n, err := t.exec("UPDATE tag SET name = ? WHERE id = ?", name, uint32(id))
	if err != nil {
		return errs.Storage("rename tag", err)
	}
	if n != 1 {
		return errs.UnaffectedRows(1, n)
	}
	return nil
}

// DeleteTag removes a tag row, requiring exactly one row affected.
func (t *Tx) DeleteTag(id model.TagID) error {
	n, err := t.exec("DELETE FROM tag WHERE id = ?", uint32(id))
	if err != nil {
		return errs.Storage("delete tag", err)
	}
	if n != 1 {
		return errs.UnaffectedRows(1, n)
	}
	return nil
}

// TagUsage returns the file count of every tag used by at least one
// file-tag row; tags with no file-tag rows are not listed.
func (t *Tx) TagUsage() ([]model.TagFileCount, error) {
	rows, err := t.tx.Query(`
SELECT t.id, t.name, count(ft.file_id)
FROM file_tag ft, tag t
WHERE ft.tag_id = t.id
GROUP BY t.id
ORDER BY t.name`)
	if err != nil {
		return nil, errs.Storage("tag usage", err)
	}
	defer rows.Close()

	var out []model.TagFileCount
	for rows.Next() {
		var c model.TagFileCount
		if err := rows.Scan(&c.ID, &c.Name, &c.FileCount); err != nil {
			return nil, errs.Storage("scan tag usage", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	var out []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, errs.Storage("scan tag", err)
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func scanOptionalTag(row *sql.Row) (*model.Tag, error) {
	var tag model.Tag
	switch err := row.Scan(&tag.ID, &tag.Name); err {
	case nil:
		return &tag, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, errs.Storage("scan tag", err)
	}
}
