package store

import (
	"database/sql"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
)

// ValueCount returns the number of values known to storage.
func (t *Tx) ValueCount() (uint64, error) {
	return t.countFromTable("value")
}

// Values returns every value, ordered by name.
func (t *Tx) Values() ([]model.Value, error) {
	rows, err := t.tx.Query("SELECT id, name FROM value ORDER BY name")
	if err != nil {
		return nil, errs.Storage("list values", err)
	}
	defer rows.Close()
	return scanValues(rows)
}

// ValueByID looks up a value by its id.
func (t *Tx) ValueByID(id model.ValueID) (*model.Value, error) {
	row := t.tx.QueryRow("SELECT id, name FROM value WHERE id = ?", uint32(id))
	return scanOptionalValue(row)
}

// ValuesByNames looks up every value named in names, honoring ignoreCase.
func (t *Tx) ValuesByNames(names []string, ignoreCase bool) ([]model.Value, error) {
	if len(names) == 0 {
		return nil, nil
	}
	b := NewBuilder()
	b.SQL("SELECT id, name FROM value WHERE name" + collationFor(ignoreCase) + " IN (")
	b.Placeholders(toInterfaceSlice(names))
	b.SQL(")")
	sql, params := b.Build()

	rows, err := t.tx.Query(sql, params...)
	if err != nil {
		return nil, errs.Storage("lookup values by name", err)
	}
	defer rows.Close()
	return scanValues(rows)
}

// ValueByName looks up a single value by exact name. An empty name always
// yields (nil, nil), per spec.md §4.5's value_by_name("") -> absent.
func (t *Tx) ValueByName(name string) (*model.Value, error) {
	if name == "" {
		return nil, nil
	}
	values, err := t.ValuesByNames([]string{name}, false)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &values[0], nil
}

// InsertValue creates a new value row.
func (t *Tx) InsertValue(name string) (model.Value, error) {
	if _, err := t.exec("INSERT INTO value (name) VALUES (?)", name); err != nil {
		return model.Value{}, errs.Storage("insert value", err)
	}
	id, err := t.lastInsertID()
	if err != nil {
		return model.Value{}, err
	}
	return model.Value{ID: model.ValueID(id), Name: name}, nil
}

// RenameValue updates a value's name, requiring exactly one row affected.
func (t *Tx) RenameValue(id model.ValueID, name string) error {
	n, err := t.exec("UPDATE value SET name = ? WHERE id = ?", name, uint32(id))
	if err != nil {
		return errs.Storage("rename value", err)
	}
	if n != 1 {
		return errs.UnaffectedRows(1, n)
	}
	return nil
}

// DeleteValue removes a value row, requiring exactly one row affected.
func (t *Tx) DeleteValue(id model.ValueID) error {
	n, err := t.exec("DELETE FROM value WHERE id = ?", uint32(id))
	if err != nil {
		return errs.Storage("delete value", err)
	}
	if n != 1 {
		return errs.UnaffectedRows(1, n)
	}
	return nil
}

// ValueUsage returns the file count of every value used by at least one
// file-tag row; values with no file-tag rows are not listed.
func (t *Tx) ValueUsage() ([]model.ValueFileCount, error) {
	rows, err := t.tx.Query(`
SELECT v.id, v.name, count(ft.file_id)
FROM file_tag ft, value v
WHERE ft.value_id = v.id
GROUP BY v.id
ORDER BY v.name`)
	if err != nil {
		return nil, errs.Storage("value usage", err)
	}
	defer rows.Close()

	var out []model.ValueFileCount
	for rows.Next() {
		var c model.ValueFileCount
		if err := rows.Scan(&c.ID, &c.Name, &c.FileCount); err != nil {
			return nil, errs.Storage("scan value usage", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanValues(rows *sql.Rows) ([]model.Value, error) {
	var out []model.Value
	for rows.Next() {
		var value model.Value
		if err := rows.Scan(&value.ID, &value.Name); err != nil {
			return nil, errs.Storage("scan value", err)
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

func scanOptionalValue(row *sql.Row) (*model.Value, error) {
	var value model.Value
	switch err := row.Scan(&value.ID, &value.Name); err {
	case nil:
		return &value, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, errs.Storage("scan value", err)
	}
}
