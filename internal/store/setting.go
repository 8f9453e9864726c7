package store

import "github.com/lefth/tmsu/internal/errs"

// Settings returns every stored (name, value) setting pair.
func (t *Tx) Settings() (map[string]string, error) {
	rows, err := t.tx.Query("SELECT name, value FROM setting")
	if err != nil {
		return nil, errs.Storage("list settings", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errs.Storage("scan setting", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// UpsertSetting inserts or replaces a single setting's value.
func (t *Tx) UpsertSetting(name, value string) error {
	if _, err := t.exec("INSERT OR REPLACE INTO setting (name, value) VALUES (?, ?)", name, value); err != nil {
		return errs.Storage("upsert setting", err)
	}
	return nil
}
