package store

import (
	"database/sql"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
)

// Implications returns every implication row.
func (t *Tx) Implications() ([]model.Implication, error) {
	rows, err := t.tx.Query(`
SELECT tag_id, value_id, implied_tag_id, implied_value_id
FROM implication
ORDER BY tag_id, value_id`)
	if err != nil {
		return nil, errs.Storage("list implications", err)
	}
	defer rows.Close()
	return scanImplications(rows)
}

// ImplicationsForPairs returns every implication whose implying side matches
// one of pairs, per the wildcard rule of spec.md §4.6: a value_id of 0 on
// either side of the comparison matches any value, so this fetches both
// tag-wide implications (the stored edge is value-less) and, when the
// frontier pair itself carries no value, every edge for that tag regardless
// of the edge's own implying value. Mirrors the pair-wildcard pattern of
// internal/compiler's buildTagBranch.
func (t *Tx) ImplicationsForPairs(pairs []model.TagValuePair) ([]model.Implication, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	b := NewBuilder()
	b.SQL("SELECT tag_id, value_id, implied_tag_id, implied_value_id FROM implication WHERE")
	for i, p := range pairs {
		if i > 0 {
			b.SQL("OR")
		}
		valueID := p.Value.ToStorage()
		b.SQL("(tag_id = ?")
		b.params = append(b.params, uint32(p.TagID))
		b.SQL("AND (value_id = 0 OR value_id = ? OR ? = 0))")
		b.params = append(b.params, valueID, valueID)
	}
	sql, params := b.Build()

	rows, err := t.tx.Query(sql, params...)
	if err != nil {
		return nil, errs.Storage("implications for pairs", err)
	}
	defer rows.Close()
	return scanImplications(rows)
}

// AddImplication inserts a new implication row.
func (t *Tx) AddImplication(implying, implied model.TagValuePair) error {
	if _, err := t.exec(
		"INSERT OR IGNORE INTO implication (tag_id, value_id, implied_tag_id, implied_value_id) VALUES (?, ?, ?, ?)",
		uint32(implying.TagID), implying.Value.ToStorage(), uint32(implied.TagID), implied.Value.ToStorage(),
	); err != nil {
		return errs.Storage("add implication", err)
	}
	return nil
}

// DeleteImplication removes a single implication by its endpoints.
func (t *Tx) DeleteImplication(implying, implied model.TagValuePair) error {
	if _, err := t.exec(
		"DELETE FROM implication WHERE tag_id = ? AND value_id = ? AND implied_tag_id = ? AND implied_value_id = ?",
		uint32(implying.TagID), implying.Value.ToStorage(), uint32(implied.TagID), implied.Value.ToStorage(),
	); err != nil {
		return errs.Storage("delete implication", err)
	}
	return nil
}

// DeleteImplicationsByTagID removes every implication where tagID appears on
// either side (spec.md §4.8 tag deletion cascade).
func (t *Tx) DeleteImplicationsByTagID(tagID model.TagID) error {
	if _, err := t.exec(
		"DELETE FROM implication WHERE tag_id = ?1 OR implied_tag_id = ?1", uint32(tagID),
	); err != nil {
		return errs.Storage("delete implications by tag", err)
	}
	return nil
}

// DeleteImplicationsByValueID removes every implication where valueID
// appears on either side (spec.md §4.8 value deletion cascade).
func (t *Tx) DeleteImplicationsByValueID(valueID model.ValueID) error {
	if _, err := t.exec(
		"DELETE FROM implication WHERE value_id = ?1 OR implied_value_id = ?1", uint32(valueID),
	); err != nil {
		return errs.Storage("delete implications by value", err)
	}
	return nil
}

func scanImplications(rows *sql.Rows) ([]model.Implication, error) {
	var out []model.Implication
	for rows.Next() {
		var tagID, impliedTagID uint32
		var valueID, impliedValueID uint32
		if err := rows.Scan(&tagID, &valueID, &impliedTagID, &impliedValueID); err != nil {
			return nil, errs.Storage("scan implication", err)
		}
		out = append(out, model.Implication{
			Implying: model.TagValuePair{TagID: model.TagID(tagID), Value: model.FromStorage(valueID)},
			Implied:  model.TagValuePair{TagID: model.TagID(impliedTagID), Value: model.FromStorage(impliedValueID)},
		})
	}
	return out, rows.Err()
}
