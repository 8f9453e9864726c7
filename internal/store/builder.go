package store

import "strings"

// Builder composes a parameterized SQL statement incrementally, for the
// variable-arity compositions spec.md §4.5 calls for (IN (...) clauses, and
// the query compiler's recursive expression translation in C7). Grounded on
// original_source/src/storage.rs's SqlBuilder usage in storage/file.rs
// (append_sql/append_param), translated from the Rust builder's implicit
// positional "?" placeholders to the same convention in database/sql.
type Builder struct {
	sql    strings.Builder
	params []interface{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SQL appends a raw SQL fragment, with a separating space.
func (b *Builder) SQL(fragment string) *Builder {
	if b.sql.Len() > 0 {
		b.sql.WriteByte(' ')
	}
	b.sql.WriteString(fragment)
	return b
}

// Param appends a "?" placeholder bound to value.
func (b *Builder) Param(value interface{}) *Builder {
	b.SQL("?")
	b.params = append(b.params, value)
	return b
}

// Placeholders appends a comma-separated "?" list of len(values) bound
// positionally to values, for an IN (...) clause.
func (b *Builder) Placeholders(values []interface{}) *Builder {
	marks := make([]string, len(values))
	for i := range values {
		marks[i] = "?"
	}
	b.SQL(strings.Join(marks, ","))
	b.params = append(b.params, values...)
	return b
}

// Build returns the accumulated SQL text and its positional parameters.
func (b *Builder) Build() (string, []interface{}) {
	return b.sql.String(), b.params
}

// toInterfaceSlice is a convenience for callers holding a []string they want
// bound as IN (...) parameters.
func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
