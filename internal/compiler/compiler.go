// Package compiler translates a parsed query.Expression into a single
// parameterized SELECT over the file table (spec.md §4.7, C7). Grounded on
// original_source/src/storage/file.rs's build_query/build_query_branch/
// build_tag_query_branch/build_comp_query_branch/build_path_clause/
// build_sort family, translated statement-for-statement from the Rust
// SqlBuilder onto internal/store's Builder.
package compiler

import (
	"path/filepath"
	"strconv"

	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/query"
	"github.com/lefth/tmsu/internal/store"
)

// Options controls how an Expression compiles to SQL.
type Options struct {
	ExplicitOnly bool
	IgnoreCase   bool
	Path         *pathutil.ScopedPath
	Sort         *model.Sort
}

// Compile builds the SQL text and bound parameters selecting the file rows
// matching expr (nil means "no expression": every file).
func Compile(expr query.Expression, opts Options) (string, []interface{}) {
	b := store.NewBuilder()
	b.SQL("SELECT " + store.FileColumns + " FROM file WHERE")

	if expr != nil {
		buildBranch(b, expr, opts.ExplicitOnly, opts.IgnoreCase)
	} else {
		b.SQL("1 = 1")
	}

	if opts.Path != nil {
		buildPathClause(b, *opts.Path)
	}

	if opts.Sort != nil {
		buildSort(b, *opts.Sort)
	}

	return b.Build()
}

func buildBranch(b *store.Builder, expr query.Expression, explicitOnly, ignoreCase bool) {
	switch e := expr.(type) {
	case query.Not:
		b.SQL("NOT")
		buildBranch(b, e.Operand, explicitOnly, ignoreCase)
	case query.And:
		buildBranch(b, e.Left, explicitOnly, ignoreCase)
		b.SQL("AND")
		buildBranch(b, e.Right, explicitOnly, ignoreCase)
	case query.Or:
		b.SQL("(")
		buildBranch(b, e.Left, explicitOnly, ignoreCase)
		b.SQL("OR")
		buildBranch(b, e.Right, explicitOnly, ignoreCase)
		b.SQL(")")
	case query.Tag:
		buildTagBranch(b, e, explicitOnly, ignoreCase)
	case query.Comparison:
		buildComparisonBranch(b, e, explicitOnly, ignoreCase)
	}
}

func buildTagBranch(b *store.Builder, tag query.Tag, explicitOnly, ignoreCase bool) {
	collation := collationFor(ignoreCase)

	if explicitOnly {
		b.SQL(`id IN (SELECT file_id
			FROM file_tag
			WHERE tag_id = (SELECT id FROM tag WHERE name` + collation + ` = `)
		b.Param(tag.Name)
		b.SQL("))")
		return
	}

	b.SQL(`id IN (SELECT file_id
		FROM file_tag
		INNER JOIN (WITH RECURSIVE working (tag_id, value_id) AS
			(
				SELECT id, 0 FROM tag WHERE name` + collation + ` = `)
	b.Param(tag.Name)
	b.SQL(`
				UNION ALL
				SELECT b.tag_id, b.value_id
				FROM implication b, working
				WHERE b.implied_tag_id = working.tag_id
				AND (b.implied_value_id = working.value_id OR working.value_id = 0)
			)
			SELECT tag_id, value_id FROM working
		) imps
		ON file_tag.tag_id = imps.tag_id
		AND (file_tag.value_id = imps.value_id OR imps.value_id = 0)
	)`)
}

func buildComparisonBranch(b *store.Builder, cmp query.Comparison, explicitOnly, ignoreCase bool) {
	collation := collationFor(ignoreCase)

	valueTerm := "v.name"
	if _, err := strconv.ParseFloat(cmp.Value, 64); err == nil {
		valueTerm = "CAST(v.name AS float)"
	}

	operator := sqlOperator(cmp.Op)
	negate := false
	if operator == "!=" {
		// Reinterpreted: a file can carry several values of the same tag,
		// so "!= v" must mean "no value of v matches", not "some value
		// doesn't match v" (spec.md §4.7's negation rule).
		operator = "=="
		negate = true
	}

	if explicitOnly {
		// Explicit-only mode ignores the operator and reduces to equality,
		// matching the legacy behavior (spec.md §4.7, and §9 open question b).
		if negate {
			b.SQL("NOT")
		}
		b.SQL(`id IN (SELECT file_id
			FROM file_tag
			WHERE tag_id = (SELECT id FROM tag WHERE name` + collation + ` = `)
		b.Param(cmp.Tag)
		b.SQL(`)
			AND value_id = (SELECT id FROM value WHERE name` + collation + ` = `)
		b.Param(cmp.Value)
		b.SQL("))")
		return
	}

	if negate {
		b.SQL("NOT")
	}
	b.SQL(`id IN (WITH RECURSIVE impft (tag_id, value_id) AS
		(
			SELECT t.id, v.id
			FROM tag t, value v
			WHERE t.name` + collation + ` = `)
	b.Param(cmp.Tag)
	b.SQL(" AND " + valueTerm + collation + " " + operator + " ")
	b.Param(cmp.Value)
	b.SQL(`
			UNION ALL
			SELECT b.tag_id, b.value_id
			FROM implication b, impft
			WHERE b.implied_tag_id = impft.tag_id
			AND (b.implied_value_id = impft.value_id OR impft.value_id = 0)
		)
		SELECT file_id
		FROM file_tag
		INNER JOIN impft
		ON file_tag.tag_id = impft.tag_id AND file_tag.value_id = impft.value_id
	)`)
}

func buildPathClause(b *store.Builder, path pathutil.ScopedPath) {
	b.SQL("AND (")

	if path.Inner == "." {
		b.SQL("directory NOT LIKE '/%'")
	} else {
		b.SQL("directory = ")
		b.Param(path.Inner)
		b.SQL("OR directory LIKE ")
		b.Param(path.Inner + "/%")
		if path.ContainsRoot() {
			b.SQL("OR directory NOT LIKE '/%'")
		}
	}

	// Also match the scoped path itself as a single file entry (directory,
	// name), when it has a meaningful parent/filename split — "." and "/"
	// have neither, matching original_source/src/storage/file.rs's
	// build_path_clause leaving this branch out for those two cases.
	if dir, name, ok := parentAndFileName(path.Inner); ok {
		b.SQL("OR (directory = ")
		b.Param(dir)
		b.SQL("AND name = ")
		b.Param(name)
		b.SQL(")")
	}

	b.SQL(")")
}

func buildSort(b *store.Builder, sortBy model.Sort) {
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

func sqlOperator(op query.Operator) string {
	switch op {
	case query.Equal:
		return "=="
	case query.NotEqual:
		return "!="
	case query.LessThan:
		return "<"
	case query.LessOrEqual:
		return "<="
	case query.GreaterThan:
		return ">"
	case query.GreaterOrEqual:
		return ">="
	default:
		return "=="
	}
}

// parentAndFileName splits inner into (parent, base), reporting ok=false
// when inner has no meaningful parent (the root itself, "." or "/").
func parentAndFileName(inner string) (dir, name string, ok bool) {
	if inner == "." || inner == "/" || inner == "" {
		return "", "", false
	}
	d := filepath.Dir(inner)
	n := filepath.Base(inner)
	if d == "" || d == "." {
		d = "."
	}
	return d, n, true
}

func collationFor(ignoreCase bool) string {
	if ignoreCase {
		return " COLLATE NOCASE"
	}
	return ""
}
