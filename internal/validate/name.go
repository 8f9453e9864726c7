// Package validate implements the tag/value name well-formedness rules of
// spec.md §4.2 (C2), grounded on original_source/src/entities.rs's
// validate_name_helper and the reserved-keyword table in
// original_source/src/query/parser.rs.
package validate

import "unicode"

// reservedLower holds, in lowercase, the operator keywords forbidden as names
// when they appear entirely lowercase or entirely uppercase (mixed case,
// e.g. "AnD", is allowed per spec.md §4.2).
var reservedLower = map[string]bool{
	"and": true, "or": true, "not": true,
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
}

// Result describes why a name failed validation, or that it is valid.
type Result struct {
	Valid  bool
	Reason string
}

func ok() Result { return Result{Valid: true} }

func invalid(reason string) Result { return Result{Valid: false, Reason: reason} }

// Name validates a tag or value name per spec.md §4.2. Validation depends
// only on the input string, is total, and is idempotent (property 2 of
// spec.md §8).
func Name(name string) Result {
	if name == "" {
		return invalid("name must not be empty")
	}
	if name == "." || name == ".." {
		return invalid("name must not be '.' or '..'")
	}
	if isReservedKeyword(name) {
		return invalid("name is a reserved keyword")
	}
	for _, r := range name {
		if !isAllowedRune(r) {
			return invalid("name contains a disallowed character")
		}
	}
	return ok()
}

func isReservedKeyword(name string) bool {
	lower := toLower(name)
	upper := toUpper(name)
	if name == lower && reservedLower[lower] {
		return true
	}
	if name == upper && reservedLower[lower] {
		return true
	}
	return false
}

func toLower(s string) string {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return string(r)
}

func toUpper(s string) string {
	r := []rune(s)
	for i, c := range r {
		r[i] = unicode.ToUpper(c)
	}
	return string(r)
}

// isAllowedRune reports whether r belongs to one of the Unicode categories
// spec.md §4.2 permits: Letter, Number, Punctuation, Symbol, or Whitespace.
func isAllowedRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsNumber(r) ||
		unicode.IsPunct(r) ||
		unicode.IsSymbol(r) ||
		unicode.IsSpace(r)
}
