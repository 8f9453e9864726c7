// Package errs defines the error kinds surfaced by the tmsu core, per
// spec.md §7. Every kind wraps an optional cause with github.com/pkg/errors
// so that context accumulates the way the storage and path layers in the
// example corpus do it.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the category of a core error, independent of its message.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoDatabaseFound
	KindDatabaseAccess
	KindQueryParsing
	KindNoSuchTag
	KindNoSuchValue
	KindNoSuchSetting
	KindNameTaken
	KindInvalidName
	KindImplicationCycle
	KindFileNotFound
	KindIO
	KindStorage
	KindUnaffectedRows
)

// Error is the concrete error type returned by core operations.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Cause returns the wrapped error, for callers using errors.Cause.
func (e *Error) Cause() error { return e.cause }

func newErr(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// NoDatabaseFound reports that no tmsu database could be located (spec.md §6).
func NoDatabaseFound(path string) error {
	return newErr(KindNoDatabaseFound, nil, "no database found starting from '%s'", path)
}

// DatabaseAccessError reports a failure opening or initializing the database file.
func DatabaseAccessError(path string, cause error) error {
	return newErr(KindDatabaseAccess, cause, "could not access database '%s'", path)
}

// QueryParsingError reports a malformed query expression (spec.md §4.3).
func QueryParsingError(query string, cause error) error {
	return newErr(KindQueryParsing, cause, "could not parse query '%s'", query)
}

// NoSuchTag reports a reference to a tag that does not exist.
func NoSuchTag(name string) error {
	return newErr(KindNoSuchTag, nil, "no such tag '%s'", name)
}

// NoSuchValue reports a reference to a value that does not exist.
func NoSuchValue(name string) error {
	return newErr(KindNoSuchValue, nil, "no such value '%s'", name)
}

// NoSuchSetting reports a reference to an unknown setting name.
func NoSuchSetting(name string) error {
	return newErr(KindNoSuchSetting, nil, "no such setting '%s'", name)
}

// NameTaken reports an attempted rename/copy/create onto an existing name.
func NameTaken(kind, name string) error {
	return newErr(KindNameTaken, nil, "%s '%s' already exists", kind, name)
}

// InvalidName reports a tag/value name rejected by the validator (spec.md §4.2).
func InvalidName(kind, name, reason string) error {
	return newErr(KindInvalidName, nil, "invalid %s name '%s': %s", kind, name, reason)
}

// ImplicationCycle reports that adding an implication would create a cycle (spec.md §4.6).
func ImplicationCycle(implying, implied string) error {
	return newErr(KindImplicationCycle, nil, "implication of '%s' to '%s' would create a cycle", implying, implied)
}

// FileNotFound reports that a path does not exist on disk when one was required.
func FileNotFound(path string) error {
	return newErr(KindFileNotFound, nil, "file not found: '%s'", path)
}

// IOError wraps a filesystem I/O failure.
func IOError(cause error) error {
	return newErr(KindIO, cause, "i/o error")
}

// Storage wraps an unexpected failure from the storage backend.
func Storage(op string, cause error) error {
	return newErr(KindStorage, cause, "storage error during %s", op)
}

// UnaffectedRows reports a write whose affected-row count didn't match expectations.
func UnaffectedRows(expected, actual int64) error {
	return newErr(KindUnaffectedRows, nil, "expected to affect %d row(s), affected %d", expected, actual)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Explain renders the single-line "could not <op> '<arg>': <cause>" format
// from spec.md §7, for use at the CLI boundary.
func Explain(op, arg string, err error) string {
	if arg == "" {
		return fmt.Sprintf("could not %s: %s", op, err)
	}
	return fmt.Sprintf("could not %s '%s': %s", op, arg, err)
}
