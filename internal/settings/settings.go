// Package settings implements the typed, defaulted configuration registry
// of spec.md §4.4 (C4), grounded on original_source/src/entities/settings.rs.
package settings

import (
	"strings"

	"github.com/lefth/tmsu/internal/errs"
)

// Type identifies the kind of a setting's value.
type Type int

const (
	TypeBool Type = iota
	TypeString
)

// Names of every known setting.
const (
	AutoCreateTags                = "autoCreateTags"
	AutoCreateValues               = "autoCreateValues"
	FileFingerprintAlgorithm       = "fileFingerprintAlgorithm"
	DirectoryFingerprintAlgorithm  = "directoryFingerprintAlgorithm"
	SymlinkFingerprintAlgorithm    = "symlinkFingerprintAlgorithm"
	ReportDuplicates               = "reportDuplicates"
)

type definition struct {
	kind    Type
	def     string
}

var registry = map[string]definition{
	AutoCreateTags:               {kind: TypeBool, def: "true"},
	AutoCreateValues:             {kind: TypeBool, def: "true"},
	FileFingerprintAlgorithm:     {kind: TypeString, def: "dynamic:SHA256"},
	DirectoryFingerprintAlgorithm: {kind: TypeString, def: "none"},
	SymlinkFingerprintAlgorithm:  {kind: TypeString, def: "follow"},
	ReportDuplicates:             {kind: TypeBool, def: "true"},
}

// Settings is a snapshot of every setting's current value, keyed by name.
// Values are stored as their canonical string form; booleans are "true" or
// "false".
type Settings struct {
	values map[string]string
}

// Default returns a Settings populated entirely with default values.
func Default() *Settings {
	s := &Settings{values: map[string]string{}}
	for name, d := range registry {
		s.values[name] = d.def
	}
	return s
}

// FromStored builds a Settings from (name, value) pairs loaded from
// storage, filling in any setting absent from stored with its default.
func FromStored(stored map[string]string) *Settings {
	s := Default()
	for name, value := range stored {
		if _, known := registry[name]; known {
			s.values[name] = value
		}
	}
	return s
}

// Get returns the current string value of name, and whether name is known.
func (s *Settings) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// GetBool returns the boolean value of a known boolean setting.
func (s *Settings) GetBool(name string) bool {
	v := s.values[name]
	return v == "true"
}

// Set validates and applies value to name, returning the canonical form
// that should be persisted.
func Set(name, value string) (string, error) {
	d, ok := registry[name]
	if !ok {
		return "", errs.NoSuchSetting(name)
	}
	switch d.kind {
	case TypeBool:
		b, ok := parseBool(value)
		if !ok {
			return "", errs.InvalidName("setting", name, "expected a boolean (yes/no/true/false)")
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case TypeString:
		if strings.TrimSpace(value) == "" {
			return "", errs.InvalidName("setting", name, "expected a non-empty string")
		}
		return value, nil
	default:
		return "", errs.NoSuchSetting(name)
	}
}

// Names returns every registered setting name.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// parseBool implements spec.md §4.4's "any all-lower/all-upper/title case"
// acceptance rule for yes/no/true/false.
func parseBool(value string) (bool, bool) {
	switch value {
	case "yes", "YES", "Yes", "true", "TRUE", "True":
		return true, true
	case "no", "NO", "No", "false", "FALSE", "False":
		return false, true
	default:
		return false, false
	}
}
