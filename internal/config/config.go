// Package config covers the two ambient concerns spec.md §6 names but does
// not design the shape of: locating the database file a command should
// operate against, and a small on-disk CLI preferences file. It follows the
// teacher's internal/config package's load/save shape (yaml.v3, defaults
// merged under a missing file) without its domain-specific schema.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lefth/tmsu/internal/errs"
)

const (
	dbDirName  = ".tmsu"
	dbFileName = "db"
	envVar     = "TMSU_DB"
)

// Locate implements spec.md §6's search order for which database file a
// command should open: an explicit path wins outright; failing that, a
// non-empty $TMSU_DB is used as given; failing that, walk upward from the
// working directory looking for a .tmsu/db; failing that, fall back to
// $HOME/.tmsu/default.db. Returns errs.NoDatabaseFound if none
// of these resolve to an existing file.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if fromEnv := os.Getenv(envVar); fromEnv != "" {
		return fromEnv, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine working directory")
	}

	if found, ok := walkUpForDB(cwd); ok {
		return found, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		defaultDB := filepath.Join(home, dbDirName, "default.db")
		if _, statErr := os.Stat(defaultDB); statErr == nil {
			return defaultDB, nil
		}
	}

	return "", errs.NoDatabaseFound(cwd)
}

// walkUpForDB looks for <dir>/.tmsu/db at dir and each of its ancestors, in
// that order, stopping at the filesystem root.
func walkUpForDB(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, dbDirName, dbFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Preferences holds CLI-only display preferences, distinct from the
// in-database Setting entity (spec.md §3/§4.4) which governs engine
// behavior rather than how the CLI renders it.
type Preferences struct {
	Color           bool   `yaml:"color"`
	DefaultSort     string `yaml:"default_sort"`
	CaseInsensitive bool   `yaml:"case_insensitive"`
	FollowSymlinks  bool   `yaml:"follow_symlinks"`
}

// DefaultPreferences returns the preferences a freshly-installed CLI uses.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Color:       true,
		DefaultSort: "name",
	}
}

// PreferencesPath returns the default location of the CLI preferences file.
func PreferencesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine home directory")
	}
	return filepath.Join(home, ".config", "tmsu", "config.yaml"), nil
}

// LoadPreferences reads path, returning defaults (not an error) if the file
// does not exist.
func LoadPreferences(path string) (*Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return nil, errors.Wrapf(err, "unable to read '%s'", path)
	}

	if err := yaml.Unmarshal(data, prefs); err != nil {
		return nil, errors.Wrapf(err, "unable to parse '%s'", path)
	}
	return prefs, nil
}

// Save writes the preferences to path as YAML, creating its parent
// directory if needed.
func (p *Preferences) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create '%s'", filepath.Dir(path))
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "unable to marshal preferences")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write '%s'", path)
	}
	return nil
}
