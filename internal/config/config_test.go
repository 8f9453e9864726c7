package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocatePrefersExplicitPath(t *testing.T) {
	path, err := Locate("/some/explicit/db")
	require.NoError(t, err)
	require.Equal(t, "/some/explicit/db", path)
}

func TestLocateWalksUpForTmsuDB(t *testing.T) {
	root := t.TempDir()
	dbDir := filepath.Join(root, dbDirName)
	require.NoError(t, os.Mkdir(dbDir, 0o755))
	dbPath := filepath.Join(dbDir, dbFileName)
	require.NoError(t, os.WriteFile(dbPath, []byte{}, 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, ok := walkUpForDB(nested)
	require.True(t, ok)
	require.Equal(t, dbPath, found)
}

func TestLocateFallsBackToEnvVar(t *testing.T) {
	t.Setenv(envVar, "/env/db/path")

	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })

	path, err := Locate("")
	require.NoError(t, err)
	require.Equal(t, "/env/db/path", path)
}

func TestLoadPreferencesReturnsDefaultsWhenMissing(t *testing.T) {
	prefs, err := LoadPreferences(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultPreferences(), prefs)
}

func TestPreferencesSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	prefs := &Preferences{Color: false, DefaultSort: "size", CaseInsensitive: true}
	require.NoError(t, prefs.Save(path))

	loaded, err := LoadPreferences(path)
	require.NoError(t, err)
	require.Equal(t, prefs, loaded)
}
