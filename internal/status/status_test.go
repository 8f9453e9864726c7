package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/store"
)

func openStatusTx(t *testing.T) (pathutil.CanonicalPath, *store.Tx) {
	t.Helper()
	dir := t.TempDir()
	dbDir := filepath.Join(dir, ".tmsu")
	require.NoError(t, os.Mkdir(dbDir, 0o755))
	dbPath := filepath.Join(dbDir, "db")

	s, err := store.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	root, err := pathutil.NewCanonicalPath(s.RootPath())
	require.NoError(t, err)

	tx, err := s.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })

	return root, tx
}

func writeFile(t *testing.T, path, content string) os.FileInfo {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func findEntry(t *testing.T, report *Report, path string) Entry {
	t.Helper()
	for _, e := range report.Entries {
		if e.Path == path {
			return e
		}
	}
	t.Fatalf("no entry for %q in %v", path, report.Entries)
	return Entry{}
}

func TestDatabaseStatusClassifiesTrackedAndUntagged(t *testing.T) {
	root, tx := openStatusTx(t)

	taggedPath := filepath.Join(root.String(), "tagged.txt")
	info := writeFile(t, taggedPath, "same")
	_, err := tx.UpdateFile(".", "tagged.txt", "fp", info.ModTime().UnixNano(), uint64(info.Size()), false)
	require.NoError(t, err)

	missingPath := filepath.Join(root.String(), "gone.txt")
	_, err = tx.UpdateFile(".", "gone.txt", "fp", 0, 1, false)
	require.NoError(t, err)

	// A new file alongside a tracked *directory* is discoverable: once the
	// top-level tree walk reaches the tracked "sub" node it falls back to a
	// real filesystem scan beneath it. A new file at the database root with
	// no tracked directory ancestor is not discoverable this way (spec.md
	// §4.10 scopes the fallback scan to each top-level tracked subtree).
	subDir := filepath.Join(root.String(), "sub")
	require.NoError(t, os.Mkdir(subDir, 0o755))
	subInfo := writeFile(t, filepath.Join(subDir, "tracked.txt"), "same")
	_, err = tx.UpdateFile(".", "sub", "", 0, 0, true)
	require.NoError(t, err)
	_, err = tx.UpdateFile("sub", "tracked.txt", "fp", subInfo.ModTime().UnixNano(), uint64(subInfo.Size()), false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(subDir, "stray.txt"), "untracked")

	report, err := DatabaseStatus(tx, zap.NewNop(), root, true)
	require.NoError(t, err)

	require.Equal(t, Tagged, findEntry(t, report, taggedPath).Status)
	require.Equal(t, Missing, findEntry(t, report, missingPath).Status)
	require.Equal(t, Tagged, findEntry(t, report, filepath.Join(subDir, "tracked.txt")).Status)
	require.Equal(t, Untagged, findEntry(t, report, filepath.Join(subDir, "stray.txt")).Status)
}

func TestFilesStatusRecursesIntoTrackedDirectory(t *testing.T) {
	root, tx := openStatusTx(t)

	subDir := filepath.Join(root.String(), "sub")
	require.NoError(t, os.Mkdir(subDir, 0o755))
	info := writeFile(t, filepath.Join(subDir, "a.txt"), "content")

	_, err := tx.UpdateFile(".", "sub", "", 0, 0, true)
	require.NoError(t, err)
	_, err = tx.UpdateFile("sub", "a.txt", "fp", info.ModTime().UnixNano(), uint64(info.Size()), false)
	require.NoError(t, err)

	report, err := FilesStatus(tx, zap.NewNop(), root, []string{subDir}, true, false)
	require.NoError(t, err)

	require.Equal(t, Tagged, findEntry(t, report, filepath.Join(subDir, "a.txt")).Status)
}

func TestListUntaggedReportsOnlyUntrackedEntries(t *testing.T) {
	root, tx := openStatusTx(t)

	writeFile(t, filepath.Join(root.String(), "tracked.txt"), "content")
	_, err := tx.UpdateFile(".", "tracked.txt", "fp", 0, 7, false)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root.String(), "stray.txt"), "x")

	var seen []string
	require.NoError(t, ListUntagged(tx, zap.NewNop(), root, []string{root.String()}, true, false, func(p string) {
		seen = append(seen, p)
	}))

	require.Contains(t, seen, filepath.Join(root.String(), "stray.txt"))
	require.NotContains(t, seen, filepath.Join(root.String(), "tracked.txt"))
}

func TestResolvePathFollowsSymlinkWhenRequested(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	resolved, isSymlink, err := resolvePath(link, true)
	require.NoError(t, err)
	require.True(t, isSymlink)
	realTarget, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	require.Equal(t, realTarget, resolved)

	unresolved, isSymlink2, err := resolvePath(link, false)
	require.NoError(t, err)
	require.True(t, isSymlink2)
	require.Equal(t, link, unresolved)
}
