package repair

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/fingerprint"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
)

// openRepairTx creates a fresh store rooted at a temporary directory (via a
// .tmsu/db layout, so determineRootPath resolves the root to that
// directory) and returns the root, the open transaction, and registers
// cleanup.
func openRepairTx(t *testing.T) (pathutil.CanonicalPath, *store.Tx) {
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

func requireContainsID(t *testing.T, files []model.File, id model.FileID) {
	t.Helper()
	for _, f := range files {
		if f.ID == id {
			return
		}
	}
	t.Fatalf("file id %d not found in %v", id, files)
}

func TestDetermineStatusesClassifiesEachBucket(t *testing.T) {
	root, tx := openRepairTx(t)

	info := writeFile(t, filepath.Join(root.String(), "unmod.txt"), "same")
	unmodID, err := tx.UpdateFile(".", "unmod.txt", "fp", info.ModTime().UnixNano(), uint64(info.Size()), false)
	require.NoError(t, err)

	info2 := writeFile(t, filepath.Join(root.String(), "mod.txt"), "original")
	modID, err := tx.UpdateFile(".", "mod.txt", "fp", info2.ModTime().UnixNano(), uint64(info2.Size()), false)
	require.NoError(t, err)
	// Change on-disk content without updating storage, so size diverges and
	// it reads modified regardless of mod-time resolution.
	writeFile(t, filepath.Join(root.String(), "mod.txt"), "a very different length of content")

	missingID, err := tx.UpdateFile(".", "gone.txt", "fp", 0, 1, false)
	require.NoError(t, err)

	files, err := tx.Files(model.SortID)
	require.NoError(t, err)

	statuses := DetermineStatuses(zap.NewNop(), root, files)

	requireContainsID(t, statuses.Unmodified, unmodID)
	requireContainsID(t, statuses.Modified, modID)
	requireContainsID(t, statuses.Missing, missingID)
}

func TestRepairMovedRelocatesMatchingFile(t *testing.T) {
	root, tx := openRepairTx(t)

	searchDir := filepath.Join(root.String(), "elsewhere")
	require.NoError(t, os.Mkdir(searchDir, 0o755))

	oldPath := filepath.Join(root.String(), "photo.jpg")
	writeFile(t, oldPath, "same bytes")
	fp, err := fingerprint.Create(oldPath, "dynamic:SHA256", "none", "follow")
	require.NoError(t, err)

	fileID, err := tx.UpdateFile(".", "photo.jpg", fp, 0, 10, false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(oldPath))

	newPath := filepath.Join(searchDir, "photo.jpg")
	writeFile(t, newPath, "same bytes")

	missing := []model.File{{ID: fileID, Directory: ".", Name: "photo.jpg", Fingerprint: fp, Size: 10}}
	report := &Report{}
	require.NoError(t, RepairMoved(tx, zap.NewNop(), settings.Default(), root, missing, []string{searchDir}, false, report))

	require.Len(t, report.Outcomes, 1)
	require.Equal(t, MovedTo, report.Outcomes[0].Kind)

	moved, err := tx.FileByPath("elsewhere", "photo.jpg")
	require.NoError(t, err)
	require.NotNil(t, moved)
	require.Equal(t, fileID, moved.ID)
}

func TestRepairMissingForceRemovesFileTags(t *testing.T) {
	root, tx := openRepairTx(t)

	tag, err := tx.InsertTag("a")
	require.NoError(t, err)
	fileID, err := tx.UpdateFile(".", "gone.txt", "fp", 0, 1, false)
	require.NoError(t, err)
	require.NoError(t, tx.AddFileTag(fileID, tag.ID, model.Absent))

	missing := []model.File{{ID: fileID, Directory: ".", Name: "gone.txt"}}
	report := &Report{}
	require.NoError(t, RepairMissing(tx, zap.NewNop(), root, missing, true, false, report))

	require.Len(t, report.Outcomes, 1)
	require.Equal(t, Removed, report.Outcomes[0].Kind)

	remaining, err := tx.FileTagsByFileID(fileID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestRationalizeFileTagsRemovesExplicitDuplicateOfImplicit(t *testing.T) {
	_, tx := openRepairTx(t)

	a, err := tx.InsertTag("a")
	require.NoError(t, err)
	b, err := tx.InsertTag("b")
	require.NoError(t, err)
	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: a.ID}, model.TagValuePair{TagID: b.ID},
	))

	fileID, err := tx.UpdateFile(".", "x.txt", "fp", 0, 1, false)
	require.NoError(t, err)
	require.NoError(t, tx.AddFileTag(fileID, a.ID, model.Absent))
	require.NoError(t, tx.AddFileTag(fileID, b.ID, model.Absent))

	require.NoError(t, RationalizeFileTags(tx, []model.File{{ID: fileID}}))

	aExists, err := tx.FileTagExists(fileID, a.ID, model.Absent)
	require.NoError(t, err)
	require.True(t, aExists, "the implying explicit tag is kept")

	bExists, err := tx.FileTagExists(fileID, b.ID, model.Absent)
	require.NoError(t, err)
	require.False(t, bExists, "the implied explicit tag is rationalized away")
}

func TestManualRepairRelocatesTrackedFile(t *testing.T) {
	root, tx := openRepairTx(t)

	oldPath := filepath.Join(root.String(), "old.txt")
	writeFile(t, oldPath, "content")
	fileID, err := tx.UpdateFile(".", "old.txt", "fp", 0, 7, false)
	require.NoError(t, err)

	newPath := filepath.Join(root.String(), "new.txt")
	writeFile(t, newPath, "content")

	from, err := pathutil.NewScopedPath(root, oldPath)
	require.NoError(t, err)
	to, err := pathutil.NewScopedPath(root, newPath)
	require.NoError(t, err)

	report, err := ManualRepair(tx, zap.NewNop(), root, from, to, false)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	relocated, err := tx.FileByPath(".", "new.txt")
	require.NoError(t, err)
	require.NotNil(t, relocated)
	require.Equal(t, fileID, relocated.ID)
}
