package mutate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
)

func openTx(t *testing.T) *store.Tx {
	t.Helper()
	s, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	tx, err := s.Begin()
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func TestLoadOrCreateTagRespectsAutoCreateSetting(t *testing.T) {
	tx := openTx(t)
	off := settings.FromStored(map[string]string{settings.AutoCreateTags: "false"})

	_, _, err := LoadOrCreateTag(tx, "new", off)
	require.Error(t, err)

	on := settings.Default()
	tag, created, err := LoadOrCreateTag(tx, "new", on)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "new", tag.Name)
}

func TestDeleteTagCascadesFileAndImplications(t *testing.T) {
	tx := openTx(t)
	tag, err := tx.InsertTag("a")
	require.NoError(t, err)
	other, err := tx.InsertTag("b")
	require.NoError(t, err)
	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: tag.ID}, model.TagValuePair{TagID: other.ID},
	))
	fileID, err := tx.UpdateFile(".", "x.txt", "fp", 0, 1, false)
	require.NoError(t, err)
	require.NoError(t, tx.AddFileTag(fileID, tag.ID, model.Absent))

	require.NoError(t, DeleteTag(tx, tag))

	count, err := tx.FileCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)

	implications, err := tx.Implications()
	require.NoError(t, err)
	require.Empty(t, implications)
}

func TestRenameTagRejectsTakenName(t *testing.T) {
	tx := openTx(t)
	a, err := tx.InsertTag("a")
	require.NoError(t, err)
	_, err = tx.InsertTag("b")
	require.NoError(t, err)

	err = RenameTag(tx, a.ID, "b")
	require.Error(t, err)
}

func TestMergeTagsRefusesSelfMerge(t *testing.T) {
	tx := openTx(t)
	_, err := tx.InsertTag("a")
	require.NoError(t, err)

	err = MergeTags(tx, []string{"a"}, "a")
	require.Error(t, err)
}

func TestMergeTagsReassignsFileTagsAndDeletesSource(t *testing.T) {
	tx := openTx(t)
	src, err := tx.InsertTag("src")
	require.NoError(t, err)
	dest, err := tx.InsertTag("dest")
	require.NoError(t, err)
	fileID, err := tx.UpdateFile(".", "x.txt", "fp", 0, 1, false)
	require.NoError(t, err)
	require.NoError(t, tx.AddFileTag(fileID, src.ID, model.Absent))

	require.NoError(t, MergeTags(tx, []string{"src"}, "dest"))

	found, err := tx.TagByName("src")
	require.NoError(t, err)
	require.Nil(t, found)

	exists, err := tx.FileTagExists(fileID, dest.ID, model.Absent)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestUntagDeletesFileWhenLastExplicitTagRemoved(t *testing.T) {
	tx := openTx(t)
	tag, err := tx.InsertTag("a")
	require.NoError(t, err)
	fileID, err := tx.UpdateFile(".", "x.txt", "fp", 0, 1, false)
	require.NoError(t, err)
	require.NoError(t, tx.AddFileTag(fileID, tag.ID, model.Absent))

	require.NoError(t, Untag(tx, fileID, tag.ID, model.Absent))

	count, err := tx.FileCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}
