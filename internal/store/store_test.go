package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lefth/tmsu/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTagLifecycle(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	tag, err := tx.InsertTag("photos")
	require.NoError(t, err)
	require.NotZero(t, tag.ID)

	found, err := tx.TagByName("photos")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, tag.ID, found.ID)

	require.NoError(t, tx.RenameTag(tag.ID, "pictures"))
	found, err = tx.TagByName("pictures")
	require.NoError(t, err)
	require.NotNil(t, found)

	count, err := tx.TagCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	require.NoError(t, tx.DeleteTag(tag.ID))
	count, err = tx.TagCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}

func TestRenameTagUnaffectedRows(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = tx.RenameTag(model.TagID(999), "nope")
	require.Error(t, err)
}

func TestFileTagAddIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	tag, err := tx.InsertTag("a")
	require.NoError(t, err)
	fileID, err := tx.UpdateFile(".", "x.txt", "fp", 0, 10, false)
	require.NoError(t, err)

	require.NoError(t, tx.AddFileTag(fileID, tag.ID, model.Absent))
	require.NoError(t, tx.AddFileTag(fileID, tag.ID, model.Absent))

	count, err := tx.FileTagCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

func TestDeleteUntaggedFiles(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	tag, err := tx.InsertTag("a")
	require.NoError(t, err)
	fileID, err := tx.UpdateFile(".", "x.txt", "fp", 0, 10, false)
	require.NoError(t, err)
	require.NoError(t, tx.AddFileTag(fileID, tag.ID, model.Absent))

	// Still tagged: survives.
	require.NoError(t, tx.DeleteUntaggedFiles([]model.FileID{fileID}))
	count, err := tx.FileCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	require.NoError(t, tx.DeleteFileTag(fileID, tag.ID, model.Absent))
	require.NoError(t, tx.DeleteUntaggedFiles([]model.FileID{fileID}))
	count, err = tx.FileCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}

func TestImplicationsForPairsWildcard(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	raw, err := tx.InsertTag("raw")
	require.NoError(t, err)
	camera, err := tx.InsertTag("camera")
	require.NoError(t, err)

	require.NoError(t, tx.AddImplication(
		model.TagValuePair{TagID: raw.ID, Value: model.Absent},
		model.TagValuePair{TagID: camera.ID, Value: model.Absent},
	))

	value, err := tx.InsertValue("nikon")
	require.NoError(t, err)

	results, err := tx.ImplicationsForPairs([]model.TagValuePair{
		{TagID: raw.ID, Value: model.Some(value.ID)},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, camera.ID, results[0].Implied.TagID)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.UpsertSetting("autoCreateTags", "false"))
	settings, err := tx.Settings()
	require.NoError(t, err)
	require.Equal(t, "false", settings["autoCreateTags"])
}

func TestDetermineRootPath(t *testing.T) {
	require.Equal(t, "/home/user", determineRootPath("/home/user/.tmsu/db"))
	require.Equal(t, "/var/data", determineRootPath("/var/data/mydb.sqlite"))
}
