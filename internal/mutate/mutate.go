// Package mutate is the mutation planner of spec.md §4.8 (C8): multi-table
// writes executed atomically inside one transaction. Grounded on
// original_source/src/api/{delete,merge,rename,copy}.rs, with auto-create
// and untag-with-orphan-GC filled in from spec.md §4.8 directly (the
// distilled original_source/src/api.rs only retains load_existing_tag/value;
// load_or_create_tag/value are referenced from src/api/imply.rs but their
// bodies were not part of the distillation pack).
package mutate

import (
	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
	"github.com/lefth/tmsu/internal/validate"
)

// LoadExistingTag looks up a tag by name, failing with errs.NoSuchTag if it
// is not present.
func LoadExistingTag(tx *store.Tx, name string) (model.Tag, error) {
	tag, err := tx.TagByName(name)
	if err != nil {
		return model.Tag{}, err
	}
	if tag == nil {
		return model.Tag{}, errs.NoSuchTag(name)
	}
	return *tag, nil
}

// LoadExistingValue looks up a value by name, failing with errs.NoSuchValue
// if it is not present.
func LoadExistingValue(tx *store.Tx, name string) (model.Value, error) {
	value, err := tx.ValueByName(name)
	if err != nil {
		return model.Value{}, err
	}
	if value == nil {
		return model.Value{}, errs.NoSuchValue(name)
	}
	return *value, nil
}

// LoadOrCreateTag looks up a tag by name, creating it when absent and the
// settings permit (spec.md §4.8's "Auto-create on reference"). created
// reports whether a new row was inserted, so a caller can emit a warning the
// way the legacy CLI does.
func LoadOrCreateTag(tx *store.Tx, name string, s *settings.Settings) (tag model.Tag, created bool, err error) {
	existing, err := tx.TagByName(name)
	if err != nil {
		return model.Tag{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	if !s.GetBool(settings.AutoCreateTags) {
		return model.Tag{}, false, errs.NoSuchTag(name)
	}
	if res := validate.Name(name); !res.Valid {
		return model.Tag{}, false, errs.InvalidName("tag", name, res.Reason)
	}
	newTag, err := tx.InsertTag(name)
	if err != nil {
		return model.Tag{}, false, err
	}
	return newTag, true, nil
}

// LoadOrCreateValue is the value-entity equivalent of LoadOrCreateTag.
func LoadOrCreateValue(tx *store.Tx, name string, s *settings.Settings) (value model.Value, created bool, err error) {
	existing, err := tx.ValueByName(name)
	if err != nil {
		return model.Value{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	if !s.GetBool(settings.AutoCreateValues) {
		return model.Value{}, false, errs.NoSuchValue(name)
	}
	if res := validate.Name(name); !res.Valid {
		return model.Value{}, false, errs.InvalidName("value", name, res.Reason)
	}
	newValue, err := tx.InsertValue(name)
	if err != nil {
		return model.Value{}, false, err
	}
	return newValue, true, nil
}

// DeleteTag implements spec.md §4.8's delete-tag skeleton: enumerate its
// file-tag rows, delete them, garbage-collect the files left untagged,
// delete implications referencing the tag, then delete the tag row itself.
func DeleteTag(tx *store.Tx, tag model.Tag) error {
	fileTags, err := tx.FileTagsByTagID(tag.ID)
	if err != nil {
		return err
	}
	if err := tx.DeleteFileTagsByTagID(tag.ID); err != nil {
		return err
	}
	if err := tx.DeleteUntaggedFiles(fileIDsOf(fileTags)); err != nil {
		return err
	}
	if err := tx.DeleteImplicationsByTagID(tag.ID); err != nil {
		return err
	}
	return tx.DeleteTag(tag.ID)
}

// DeleteValue is the value-entity equivalent of DeleteTag.
func DeleteValue(tx *store.Tx, value model.Value) error {
	fileTags, err := tx.FileTagsByValueID(value.ID)
	if err != nil {
		return err
	}
	if err := tx.DeleteFileTagsByValueID(value.ID); err != nil {
		return err
	}
	if err := tx.DeleteUntaggedFiles(fileIDsOf(fileTags)); err != nil {
		return err
	}
	if err := tx.DeleteImplicationsByValueID(value.ID); err != nil {
		return err
	}
	return tx.DeleteValue(value.ID)
}

// RenameTag validates newName, ensures it isn't already taken, and applies
// the rename.
func RenameTag(tx *store.Tx, tagID model.TagID, newName string) error {
	if res := validate.Name(newName); !res.Valid {
		return errs.InvalidName("tag", newName, res.Reason)
	}
	existing, err := tx.TagByName(newName)
	if err != nil {
		return err
	}
	if existing != nil {
		return errs.NameTaken("tag", newName)
	}
	return tx.RenameTag(tagID, newName)
}

// RenameValue is the value-entity equivalent of RenameTag.
func RenameValue(tx *store.Tx, valueID model.ValueID, newName string) error {
	if res := validate.Name(newName); !res.Valid {
		return errs.InvalidName("value", newName, res.Reason)
	}
	existing, err := tx.ValueByName(newName)
	if err != nil {
		return err
	}
	if existing != nil {
		return errs.NameTaken("value", newName)
	}
	return tx.RenameValue(valueID, newName)
}

// CopyTag duplicates every file-tag row of the source tag under a newly
// inserted tag named destName, which must not already exist.
func CopyTag(tx *store.Tx, sourceTagID model.TagID, destName string) error {
	if res := validate.Name(destName); !res.Valid {
		return errs.InvalidName("tag", destName, res.Reason)
	}
	existing, err := tx.TagByName(destName)
	if err != nil {
		return err
	}
	if existing != nil {
		return errs.NameTaken("tag", destName)
	}
	dest, err := tx.InsertTag(destName)
	if err != nil {
		return err
	}
	return tx.CopyFileTags(sourceTagID, dest.ID)
}

// MergeTags merges each source tag into dest: every file-tag row of a
// source is re-added (idempotently) against dest, preserving its value,
// after which the source tag is deleted via the full delete cascade.
// Merging a tag into itself is refused.
func MergeTags(tx *store.Tx, sourceNames []string, destName string) error {
	dest, err := LoadExistingTag(tx, destName)
	if err != nil {
		return err
	}
	for _, sourceName := range sourceNames {
		if sourceName == destName {
			return errs.InvalidName("tag", sourceName, "cannot merge a tag into itself")
		}
		source, err := LoadExistingTag(tx, sourceName)
		if err != nil {
			return err
		}
		fileTags, err := tx.FileTagsByTagID(source.ID)
		if err != nil {
			return err
		}
		for _, ft := range fileTags {
			if err := tx.AddFileTag(ft.FileID, dest.ID, ft.Value); err != nil {
				return err
			}
		}
		if err := DeleteTag(tx, source); err != nil {
			return err
		}
	}
	return nil
}

// MergeValues is the value-entity equivalent of MergeTags, reassigning
// value_id on each file-tag row instead of tag_id.
func MergeValues(tx *store.Tx, sourceNames []string, destName string) error {
	dest, err := LoadExistingValue(tx, destName)
	if err != nil {
		return err
	}
	for _, sourceName := range sourceNames {
		if sourceName == destName {
			return errs.InvalidName("value", sourceName, "cannot merge a value into itself")
		}
		source, err := LoadExistingValue(tx, sourceName)
		if err != nil {
			return err
		}
		fileTags, err := tx.FileTagsByValueID(source.ID)
		if err != nil {
			return err
		}
		for _, ft := range fileTags {
			if err := tx.AddFileTag(ft.FileID, ft.TagID, model.Some(dest.ID)); err != nil {
				return err
			}
		}
		if err := DeleteValue(tx, source); err != nil {
			return err
		}
	}
	return nil
}

// Untag removes a single explicit file-tag row and, if the file has no
// remaining explicit file-tags, deletes the file row too (spec.md §4.8).
func Untag(tx *store.Tx, fileID model.FileID, tagID model.TagID, value model.OptionalValueID) error {
	if err := tx.DeleteFileTag(fileID, tagID, value); err != nil {
		return err
	}
	remaining, err := tx.FileTagsByFileID(fileID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return tx.DeleteUntaggedFiles([]model.FileID{fileID})
	}
	return nil
}

func fileIDsOf(fileTags []model.FileTag) []model.FileID {
	ids := make([]model.FileID, len(fileTags))
	for i, ft := range fileTags {
		ids[i] = ft.FileID
	}
	return ids
}
