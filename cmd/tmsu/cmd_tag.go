package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/fingerprint"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/mutate"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
)

var tagCmd = &cobra.Command{
	Use:   "tag <file> <tag>[=<value>]...",
	Short: "Tag a file with one or more tag[=value] pairs",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTag,
}

var untagCmd = &cobra.Command{
	Use:   "untag <file> <tag>[=<value>]...",
	Short: "Remove one or more tag[=value] pairs from a file",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runUntag,
}

type tagValueSpec struct {
	tagName   string
	valueName string // "" when no value was given
}

func parseTagValueSpecs(args []string) []tagValueSpec {
	specs := make([]tagValueSpec, 0, len(args))
	for _, arg := range args {
		if idx := strings.IndexByte(arg, '='); idx >= 0 {
			specs = append(specs, tagValueSpec{tagName: arg[:idx], valueName: arg[idx+1:]})
		} else {
			specs = append(specs, tagValueSpec{tagName: arg})
		}
	}
	return specs
}

func runTag(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		stored, err := tx.Settings()
		if err != nil {
			return err
		}
		s := settings.FromStored(stored)

		fileID, err := loadOrCreateFile(tx, root, s, args[0])
		if err != nil {
			return err
		}

		for _, spec := range parseTagValueSpecs(args[1:]) {
			tag, created, err := mutate.LoadOrCreateTag(tx, spec.tagName, s)
			if err != nil {
				return err
			}
			if created {
				logger.Warn("created tag", zap.String("tag", spec.tagName))
			}

			value := model.OptionalValueID{}
			if spec.valueName != "" {
				v, created, err := mutate.LoadOrCreateValue(tx, spec.valueName, s)
				if err != nil {
					return err
				}
				if created {
					logger.Warn("created value", zap.String("value", spec.valueName))
				}
				value = model.Some(v.ID)
			}

			if err := tx.AddFileTag(fileID, tag.ID, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func runUntag(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		scoped, err := pathutil.NewScopedPath(root, args[0])
		if err != nil {
			return err
		}
		dir, name := scoped.DirAndName()
		file, err := tx.FileByPath(dir, name)
		if err != nil {
			return err
		}
		if file == nil {
			return errNoSuchFile(args[0])
		}

		for _, spec := range parseTagValueSpecs(args[1:]) {
			tag, err := mutate.LoadExistingTag(tx, spec.tagName)
			if err != nil {
				return err
			}

			value := model.OptionalValueID{}
			if spec.valueName != "" {
				v, err := mutate.LoadExistingValue(tx, spec.valueName)
				if err != nil {
					return err
				}
				value = model.Some(v.ID)
			}

			if err := mutate.Untag(tx, file.ID, tag.ID, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadOrCreateFile resolves path to a scoped path under root, stats and
// fingerprints it, and upserts its file row.
func loadOrCreateFile(tx *store.Tx, root pathutil.CanonicalPath, s *settings.Settings, path string) (model.FileID, error) {
	scoped, err := pathutil.NewScopedPath(root, path)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(scoped.AsAbsolute().String())
	if err != nil {
		return 0, errNoSuchFile(path)
	}

	fp, err := fingerprint.Create(
		scoped.AsAbsolute().String(),
		settingOrDefault(s, settings.FileFingerprintAlgorithm),
		settingOrDefault(s, settings.DirectoryFingerprintAlgorithm),
		settingOrDefault(s, settings.SymlinkFingerprintAlgorithm),
	)
	if err != nil {
		return 0, err
	}

	dir, name := scoped.DirAndName()
	return tx.UpdateFile(dir, name, fp, info.ModTime().UnixNano(), uint64(info.Size()), info.IsDir())
}
