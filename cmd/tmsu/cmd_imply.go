package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/imply"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/mutate"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
)

var implyCmd = &cobra.Command{
	Use:   "imply <tag>[=<value>] <tag>[=<value>]",
	Short: "Add an implication: the first tag[=value] implies the second",
	Args:  cobra.ExactArgs(2),
	RunE:  runImply,
}

var unimplyCmd = &cobra.Command{
	Use:   "unimply <tag>[=<value>] <tag>[=<value>]",
	Short: "Remove an implication",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnimply,
}

func runImply(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		stored, err := tx.Settings()
		if err != nil {
			return err
		}
		s := settings.FromStored(stored)

		implying, err := resolveTagValuePair(tx, s, args[0])
		if err != nil {
			return err
		}
		implied, err := resolveTagValuePair(tx, s, args[1])
		if err != nil {
			return err
		}

		if err := imply.CheckCycle(tx, implying, implied); err != nil {
			return err
		}
		return tx.AddImplication(implying, implied)
	})
}

func runUnimply(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		implying, err := resolveExistingTagValuePair(tx, args[0])
		if err != nil {
			return err
		}
		implied, err := resolveExistingTagValuePair(tx, args[1])
		if err != nil {
			return err
		}
		return tx.DeleteImplication(implying, implied)
	})
}

func splitTagValue(spec string) (tag, value string) {
	if idx := strings.IndexByte(spec, '='); idx >= 0 {
		return spec[:idx], spec[idx+1:]
	}
	return spec, ""
}

func resolveTagValuePair(tx *store.Tx, s *settings.Settings, spec string) (model.TagValuePair, error) {
	tagName, valueName := splitTagValue(spec)

	tag, _, err := mutate.LoadOrCreateTag(tx, tagName, s)
	if err != nil {
		return model.TagValuePair{}, err
	}

	if valueName == "" {
		return model.TagValuePair{TagID: tag.ID}, nil
	}
	value, _, err := mutate.LoadOrCreateValue(tx, valueName, s)
	if err != nil {
		return model.TagValuePair{}, err
	}
	return model.TagValuePair{TagID: tag.ID, Value: model.Some(value.ID)}, nil
}

func resolveExistingTagValuePair(tx *store.Tx, spec string) (model.TagValuePair, error) {
	tagName, valueName := splitTagValue(spec)

	tag, err := mutate.LoadExistingTag(tx, tagName)
	if err != nil {
		return model.TagValuePair{}, err
	}
	if valueName == "" {
		return model.TagValuePair{TagID: tag.ID}, nil
	}
	value, err := mutate.LoadExistingValue(tx, valueName)
	if err != nil {
		return model.TagValuePair{}, err
	}
	return model.TagValuePair{TagID: tag.ID, Value: model.Some(value.ID)}, nil
}
