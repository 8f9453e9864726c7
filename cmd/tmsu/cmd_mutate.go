package main

import (
	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/mutate"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/store"
)

var entityIsValue bool

var renameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a tag (or, with --value, a value)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var copyCmd = &cobra.Command{
	Use:   "copy <tag> <new-tag>",
	Short: "Copy a tag's file-tags under a new tag name",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopy,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <source>... <dest>",
	Short: "Merge one or more source tags (or, with --value, values) into dest",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMerge,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>...",
	Short: "Delete one or more tags (or, with --value, values)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	for _, c := range []*cobra.Command{renameCmd, mergeCmd, deleteCmd} {
		c.Flags().BoolVar(&entityIsValue, "value", false, "operate on values instead of tags")
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		if entityIsValue {
			value, err := mutate.LoadExistingValue(tx, args[0])
			if err != nil {
				return err
			}
			return mutate.RenameValue(tx, value.ID, args[1])
		}
		tag, err := mutate.LoadExistingTag(tx, args[0])
		if err != nil {
			return err
		}
		return mutate.RenameTag(tx, tag.ID, args[1])
	})
}

func runCopy(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		tag, err := mutate.LoadExistingTag(tx, args[0])
		if err != nil {
			return err
		}
		return mutate.CopyTag(tx, tag.ID, args[1])
	})
}

func runMerge(cmd *cobra.Command, args []string) error {
	sources, dest := args[:len(args)-1], args[len(args)-1]
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		if entityIsValue {
			return mutate.MergeValues(tx, sources, dest)
		}
		return mutate.MergeTags(tx, sources, dest)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		for _, name := range args {
			if entityIsValue {
				value, err := mutate.LoadExistingValue(tx, name)
				if err != nil {
					return err
				}
				if err := mutate.DeleteValue(tx, value); err != nil {
					return err
				}
				continue
			}
			tag, err := mutate.LoadExistingTag(tx, name)
			if err != nil {
				return err
			}
			if err := mutate.DeleteTag(tx, tag); err != nil {
				return err
			}
		}
		return nil
	})
}
