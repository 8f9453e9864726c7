package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/store"
)

var listCount bool
var filterValue string
var filterTag string

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags, or the tags used together with a given value",
	RunE:  runTags,
}

var valuesCmd = &cobra.Command{
	Use:   "values",
	Short: "List values, or the values used together with a given tag",
	RunE:  runValues,
}

func init() {
	tagsCmd.Flags().BoolVarP(&listCount, "count", "c", false, "show the number of files carrying each tag")
	tagsCmd.Flags().StringVar(&filterValue, "value", "", "list only tags used together with this value")

	valuesCmd.Flags().BoolVarP(&listCount, "count", "c", false, "show the number of files carrying each value")
	valuesCmd.Flags().StringVar(&filterTag, "tag", "", "list only values used together with this tag")
}

func bold(s string) string {
	if !colorOutput {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func runTags(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		if filterValue != "" {
			value, err := tx.ValueByName(filterValue)
			if err != nil {
				return err
			}
			if value == nil {
				return errNoSuchValue(filterValue)
			}
			fileTags, err := tx.FileTagsByValueID(value.ID)
			if err != nil {
				return err
			}
			names, err := distinctTagNames(tx, fileTags)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(bold(name))
			}
			return nil
		}

		if listCount {
			usage, err := tx.TagUsage()
			if err != nil {
				return err
			}
			for _, u := range usage {
				fmt.Printf("%s (%d)\n", bold(u.Name), u.FileCount)
			}
			return nil
		}

		tags, err := tx.Tags()
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Println(bold(t.Name))
		}
		return nil
	})
}

func runValues(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		if filterTag != "" {
			tag, err := tx.TagByName(filterTag)
			if err != nil {
				return err
			}
			if tag == nil {
				return errNoSuchTag(filterTag)
			}
			fileTags, err := tx.FileTagsByTagID(tag.ID)
			if err != nil {
				return err
			}
			names, err := distinctValueNames(tx, fileTags)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(bold(name))
			}
			return nil
		}

		if listCount {
			usage, err := tx.ValueUsage()
			if err != nil {
				return err
			}
			for _, u := range usage {
				fmt.Printf("%s (%d)\n", bold(u.Name), u.FileCount)
			}
			return nil
		}

		values, err := tx.Values()
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Println(bold(v.Name))
		}
		return nil
	})
}

func distinctTagNames(tx *store.Tx, fileTags []model.FileTag) ([]string, error) {
	seen := map[model.TagID]bool{}
	var names []string
	for _, ft := range fileTags {
		if seen[ft.TagID] {
			continue
		}
		seen[ft.TagID] = true
		tag, err := tx.TagByID(ft.TagID)
		if err != nil {
			return nil, err
		}
		if tag != nil {
			names = append(names, tag.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func distinctValueNames(tx *store.Tx, fileTags []model.FileTag) ([]string, error) {
	seen := map[model.ValueID]bool{}
	var names []string
	for _, ft := range fileTags {
		if !ft.Value.Valid || seen[ft.Value.ID] {
			continue
		}
		seen[ft.Value.ID] = true
		value, err := tx.ValueByID(ft.Value.ID)
		if err != nil {
			return nil, err
		}
		if value != nil {
			names = append(names, value.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func errNoSuchTag(name string) error {
	return errs.NoSuchTag(name)
}

func errNoSuchValue(name string) error {
	return errs.NoSuchValue(name)
}
