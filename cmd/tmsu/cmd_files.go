package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/compiler"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/query"
	"github.com/lefth/tmsu/internal/store"
)

var (
	filesExplicitOnly bool
	filesIgnoreCase   bool
	filesSort         string
	filesPath         string
	filesLong         bool
)

var filesCmd = &cobra.Command{
	Use:   "files [query]",
	Short: "List files matching a boolean/comparison tag query",
	Long: `Lists files matching query, a boolean expression over tags and
tag=value comparisons (spec.md's query language): "and", "or", "not",
parentheses, and the comparison operators ==, !=, <, <=, >, >=.

An empty query lists every tracked file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFiles,
}

func init() {
	filesCmd.Flags().BoolVarP(&filesExplicitOnly, "explicit", "e", false, "match only explicit tags, ignoring the implication graph")
	filesCmd.Flags().BoolVarP(&filesIgnoreCase, "ignore-case", "i", false, "match tag and value names case-insensitively")
	filesCmd.Flags().StringVar(&filesSort, "sort", "name", "sort order: id, name, time, size")
	filesCmd.Flags().StringVar(&filesPath, "path", "", "restrict results to files under this path")
	filesCmd.Flags().BoolVarP(&filesLong, "long", "l", false, "also print each file's human-readable size")
}

func parseSort(name string) (model.Sort, error) {
	switch strings.ToLower(name) {
	case "id":
		return model.SortID, nil
	case "name", "":
		return model.SortName, nil
	case "time":
		return model.SortTime, nil
	case "size":
		return model.SortSize, nil
	default:
		return 0, fmt.Errorf("unknown sort order %q", name)
	}
}

func runFiles(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		var expr query.Expression
		if len(args) == 1 && args[0] != "" {
			parsed, err := query.Parse(args[0])
			if err != nil {
				return err
			}
			expr = parsed
		}

		sortBy, err := parseSort(filesSort)
		if err != nil {
			return err
		}

		opts := compiler.Options{
			ExplicitOnly: filesExplicitOnly,
			IgnoreCase:   filesIgnoreCase,
			Sort:         &sortBy,
		}
		if filesPath != "" {
			scoped, err := pathutil.NewScopedPath(root, filesPath)
			if err != nil {
				return err
			}
			opts.Path = &scoped
		}

		sqlText, params := compiler.Compile(expr, opts)
		files, err := tx.FilesForQuery(sqlText, params)
		if err != nil {
			return err
		}

		for _, f := range files {
			path := pathutil.FilePath(root, f.Directory, f.Name)
			if filesLong {
				fmt.Printf("%s  %s\n", humanize.Bytes(f.Size), path)
			} else {
				fmt.Println(path)
			}
		}
		return nil
	})
}
