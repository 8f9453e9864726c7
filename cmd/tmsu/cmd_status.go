package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/status"
	"github.com/lefth/tmsu/internal/store"
)

var (
	statusRecursive      bool
	statusFollowSymlinks bool
	statusUntaggedOnly   bool
)

var statusCmd = &cobra.Command{
	Use:   "status [path...]",
	Short: "Report each path's status: tagged, modified, missing, or untagged",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusRecursive, "recursive", "R", true, "recurse into tracked directories")
	statusCmd.Flags().BoolVarP(&statusFollowSymlinks, "follow-symlinks", "L", false, "follow symlinks given explicitly on the command line")
	statusCmd.Flags().BoolVar(&statusUntaggedOnly, "untagged", false, "list only untagged filesystem entries")
}

func statusLabel(s status.PathStatus) string {
	switch s {
	case status.Missing:
		return "!"
	case status.Modified:
		return "M"
	case status.Tagged:
		return "T"
	default:
		return "?"
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		if statusUntaggedOnly {
			paths := args
			if len(paths) == 0 {
				paths = []string{root.String()}
			}
			return status.ListUntagged(tx, logger, root, paths, statusRecursive, statusFollowSymlinks, func(path string) {
				fmt.Println(path)
			})
		}

		var report *status.Report
		var err error
		if len(args) == 0 {
			report, err = status.DatabaseStatus(tx, logger, root, statusRecursive)
		} else {
			report, err = status.FilesStatus(tx, logger, root, args, statusRecursive, statusFollowSymlinks)
		}
		if err != nil {
			return err
		}

		for _, e := range report.Entries {
			fmt.Printf("%s %s\n", statusLabel(e.Status), e.Path)
		}
		return nil
	})
}
