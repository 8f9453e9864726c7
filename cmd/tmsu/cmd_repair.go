package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/repair"
	"github.com/lefth/tmsu/internal/store"
)

var (
	repairSearchPaths []string
	repairRemove      bool
	repairUnmodified  bool
	repairRationalize bool
	repairPretend     bool
	repairManualFrom  string
)

var repairCmd = &cobra.Command{
	Use:   "repair [path]",
	Short: "Reconcile the database against the filesystem",
	Long: `Without --manual, runs the full reconciliation pipeline: recalculate
unmodified files, refresh modified ones, detect moves among --search-path
candidates, dispose of still-missing files, garbage-collect orphans, and
(with --rationalize) drop explicit file-tags that the implication graph
already implies.

With --manual <from> <to>, repoints the tracked file at <from>, and every
tracked file stored beneath <from>, onto <to> without touching the
filesystem, for moves the automatic detection can't see (spec.md §4.9's
manual repair).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringArrayVar(&repairSearchPaths, "search-path", nil, "directory to search for moved files")
	repairCmd.Flags().BoolVarP(&repairRemove, "remove", "r", false, "remove file-tags for files still missing after repair")
	repairCmd.Flags().BoolVarP(&repairUnmodified, "unmodified", "u", false, "recalculate fingerprints even for unmodified files")
	repairCmd.Flags().BoolVar(&repairRationalize, "rationalize", false, "drop explicit file-tags already covered by the implication graph")
	repairCmd.Flags().BoolVarP(&repairPretend, "pretend", "p", false, "report what would change without writing anything")
	repairCmd.Flags().StringVar(&repairManualFrom, "manual", "", "repoint the tracked file at this path, and tracked files beneath it, instead of running the full pipeline (paired with a positional destination)")
}

func runRepair(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		if repairManualFrom != "" {
			if len(args) != 1 {
				return fmt.Errorf("--manual requires exactly one destination path argument")
			}
			from, err := pathutil.NewScopedPath(root, repairManualFrom)
			if err != nil {
				return err
			}
			to, err := pathutil.NewScopedPath(root, args[0])
			if err != nil {
				return err
			}
			report, err := repair.ManualRepair(tx, logger, root, from, to, repairPretend)
			if err != nil {
				return err
			}
			printRepairReport(report)
			return nil
		}

		opts := repair.Options{
			SearchPaths:      repairSearchPaths,
			RemoveMissing:    repairRemove,
			RecalcUnmodified: repairUnmodified,
			Rationalize:      repairRationalize,
			Pretend:          repairPretend,
		}
		if len(args) == 1 {
			scoped, err := pathutil.NewScopedPath(root, args[0])
			if err != nil {
				return err
			}
			opts.BasePath = &scoped
		}

		report, err := repair.FullRepair(tx, logger, root, opts)
		if err != nil {
			return err
		}
		printRepairReport(report)
		return nil
	})
}

func printRepairReport(report *repair.Report) {
	for _, o := range report.Outcomes {
		switch o.Kind {
		case repair.RecalculatedFingerprint:
			fmt.Printf("%s: recalculated fingerprint\n", o.Path)
		case repair.UpdatedFingerprint:
			fmt.Printf("%s: updated fingerprint\n", o.Path)
		case repair.MovedTo:
			fmt.Printf("%s: moved to %s\n", o.Path, o.NewPath)
		case repair.Missing:
			fmt.Printf("%s: missing\n", o.Path)
		case repair.Removed:
			fmt.Printf("%s: removed\n", o.Path)
		}
	}
}
