// Command tmsu is the CLI surface over the tmsu core packages.
//
// This file is the entry point and command registration hub; individual
// subcommands live in their own cmd_*.go files, mirroring the split the
// teacher's cmd/nerd package uses to keep each command family readable on
// its own:
//
//   - main.go         - rootCmd, global flags, database open/close helpers
//   - cmd_init.go     - init
//   - cmd_tag.go      - tag, untag
//   - cmd_listing.go  - tags, values
//   - cmd_imply.go    - imply, unimply
//   - cmd_mutate.go   - rename, copy, merge, delete
//   - cmd_files.go    - files (the query entry point)
//   - cmd_repair.go   - repair
//   - cmd_status.go   - status
//   - cmd_config.go   - config
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/config"
	"github.com/lefth/tmsu/internal/logging"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/store"
)

var (
	verbose      bool
	databasePath string
	colorOutput  bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tmsu",
	Short: "Tag files and query them by tag, without touching the files themselves",
	Long: `tmsu tracks tags against files in a SQLite database kept alongside them,
independent of any filesystem attribute, so tagging survives copies, moves
detected by content, and filesystems that don't support extended attributes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVarP(&databasePath, "database", "D", "", "path to the database file (default: located per the usual search order)")

	prefs, _ := config.LoadPreferences(preferencesPathOrEmpty())
	colorOutput = prefs == nil || prefs.Color

	rootCmd.AddCommand(
		initCmd,
		tagCmd,
		untagCmd,
		tagsCmd,
		valuesCmd,
		implyCmd,
		unimplyCmd,
		renameCmd,
		copyCmd,
		mergeCmd,
		deleteCmd,
		filesCmd,
		repairCmd,
		statusCmd,
		configCmd,
	)
}

func preferencesPathOrEmpty() string {
	path, err := config.PreferencesPath()
	if err != nil {
		return ""
	}
	return path
}

// openStore locates and opens the database this invocation should operate
// against, and resolves its canonical storage root.
func openStore() (*store.Store, pathutil.CanonicalPath, error) {
	dbPath, err := config.Locate(databasePath)
	if err != nil {
		return nil, pathutil.CanonicalPath{}, err
	}

	s, err := store.Open(dbPath, logger)
	if err != nil {
		return nil, pathutil.CanonicalPath{}, err
	}

	root, err := pathutil.NewCanonicalPath(s.RootPath())
	if err != nil {
		s.Close()
		return nil, pathutil.CanonicalPath{}, err
	}
	return s, root, nil
}

// withTx opens the database, begins a transaction, runs fn, and commits on
// success or rolls back (and closes) on error — the shape every mutating
// subcommand shares.
func withTx(fn func(tx *store.Tx, root pathutil.CanonicalPath) error) error {
	s, root, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	tx, err := s.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx, root); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "tmsu:", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
