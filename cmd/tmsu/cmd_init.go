package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a new database, rooted at the given directory (default: current)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	dbPath := abs
	if databasePath != "" {
		dbPath = databasePath
	} else {
		dbPath = filepath.Join(abs, ".tmsu", "db")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return err
		}
	}

	if err := store.Create(dbPath, logger); err != nil {
		return err
	}
	fmt.Println(dbPath)
	return nil
}
