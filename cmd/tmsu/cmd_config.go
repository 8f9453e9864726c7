package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config [name] [value]",
	Short: "List, get, or set database settings (spec.md §4.4)",
	Long: `With no arguments, lists every known setting and its current value.
With one argument, prints that setting's value. With two, sets it.

This is distinct from the CLI's own preferences file (~/.config/tmsu);
these settings live in the database and govern engine behavior such as
auto-creation of tags and fingerprint algorithm choice.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	return withTx(func(tx *store.Tx, root pathutil.CanonicalPath) error {
		stored, err := tx.Settings()
		if err != nil {
			return err
		}

		switch len(args) {
		case 0:
			s := settings.FromStored(stored)
			for _, name := range settings.Names() {
				value, _ := s.Get(name)
				fmt.Printf("%s = %s\n", name, value)
			}
			return nil
		case 1:
			s := settings.FromStored(stored)
			value, ok := s.Get(args[0])
			if !ok {
				return fmt.Errorf("no such setting %q", args[0])
			}
			fmt.Println(value)
			return nil
		default:
			normalized, err := settings.Set(args[0], args[1])
			if err != nil {
				return err
			}
			return tx.UpsertSetting(args[0], normalized)
		}
	})
}
