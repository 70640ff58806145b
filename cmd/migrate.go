package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostGIS schema, tables, and spatial indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		fs, pool, err := openFloodStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := fs.EnsureSchema(ctx); err != nil {
			return err
		}

		journal, err := openJournal(ctx)
		if err != nil {
			return err
		}
		journal.Close()

		fmt.Println("Migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
