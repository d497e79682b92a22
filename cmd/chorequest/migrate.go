package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorequest/internal/database"
	"github.com/dukerupert/chorequest/internal/docstore"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations and print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Store.Driver != docstore.DriverSQLite {
				return fmt.Errorf("migrate requires the sqlite driver, have %q", opts.cfg.Store.Driver)
			}
			db, err := database.Open(opts.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := database.Version(db)
			if err != nil {
				return err
			}
			opts.logger.Info("migrations applied", "path", opts.cfg.Store.Path, "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
