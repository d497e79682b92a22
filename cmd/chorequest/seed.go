package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/store"
)

func newSeedBadgesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-badges",
		Short: "Insert the default badge definitions if none exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := docstore.Open(docstore.Config{Driver: opts.cfg.Store.Driver, Path: opts.cfg.Store.Path}, opts.logger.With("component", "docstore"))
			if err != nil {
				return fmt.Errorf("open document store: %w", err)
			}
			defer docs.Close()

			n, err := store.NewBadgeStore(docs).SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d badges\n", n)
			return nil
		},
	}
}
