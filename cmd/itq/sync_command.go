package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"itq/internal/config"
	"itq/internal/store"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation against the BMS system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				rec := ctx.newReconciler(cfg, st)
				upserted, err := rec.Synchronize(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synchronized %d job(s)\n", upserted)
				return nil
			})
		},
	}
}
