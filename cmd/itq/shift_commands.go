package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"itq/internal/shift"
	"itq/internal/store"
)

func newShiftCommand(ctx *commandContext) *cobra.Command {
	shiftCmd := &cobra.Command{
		Use:   "shift",
		Short: "Manage the service window",
	}
	shiftCmd.AddCommand(newShiftCloseCommand(ctx))
	shiftCmd.AddCommand(newShiftOpenCommand(ctx))
	shiftCmd.AddCommand(newShiftStatusCommand(ctx))
	return shiftCmd
}

func newShiftCloseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the service window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScheduler(func(sched *shift.Scheduler, st *store.Store) error {
				changed, err := sched.ManualToggle(cmd.Context(), true, currentActor())
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintln(cmd.OutOrStdout(), "Service window already closed")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service window closed")
				return nil
			})
		},
	}
}

func newShiftOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Reopen the service window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScheduler(func(sched *shift.Scheduler, st *store.Store) error {
				changed, err := sched.ManualToggle(cmd.Context(), false, currentActor())
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintln(cmd.OutOrStdout(), "Service window already open")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service window reopened")
				return nil
			})
		},
	}
}

func newShiftStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the service window state and recent closures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withScheduler(func(sched *shift.Scheduler, st *store.Store) error {
				closed, err := sched.Closed(cmd.Context())
				if err != nil {
					return err
				}
				if closed {
					fmt.Fprintln(cmd.OutOrStdout(), "Service window: closed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Service window: open")
				}

				closures, err := st.Closures(cmd.Context(), 5)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(closures))
				for _, closure := range closures {
					opened := ""
					openedBy := ""
					if closure.OpenedAt != nil {
						opened = closure.OpenedAt.Format("2006-01-02 15:04")
						openedBy = closure.OpenedBy
					}
					rows = append(rows, []string{
						closure.ClosedAt.Format("2006-01-02 15:04"),
						closure.ClosedBy,
						opened,
						openedBy,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Closed", "By", "Reopened", "By"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
}

func currentActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "operator"
}
