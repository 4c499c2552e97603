package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"itq/internal/config"
	"itq/internal/lifecycle"
	"itq/internal/store"
)

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Complete the active entry and call the next one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *lifecycle.Engine, st *store.Store) error {
				item, err := engine.SelectNext(cmd.Context())
				if err != nil {
					return err
				}
				if item == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Now serving %s: %s (%s)\n", item.QueueNumber, item.UserName, item.Issue)
				return nil
			})
		},
	}
}

func newFinishCommand(ctx *commandContext) *cobra.Command {
	var adhocFlag bool

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Complete the active entry without calling the next one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *lifecycle.Engine, st *store.Store) error {
				completed, err := engine.Finish(cmd.Context(), adhocFlag)
				if err != nil {
					return err
				}
				if completed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing active")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d entr(ies)\n", completed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&adhocFlag, "adhoc", false, "Operate on the ad-hoc lane")
	return cmd
}

func newAdhocCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "adhoc <entry-id>",
		Short: "Preempt the queue with an entry in the ad-hoc lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return ctx.withEngine(func(engine *lifecycle.Engine, st *store.Store) error {
				item, err := engine.InsertAdhoc(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ad-hoc serving %s: %s\n", item.QueueNumber, item.UserName)
				return nil
			})
		},
	}
}

func newFinishAdhocCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "finish-adhoc",
		Short: "Complete the ad-hoc lane's active entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *lifecycle.Engine, st *store.Store) error {
				completed, err := engine.FinishAdhoc(cmd.Context())
				if err != nil {
					return err
				}
				if completed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing active in the ad-hoc lane")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Ad-hoc entry completed")
				return nil
			})
		},
	}
}

func newUrgentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "urgent <entry-id> <on|off>",
		Short: "Toggle an entry's urgency flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			var urgent bool
			switch strings.ToLower(args[1]) {
			case "on":
				urgent = true
			case "off":
				urgent = false
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				return st.SetUrgent(cmd.Context(), id, urgent)
			})
		},
	}
}

func newCommentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <entry-id> <text>",
		Short: "Replace an entry's comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			comment := strings.Join(args[1:], " ")
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				return st.SetComment(cmd.Context(), id, comment)
			})
		},
	}
}

func parseEntryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", raw)
	}
	return id, nil
}
