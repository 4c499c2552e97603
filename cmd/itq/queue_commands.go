package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"itq/internal/config"
	"itq/internal/lifecycle"
	"itq/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the service queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRanksCommand(ctx))
	queueCmd.AddCommand(newQueueSetStatusCommand(ctx))
	return queueCmd
}

func newQueueSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <entry-id> <code>",
		Short: "Override an entry's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				code := store.StatusCode(strings.ToUpper(args[1]))
				if _, err := st.GetStatus(cmd.Context(), code); err != nil {
					return err
				}
				if err := st.SetStatus(cmd.Context(), id, code); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Entry %d set to %s\n", id, code)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlags []string
		searchFlag  string
		monthFlag   bool
		limitFlag   int
		offsetFlag  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				query := store.ItemQuery{
					Search: searchFlag,
					Limit:  limitFlag,
					Offset: offsetFlag,
				}
				for _, code := range statusFlags {
					query.Statuses = append(query.Statuses, store.StatusCode(code))
				}
				if monthFlag {
					now := time.Now().UTC()
					query.CreatedInMonth = &now
				}

				items, err := st.ListItems(cmd.Context(), query)
				if err != nil {
					return err
				}
				total, err := st.CountItems(cmd.Context(), query)
				if err != nil {
					return err
				}

				color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					urgent := ""
					if item.Urgent {
						urgent = "URGENT"
						if color {
							urgent = text.FgRed.Sprint(urgent)
						}
					}
					rows = append(rows, []string{
						item.QueueNumber,
						string(item.StatusCode),
						urgent,
						item.UserName,
						item.UserDepartment,
						truncate(item.Issue, 48),
						item.CreatedAt.Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Queue", "Status", "", "Requester", "Dept", "Issue", "Created"},
					rows,
					nil,
				))
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entr(ies)\n", len(items), total)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status code (repeatable)")
	cmd.Flags().StringVar(&searchFlag, "search", "", "Match queue number, requester, or issue text")
	cmd.Flags().BoolVar(&monthFlag, "month", false, "Only entries created this month")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum entries to show")
	cmd.Flags().IntVar(&offsetFlag, "offset", 0, "Entries to skip")

	return cmd
}

func newQueueRanksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ranks",
		Short: "Show waiting entries in call order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *lifecycle.Engine, st *store.Store) error {
				ranked, err := engine.WaitingRanks(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(ranked))
				for _, entry := range ranked {
					urgent := ""
					if entry.Item.Urgent {
						urgent = "URGENT"
					}
					rows = append(rows, []string{
						strconv.Itoa(entry.Rank),
						entry.Item.QueueNumber,
						urgent,
						entry.Item.UserName,
						truncate(entry.Item.Issue, 48),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Rank", "Queue", "", "Requester", "Issue"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
