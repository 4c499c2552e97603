package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"itq/internal/config"
	"itq/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts and the service window state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()

				counts, err := st.CountsByStatus(cmd.Context())
				if err != nil {
					return err
				}
				// The DONE row reports the current month only; lifetime
				// totals grow without bound and say nothing about the shift.
				month := time.Now().UTC()
				doneThisMonth, err := st.CountItems(cmd.Context(), store.ItemQuery{
					Statuses:       []store.StatusCode{store.StatusDone},
					CreatedInMonth: &month,
				})
				if err != nil {
					return err
				}
				counts[store.StatusDone] = doneThisMonth
				statuses, err := st.Statuses(cmd.Context())
				if err != nil {
					return err
				}
				sort.Slice(statuses, func(i, j int) bool { return statuses[i].Code < statuses[j].Code })

				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					rows = append(rows, []string{
						string(status.Code),
						status.Name,
						strconv.Itoa(counts[status.Code]),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Name", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))

				closure, err := st.CurrentClosure(cmd.Context())
				if err != nil {
					return err
				}
				if closure == nil {
					fmt.Fprintln(out, "Service window: open")
				} else {
					fmt.Fprintf(out, "Service window: closed by %s at %s\n",
						closure.ClosedBy, closure.ClosedAt.Format("2006-01-02 15:04"))
				}

				for _, lane := range []struct {
					adhoc bool
					label string
				}{{false, "Active"}, {true, "Active (ad-hoc)"}} {
					item, err := st.ActiveItem(cmd.Context(), lane.adhoc)
					if err != nil {
						return err
					}
					if item != nil {
						fmt.Fprintf(out, "%s: %s %s (%s)\n", lane.label, item.QueueNumber, item.UserName, item.Issue)
					}
				}
				return nil
			})
		},
	}
}
