package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-planner/logger"
	"github.com/warp/fiscal-planner/planner"
	"github.com/warp/fiscal-planner/remote"
)

func newTotalsCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "totals <plan-id>",
		Short: "Open a plan through the service and print its totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid plan id %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			log := logger.WithComponent("cli")
			client := remote.New(a.cfg.Client.BaseURL, a.cfg.Client.Timeout(), logger.Get())

			plan, err := client.FetchPlan(ctx, planner.PlanID(id))
			if err != nil {
				return err
			}

			session := planner.NewSession(client, planner.LogNotifier{Logger: log}, logger.Get())
			if _, err := session.OpenTab(ctx, plan.PlanRef); err != nil {
				return err
			}
			results, err := session.LoadRows(ctx, plan.ID, plan.EntityIDs)
			if err != nil {
				return err
			}

			totals, err := session.Totals()
			if err != nil {
				return err
			}
			return writeTotals(cmd.OutOrStdout(), plan.Name, totals, results, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print totals as JSON")
	return cmd
}

// writeTotals prints the totals as JSON or as a table, then fails if any row
// could not be loaded, since the totals leave those rows out.
func writeTotals(w io.Writer, name string, totals planner.Totals, results []planner.RowResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(totals); err != nil {
			return err
		}
	} else if err := printTotals(w, name, totals); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rows could not be loaded", failed, len(results))
	}
	return nil
}

// printTotals renders the totals grid: one line per row, then the hours,
// cost and FTE footers, then the grand totals against the targets.
func printTotals(w io.Writer, name string, t planner.Totals) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "Plan %d: %s\n\n", t.PlanID, name)

	header := []string{"Name", "Rate"}
	for _, p := range t.Periods {
		header = append(header, p.Label)
	}
	header = append(header, "Hours", "Cost")
	writeCells(tw, header)

	for _, r := range t.Rows {
		cells := []string{r.Name, r.HourlyRate.String()}
		for _, h := range r.Periods {
			cells = append(cells, h.String())
		}
		writeCells(tw, append(cells, r.Hours.String(), r.Cost.String()))
	}

	footer := func(label string, value func(planner.PeriodTotal) planner.Decimal, hours, cost string) {
		cells := []string{label, ""}
		for _, p := range t.Periods {
			cells = append(cells, value(p).String())
		}
		writeCells(tw, append(cells, hours, cost))
	}
	footer("Total hours", func(p planner.PeriodTotal) planner.Decimal { return p.Hours }, t.Hours.String(), "")
	footer("Total cost", func(p planner.PeriodTotal) planner.Decimal { return p.Cost }, "", t.Cost.String())
	footer("FTE", func(p planner.PeriodTotal) planner.Decimal { return p.FTE }, "", "")

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTarget hours %s, remaining %s\n", t.TargetHours, t.RemainingHours)
	fmt.Fprintf(w, "Target cost  %s, remaining %s\n", t.TargetCost, t.RemainingCost)
	return nil
}

func writeCells(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
}
