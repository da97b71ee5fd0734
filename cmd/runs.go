package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/staffplan/app"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/infra/runlog"
)

var runsOpts struct {
	runID   string
	status  string
	summary bool
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded planning runs",
	RunE:  listRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsOpts.runID, "run", "", "only show this run")
	f.StringVar(&runsOpts.status, "status", "", "only show runs stopped in this status")
	f.BoolVar(&runsOpts.summary, "summary", false, "show per-run summaries (sqlite backend)")
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, _ []string) error {
	return withService(nil, func(ctx context.Context, svc *app.Service) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()
		if runsOpts.summary {
			sq, ok := svc.Store.(*runlog.SQLiteStore)
			if !ok {
				return fmt.Errorf("summaries need the sqlite run log backend")
			}
			sums, err := sq.Summaries(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "RUN\tSTOPS\tLAST STATUS\tITERATIONS\tCOST\tCOVERAGE")
			for _, s := range sums {
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.2f\t%.3f\n", s.RunID, s.Stops, s.Status, s.Iterations, s.Cost, s.Coverage)
			}
			return nil
		}
		recs, err := svc.Store.Query(ctx, runlog.Query{RunID: runsOpts.runID, Status: model.Status(runsOpts.status)})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TIME\tRUN\tSTATUS\tITERATION\tVIOLATIONS\tCOST\tCOVERAGE\tAWAITING")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.3f\t%t\n",
				r.Timestamp.Format("2006-01-02 15:04:05"), r.RunID, r.Status, r.Iteration, r.Violations, r.Kpi.Cost, r.Kpi.Coverage, r.AwaitingApproval)
		}
		return nil
	})
}
