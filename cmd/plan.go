package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/staffplan/app"
	"github.com/kilianp07/staffplan/config"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/pipeline"
	"github.com/kilianp07/staffplan/infra/input"
)

var planOpts struct {
	dataset     string
	demand      string
	sample      bool
	autoApprove bool
	budget      float64
	exportDir   string
	format      string
	stateOut    string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run the planning pipeline on a dataset",
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVarP(&planOpts.dataset, "dataset", "d", "", "employees, absences and demand file")
	f.StringVar(&planOpts.demand, "demand", "", "demand file overriding the dataset demand")
	f.BoolVar(&planOpts.sample, "sample", false, "use the built-in sample dataset")
	f.BoolVar(&planOpts.autoApprove, "auto-approve", false, "apply proposed relaxations without review")
	f.Float64Var(&planOpts.budget, "budget", 0, "weekly cost budget")
	f.StringVarP(&planOpts.exportDir, "out", "o", "", "directory for the exported plan")
	f.StringVar(&planOpts.format, "format", "", "export format: json or csv")
	f.StringVar(&planOpts.stateOut, "state-out", "", "write the final run state to this file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	adjust := func(cfg *config.Config) []app.Option {
		flags := cmd.Flags()
		if planOpts.dataset != "" {
			cfg.Input.Dataset = planOpts.dataset
		}
		if planOpts.demand != "" {
			cfg.Input.Demand = planOpts.demand
		}
		if flags.Changed("auto-approve") {
			cfg.Planner.AutoApprove = planOpts.autoApprove
		}
		if flags.Changed("budget") {
			b := planOpts.budget
			cfg.Planner.Budget = &b
		}
		if planOpts.exportDir != "" {
			cfg.Export.Dir = planOpts.exportDir
		}
		if planOpts.format != "" {
			cfg.Export.Format = planOpts.format
		}
		if planOpts.sample {
			return []app.Option{app.WithIngester(pipeline.StaticIngester{Data: input.SampleDataset()})}
		}
		return nil
	}
	return withService(adjust, func(ctx context.Context, svc *app.Service) error {
		st, err := svc.Plan(ctx)
		if err != nil {
			return err
		}
		if planOpts.stateOut != "" {
			if err := writeState(planOpts.stateOut, st); err != nil {
				return err
			}
		}
		return printSummary(cmd.OutOrStdout(), st)
	})
}

type summary struct {
	RunID            string             `json:"run_id"`
	Status           model.Status       `json:"status"`
	Iteration        int                `json:"iteration"`
	Assignments      int                `json:"assignments"`
	Violations       []model.Violation  `json:"violations"`
	Kpi              model.KpiSnapshot  `json:"kpi"`
	AwaitingApproval bool               `json:"awaiting_approval"`
	Relaxations      []model.Relaxation `json:"relaxations,omitempty"`
	Steps            []string           `json:"steps"`
}

func printSummary(w io.Writer, st model.PlanState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary{
		RunID:            st.RunID,
		Status:           st.Status,
		Iteration:        st.Iteration,
		Assignments:      len(st.Solution.Assignments),
		Violations:       st.Violations,
		Kpi:              st.Kpi,
		AwaitingApproval: st.AwaitingApproval,
		Relaxations:      st.Relaxations,
		Steps:            st.Steps(),
	}); err != nil {
		return err
	}
	if st.Paused() {
		fmt.Fprintf(os.Stderr, "run %s is awaiting approval: staffplan resume %s --decision approve|reject\n", st.RunID, st.RunID)
	}
	return nil
}

func writeState(path string, st model.PlanState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readState(path string) (model.PlanState, error) {
	var st model.PlanState
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decode state %s: %w", path, err)
	}
	return st, nil
}
