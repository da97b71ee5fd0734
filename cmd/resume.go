package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/staffplan/app"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/pipeline"
)

var resumeOpts struct {
	decision string
	state    string
	stateOut string
}

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Approve or reject a run paused for review",
	Long:  "Resume loads the paused run from the run log, or from --state when given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResume,
}

func init() {
	f := resumeCmd.Flags()
	f.StringVar(&resumeOpts.decision, "decision", "approve", "approve or reject")
	f.StringVar(&resumeOpts.state, "state", "", "state file written by plan --state-out")
	f.StringVar(&resumeOpts.stateOut, "state-out", "", "write the resulting run state to this file")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	d, err := pipeline.ParseDecision(resumeOpts.decision)
	if err != nil {
		return err
	}
	if len(args) == 0 && resumeOpts.state == "" {
		return fmt.Errorf("a run id or --state is required")
	}
	return withService(nil, func(ctx context.Context, svc *app.Service) error {
		var st model.PlanState
		if resumeOpts.state != "" {
			paused, err := readState(resumeOpts.state)
			if err != nil {
				return err
			}
			st, err = svc.ResumeState(ctx, paused, d)
			if err != nil {
				return err
			}
		} else if st, err = svc.Resume(ctx, args[0], d); err != nil {
			return err
		}
		if resumeOpts.stateOut != "" {
			if err := writeState(resumeOpts.stateOut, st); err != nil {
				return err
			}
		}
		return printSummary(cmd.OutOrStdout(), st)
	})
}
