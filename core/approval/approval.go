// Package approval implements the gate between triage and re-solving: it
// applies proposed relaxations automatically or pauses the run for a human.
package approval

import (
	"errors"
	"fmt"

	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/rules"
)

// Outcome tells the orchestrator where to go after the gate.
type Outcome int

const (
	// Bypass means no approval was needed.
	Bypass Outcome = iota
	// Retry means relaxations were applied and the run re-solves.
	Retry
	// Halt means the run waits for a decision.
	Halt
)

func (o Outcome) String() string {
	switch o {
	case Bypass:
		return "bypass"
	case Retry:
		return "retry"
	case Halt:
		return "halt"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrNotAwaiting is returned when a decision is given for a run that is not
// waiting for one.
var ErrNotAwaiting = errors.New("run is not awaiting approval")

// Gate applies or holds relaxations.
type Gate struct {
	AutoApprove bool
}

// Pass runs the gate on s and returns the new state with the outcome.
func (g Gate) Pass(s model.PlanState) (model.PlanState, Outcome, string) {
	if !s.NeedsApproval {
		return s, Bypass, "approval not needed"
	}
	if g.AutoApprove {
		next, msg := apply(s)
		return next, Retry, "auto-approved: " + msg
	}
	s.AwaitingApproval = true
	s.Status = model.StatusReview
	return s, Halt, fmt.Sprintf("awaiting approval of %d relaxations", len(s.Relaxations))
}

// Approve applies the pending relaxations of a paused run.
func Approve(s model.PlanState) (model.PlanState, string, error) {
	if !s.Paused() {
		return s, "", ErrNotAwaiting
	}
	next, msg := apply(s)
	return next, "approved: " + msg, nil
}

// Reject closes a paused run on its current plan.
func Reject(s model.PlanState) (model.PlanState, error) {
	if !s.Paused() {
		return s, ErrNotAwaiting
	}
	s.NeedsApproval = false
	s.AwaitingApproval = false
	s.Relaxations = nil
	s.Status = model.StatusValidated
	return s, nil
}

func apply(s model.PlanState) (model.PlanState, string) {
	cs, applied := rules.Apply(s.Constraints, s.Relaxations)
	s.Constraints = cs
	if len(applied) > 0 {
		s.Applied = append(append([]model.Relaxation(nil), s.Applied...), applied...)
	}
	s.NeedsApproval = false
	s.AwaitingApproval = false
	s.Status = model.StatusConstrained
	return s, fmt.Sprintf("%d of %d relaxations changed constraints", len(applied), len(s.Relaxations))
}
