package events

import "github.com/kilianp07/staffplan/core/model"

// RunEvent is emitted when a run stops: finalized, paused for review, or
// ended by the iteration limit.
type RunEvent struct {
	RunID            string
	Status           model.Status
	Iterations       int
	Violations       int
	Kpi              model.KpiSnapshot
	AwaitingApproval bool
	Reason           string
}
