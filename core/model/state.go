package model

import "slices"

// Status is the lifecycle position of a planning run.
type Status string

const (
	StatusInit        Status = "INIT"
	StatusIngested    Status = "INGESTED"
	StatusConstrained Status = "CONSTRAINED"
	StatusSolved      Status = "SOLVED"
	StatusValidated   Status = "VALIDATED"
	StatusReview      Status = "REVIEW"
	StatusFinalized   Status = "FINALIZED"
)

// TraceEntry records one executed pipeline step.
type TraceEntry struct {
	Step    string `json:"step"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// PlanState is the record threaded through the pipeline. Steps return a new
// value; slices held by a PlanState are never written after assignment, so
// copies may share them.
type PlanState struct {
	RunID  string `json:"run_id"`
	Status Status `json:"status"`

	Employees   []Employee          `json:"employees"`
	Absences    []Absence           `json:"absences"`
	Constraints ConstraintSet       `json:"constraints"`
	Demand      []DemandRequirement `json:"demand"`

	Solution    Solution      `json:"solution"`
	Reports     []SliceReport `json:"reports,omitempty"`
	Violations  []Violation   `json:"violations"`
	Kpi         KpiSnapshot   `json:"kpi"`
	Relaxations []Relaxation  `json:"relaxations,omitempty"`
	Applied     []Relaxation  `json:"applied,omitempty"`

	NeedsApproval    bool `json:"needs_approval"`
	AwaitingApproval bool `json:"awaiting_approval"`
	Exported         bool `json:"exported"`
	// Iteration counts solve passes.
	Iteration int `json:"iteration"`

	Trace []TraceEntry `json:"trace"`
}

// NewPlanState returns a run in status INIT.
func NewPlanState(runID string) PlanState {
	return PlanState{RunID: runID, Status: StatusInit}
}

// WithTrace returns a copy of s with an entry appended to its trace. The
// receiver's trace is left untouched.
func (s PlanState) WithTrace(step, msg string) PlanState {
	trace := make([]TraceEntry, len(s.Trace), len(s.Trace)+1)
	copy(trace, s.Trace)
	s.Trace = append(trace, TraceEntry{Step: step, Status: s.Status, Message: msg})
	return s
}

// Steps lists the executed step names in order.
func (s PlanState) Steps() []string {
	out := make([]string, len(s.Trace))
	for i, e := range s.Trace {
		out[i] = e.Step
	}
	return out
}

// Paused reports whether the run halted waiting for a decision.
func (s PlanState) Paused() bool {
	return s.Status == StatusReview && s.AwaitingApproval
}

// HasStep reports whether step appears in the trace.
func (s PlanState) HasStep(step string) bool {
	return slices.Contains(s.Steps(), step)
}
