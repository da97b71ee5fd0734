package metrics

import "time"

// SliceResult is the solver outcome of one (day, role) slice.
type SliceResult struct {
	RunID      string
	Iteration  int
	Day        string
	Role       string
	Status     string
	Candidates int
	Assigned   int
	Shortfall  int
	Nodes      int
	LowerBound float64
	TimedOut   bool
	Elapsed    time.Duration
	Time       time.Time
}

// MetricsSink records solver results for observability purposes.
type MetricsSink interface {
	RecordSliceResults(results []SliceResult) error
}

// StepTiming records how long a pipeline step took.
type StepTiming struct {
	RunID     string
	Step      string
	Status    string
	Iteration int
	Duration  time.Duration
	Time      time.Time
}

// StepRecorder records pipeline step timings.
type StepRecorder interface {
	RecordStep(ev StepTiming) error
}

// RunOutcome summarises a run when it stops.
type RunOutcome struct {
	RunID            string
	Status           string
	Reason           string
	Iterations       int
	Violations       int
	Cost             float64
	Coverage         float64
	EmployeesUsed    int
	Assignments      int
	Utilization      float64
	Budget           *float64
	AwaitingApproval bool
	Time             time.Time
}

// RunRecorder records run outcomes.
type RunRecorder interface {
	RecordRun(ev RunOutcome) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSliceResults([]SliceResult) error { return nil }
func (NopSink) RecordStep(StepTiming) error            { return nil }
func (NopSink) RecordRun(RunOutcome) error             { return nil }
