package model

import "time"

// Assignment places one employee on one window of a (day, role) slice.
type Assignment struct {
	EmployeeID  string    `json:"employee_id"`
	Role        string    `json:"role"`
	Day         string    `json:"day"`
	Time        TimeRange `json:"time"`
	Hours       float64   `json:"hours"`
	CostPerHour float64   `json:"cost_per_hour"`
	// Fallback is set when the employee covers the role through a
	// lower-priority synonym.
	Fallback bool `json:"fallback,omitempty"`
}

// Cost is the wage cost of the assignment.
func (a Assignment) Cost() float64 { return a.Hours * a.CostPerHour }

// Solution is the ordered list of assignments of one run.
type Solution struct {
	Assignments []Assignment `json:"assignments"`
}

// ViolationType names an audit finding.
type ViolationType string

const ViolationUnderCoverage ViolationType = "under_coverage"

// Severity grades a violation.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFor grades a shortfall: medium when short by one, high otherwise.
func SeverityFor(required, actual int) Severity {
	if required-actual == 1 {
		return SeverityMedium
	}
	return SeverityHigh
}

// Violation reports a demand block staffed below its requirement.
type Violation struct {
	Type     ViolationType `json:"type"`
	Day      string        `json:"day"`
	Time     TimeRange     `json:"time"`
	Role     string        `json:"role"`
	Required int           `json:"required"`
	Actual   int           `json:"actual"`
	Severity Severity      `json:"severity"`
}

// NewUnderCoverage builds an under_coverage violation with its severity.
func NewUnderCoverage(day string, tr TimeRange, role string, required, actual int) Violation {
	return Violation{
		Type:     ViolationUnderCoverage,
		Day:      day,
		Time:     tr,
		Role:     role,
		Required: required,
		Actual:   actual,
		Severity: SeverityFor(required, actual),
	}
}

// Shortfall is the number of missing people.
func (v Violation) Shortfall() int { return v.Required - v.Actual }

// KpiSnapshot summarises a solution.
type KpiSnapshot struct {
	Cost             float64 `json:"cost"`
	Coverage         float64 `json:"coverage"`
	EmployeesUsed    int     `json:"employees_used"`
	TotalAssignments int     `json:"total_assignments"`
	// Budget is supplied by the caller and never computed.
	Budget *float64 `json:"budget,omitempty"`

	TotalHours          float64 `json:"total_hours"`
	RequiredHours       float64 `json:"required_hours"`
	Utilization         float64 `json:"utilization"`
	HoursStdDev         float64 `json:"hours_stddev"`
	FallbackAssignments int     `json:"fallback_assignments"`
}

// OverBudget reports whether a budget is set and exceeded.
func (k KpiSnapshot) OverBudget() bool {
	return k.Budget != nil && k.Cost > *k.Budget
}

// RelaxationType names a constraint loosening.
type RelaxationType string

const (
	RelaxAllowShortCoverage      RelaxationType = "allow_short_coverage"
	RelaxIncreaseMaxHoursPerDay  RelaxationType = "increase_max_hours_per_day"
	RelaxIncreaseMaxHoursPerWeek RelaxationType = "increase_max_hours_per_week"
	RelaxReduceMinRestHours      RelaxationType = "reduce_min_rest_hours"
)

// Relaxation parameter names.
const (
	ParamLimit = "limit"
	ParamTo    = "to"
)

// Relaxation proposes loosening one hard constraint.
type Relaxation struct {
	Type   RelaxationType     `json:"type"`
	Params map[string]float64 `json:"params,omitempty"`
	Reason string             `json:"reason"`
}

// Param returns the named parameter.
func (r Relaxation) Param(name string) (float64, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// SliceStatus is the outcome of one (day, role) search.
type SliceStatus string

const (
	SliceOptimal      SliceStatus = "optimal"
	SliceFeasible     SliceStatus = "feasible"
	SliceShort        SliceStatus = "short"
	SliceNoCandidates SliceStatus = "no_candidates"
	SliceEmpty        SliceStatus = "empty"
)

// SliceReport describes how one slice was solved.
type SliceReport struct {
	Key         SliceKey      `json:"key"`
	Status      SliceStatus   `json:"status"`
	Candidates  int           `json:"candidates"`
	Windows     int           `json:"windows"`
	Assigned    int           `json:"assigned"`
	Shortfall   int           `json:"shortfall"`
	Nodes       int           `json:"nodes"`
	LowerBound  float64       `json:"lower_bound"`
	TimedOut    bool          `json:"timed_out"`
	Elapsed     time.Duration `json:"elapsed"`
	FallbackUse int           `json:"fallback_used"`
}
