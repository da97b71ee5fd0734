// Package triage decides whether a scored plan needs a decision and which
// constraint relaxations to propose.
package triage

import "github.com/kilianp07/staffplan/core/model"

// Default relaxation magnitudes.
const (
	DefaultShortCoverageLimit = 1.0
	DefaultDailyCapTarget     = 8.5
)

// Config sets the fixed magnitudes of proposed relaxations.
type Config struct {
	ShortCoverageLimit float64 `json:"short_coverage_limit" yaml:"short_coverage_limit"`
	DailyCapTarget     float64 `json:"daily_cap_target" yaml:"daily_cap_target"`
}

// SetDefaults fills zero magnitudes.
func (c *Config) SetDefaults() {
	if c.ShortCoverageLimit == 0 {
		c.ShortCoverageLimit = DefaultShortCoverageLimit
	}
	if c.DailyCapTarget == 0 {
		c.DailyCapTarget = DefaultDailyCapTarget
	}
}

// Decision is the outcome of triage.
type Decision struct {
	NeedsApproval bool
	Relaxations   []model.Relaxation
}

// Triage proposes relaxations for unsatisfactory plans.
type Triage struct {
	cfg Config
}

// New creates a Triage with cfg completed by defaults.
func New(cfg Config) *Triage {
	cfg.SetDefaults()
	return &Triage{cfg: cfg}
}

// Needed reports whether a plan must go through triage: it has violations
// or exceeds a supplied budget.
func Needed(violations []model.Violation, kpi model.KpiSnapshot) bool {
	return len(violations) > 0 || kpi.OverBudget()
}

// Evaluate inspects violations and KPIs.
func (t *Triage) Evaluate(violations []model.Violation, kpi model.KpiSnapshot) Decision {
	if !Needed(violations, kpi) {
		return Decision{}
	}
	var out []model.Relaxation
	if len(violations) > 0 {
		out = append(out, model.Relaxation{
			Type:   model.RelaxAllowShortCoverage,
			Params: map[string]float64{model.ParamLimit: t.cfg.ShortCoverageLimit},
			Reason: "Minor coverage gap",
		})
	}
	if kpi.OverBudget() {
		out = append(out, model.Relaxation{
			Type:   model.RelaxIncreaseMaxHoursPerDay,
			Params: map[string]float64{model.ParamTo: t.cfg.DailyCapTarget},
			Reason: "Reduce staffing peaks",
		})
	}
	return Decision{NeedsApproval: true, Relaxations: out}
}
