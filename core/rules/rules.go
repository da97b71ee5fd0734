// Package rules compiles the staffing policy into the constraint set used by
// the scheduler and applies approved relaxations to it.
package rules

import (
	"fmt"

	"github.com/kilianp07/staffplan/core/model"
)

// Default hard limits.
const (
	DefaultMaxHoursPerDay  = 8.0
	DefaultMaxHoursPerWeek = 37.5
	DefaultMinRestHours    = 11.0
)

// Policy is the configurable staffing policy.
type Policy struct {
	MaxHoursPerDay           float64            `json:"max_hours_per_day" yaml:"max_hours_per_day"`
	MaxHoursPerWeek          float64            `json:"max_hours_per_week" yaml:"max_hours_per_week"`
	MinRestHours             float64            `json:"min_rest_hours" yaml:"min_rest_hours"`
	RequireSkillMatch        *bool              `json:"require_skill_match" yaml:"require_skill_match"`
	AllowAssistantForManager bool               `json:"allow_assistant_for_manager" yaml:"allow_assistant_for_manager"`
	AllowCashierForSales     bool               `json:"allow_cashier_for_sales" yaml:"allow_cashier_for_sales"`
	Soft                     map[string]float64 `json:"soft" yaml:"soft"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxHoursPerDay:  DefaultMaxHoursPerDay,
		MaxHoursPerWeek: DefaultMaxHoursPerWeek,
		MinRestHours:    DefaultMinRestHours,
		Soft: map[string]float64{
			"fair_weekends":  2.0,
			"avoid_overtime": 5.0,
		},
	}
}

// SetDefaults fills unset limits with the built-in values.
func (p *Policy) SetDefaults() {
	d := DefaultPolicy()
	if p.MaxHoursPerDay == 0 {
		p.MaxHoursPerDay = d.MaxHoursPerDay
	}
	if p.MaxHoursPerWeek == 0 {
		p.MaxHoursPerWeek = d.MaxHoursPerWeek
	}
	if p.MinRestHours == 0 {
		p.MinRestHours = d.MinRestHours
	}
	if p.Soft == nil {
		p.Soft = d.Soft
	}
}

// Validate checks the policy limits.
func (p Policy) Validate() error {
	if p.MaxHoursPerDay < 0 || p.MaxHoursPerDay > 24 {
		return fmt.Errorf("max_hours_per_day out of range: %v", p.MaxHoursPerDay)
	}
	if p.MaxHoursPerWeek < 0 {
		return fmt.Errorf("max_hours_per_week must not be negative")
	}
	if p.MinRestHours < 0 || p.MinRestHours > 24 {
		return fmt.Errorf("min_rest_hours out of range: %v", p.MinRestHours)
	}
	return nil
}

// Compile turns p into a constraint set. Zero limits take their defaults.
func Compile(p Policy) model.ConstraintSet {
	p.SetDefaults()
	requireSkill := true
	if p.RequireSkillMatch != nil {
		requireSkill = *p.RequireSkillMatch
	}
	cs := model.ConstraintSet{
		Hard: model.HardConstraints{
			MaxHoursPerDay:           p.MaxHoursPerDay,
			MaxHoursPerWeek:          p.MaxHoursPerWeek,
			MinRestHours:             p.MinRestHours,
			RequireSkillMatch:        requireSkill,
			AllowAssistantForManager: p.AllowAssistantForManager,
			AllowCashierForSales:     p.AllowCashierForSales,
		},
		Soft: make(map[string]float64, len(p.Soft)),
	}
	for k, v := range p.Soft {
		cs.Soft[k] = v
	}
	return cs
}

// HasEffect reports whether applying r changes a constraint set.
func HasEffect(r model.Relaxation) bool {
	switch r.Type {
	case model.RelaxIncreaseMaxHoursPerDay, model.RelaxIncreaseMaxHoursPerWeek, model.RelaxReduceMinRestHours:
		_, ok := r.Param(model.ParamTo)
		return ok
	default:
		return false
	}
}

// Apply returns a copy of cs with the relaxations applied and the subset
// that had an effect. allow_short_coverage is recorded on the copy without
// changing any enforced limit.
func Apply(cs model.ConstraintSet, relaxations []model.Relaxation) (model.ConstraintSet, []model.Relaxation) {
	out := cs.Clone()
	var applied []model.Relaxation
	for _, r := range relaxations {
		if r.Type == model.RelaxAllowShortCoverage {
			if v, ok := r.Param(model.ParamLimit); ok {
				out.Hard.ShortCoverageAllowance = int(v)
			}
			continue
		}
		if !HasEffect(r) {
			continue
		}
		to, _ := r.Param(model.ParamTo)
		switch r.Type {
		case model.RelaxIncreaseMaxHoursPerDay:
			if to <= out.Hard.MaxHoursPerDay {
				continue
			}
			out.Hard.MaxHoursPerDay = to
		case model.RelaxIncreaseMaxHoursPerWeek:
			if to <= out.Hard.MaxHoursPerWeek {
				continue
			}
			out.Hard.MaxHoursPerWeek = to
		case model.RelaxReduceMinRestHours:
			if to >= out.Hard.MinRestHours || to < 0 {
				continue
			}
			out.Hard.MinRestHours = to
		}
		applied = append(applied, r)
	}
	return out, applied
}
