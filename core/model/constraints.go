package model

import "maps"

// HardConstraints are enforced by the scheduler.
type HardConstraints struct {
	MaxHoursPerDay           float64 `json:"max_hours_per_day"`
	MaxHoursPerWeek          float64 `json:"max_hours_per_week"`
	MinRestHours             float64 `json:"min_rest_hours"`
	RequireSkillMatch        bool    `json:"require_skill_match"`
	AllowAssistantForManager bool    `json:"allow_assistant_for_manager"`
	AllowCashierForSales     bool    `json:"allow_cashier_for_sales"`
	// ShortCoverageAllowance records an approved allow_short_coverage
	// relaxation. The scheduler does not read it.
	ShortCoverageAllowance int `json:"short_coverage_allowance,omitempty"`
}

// ConstraintSet groups hard constraints with named soft objective weights.
// Soft objectives are carried for reporting only.
type ConstraintSet struct {
	Hard HardConstraints    `json:"hard"`
	Soft map[string]float64 `json:"soft"`
}

// Clone returns a copy that shares no map with c.
func (c ConstraintSet) Clone() ConstraintSet {
	out := c
	out.Soft = maps.Clone(c.Soft)
	return out
}
