package scheduler

import (
	"fmt"

	"github.com/kilianp07/staffplan/core/model"
)

// Tier ranks how well an employee's skills match a role. Lower is better.
type Tier int

const (
	TierIdeal Tier = iota
	TierFallback
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierIdeal:
		return "ideal"
	case TierFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Toggles gating fallback synonyms.
const (
	ToggleAssistantForManager = "allow_assistant_for_manager"
	ToggleCashierForSales     = "allow_cashier_for_sales"
)

// Synonym lets employees with Skill cover demand for Role.
type Synonym struct {
	Role     string `json:"role" yaml:"role"`
	Skill    string `json:"skill" yaml:"skill"`
	Fallback bool   `json:"fallback" yaml:"fallback"`
	// Requires names a constraint toggle that must be on for the synonym
	// to apply.
	Requires string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Validate checks the synonym definition.
func (s Synonym) Validate() error {
	if model.NormalizeRole(s.Role) == "" || model.NormalizeRole(s.Skill) == "" {
		return fmt.Errorf("synonym requires role and skill")
	}
	switch s.Requires {
	case "", ToggleAssistantForManager, ToggleCashierForSales:
		return nil
	default:
		return fmt.Errorf("unknown synonym toggle %q", s.Requires)
	}
}

// DefaultSynonyms is the built-in retail synonym table.
func DefaultSynonyms() []Synonym {
	return []Synonym{
		{Role: "store manager", Skill: "manager"},
		{Role: "store manager", Skill: "filialleitung"},
		{Role: "manager", Skill: "store manager"},
		{Role: "store manager", Skill: "assistant manager", Fallback: true, Requires: ToggleAssistantForManager},
		{Role: "manager", Skill: "assistant manager", Fallback: true, Requires: ToggleAssistantForManager},
		{Role: "sales", Skill: "verkauf"},
		{Role: "sales", Skill: "cashier", Fallback: true, Requires: ToggleCashierForSales},
		{Role: "cashier", Skill: "kasse"},
		{Role: "cashier", Skill: "checkout"},
		{Role: "checkout", Skill: "cashier"},
		{Role: "checkout", Skill: "kasse"},
	}
}

// SynonymTable resolves the match tier of a skill set for a role.
type SynonymTable struct {
	byRole map[string][]Synonym
}

// NewSynonymTable indexes the synonyms by canonical role.
func NewSynonymTable(syns []Synonym) SynonymTable {
	t := SynonymTable{byRole: make(map[string][]Synonym)}
	for _, s := range syns {
		role := model.NormalizeRole(s.Role)
		s.Skill = model.NormalizeRole(s.Skill)
		t.byRole[role] = append(t.byRole[role], s)
	}
	return t
}

func toggleOn(name string, hard model.HardConstraints) bool {
	switch name {
	case "":
		return true
	case ToggleAssistantForManager:
		return hard.AllowAssistantForManager
	case ToggleCashierForSales:
		return hard.AllowCashierForSales
	default:
		return false
	}
}

// Match returns the best tier at which skills cover role. A direct skill
// match is ideal. Without require_skill_match every employee can serve as
// a fallback.
func (t SynonymTable) Match(skills []string, role string, hard model.HardConstraints) Tier {
	role = model.NormalizeRole(role)
	best := TierNone
	for _, s := range skills {
		if model.NormalizeRole(s) == role {
			return TierIdeal
		}
	}
	for _, syn := range t.byRole[role] {
		if !toggleOn(syn.Requires, hard) {
			continue
		}
		for _, s := range skills {
			if model.NormalizeRole(s) != syn.Skill {
				continue
			}
			tier := TierIdeal
			if syn.Fallback {
				tier = TierFallback
			}
			if tier < best {
				best = tier
			}
		}
	}
	if best == TierNone && !hard.RequireSkillMatch {
		return TierFallback
	}
	return best
}
