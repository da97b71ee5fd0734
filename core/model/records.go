package model

import (
	"errors"
	"fmt"
)

// Employee is a member of the roster. Records are immutable for a run.
type Employee struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	HourlyCost float64  `json:"hourly_cost"`
	Skills     []string `json:"skills"`
	// MaxHoursWeek is the personal weekly cap; 0 leaves only the global cap.
	MaxHoursWeek float64 `json:"max_hours_week"`
}

// Validate checks the invariants of an employee record.
func (e Employee) Validate() error {
	if e.ID == "" {
		return errors.New("employee id is required")
	}
	if e.HourlyCost < 0 {
		return fmt.Errorf("employee %s: negative hourly cost", e.ID)
	}
	if e.MaxHoursWeek < 0 {
		return fmt.Errorf("employee %s: negative max hours", e.ID)
	}
	return nil
}

// NormalizedSkills returns the employee skills in canonical role form.
func (e Employee) NormalizedSkills() []string {
	out := make([]string, 0, len(e.Skills))
	for _, s := range e.Skills {
		if n := NormalizeRole(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Absence blocks an interval of one day for an employee.
type Absence struct {
	EmployeeID string    `json:"employee_id"`
	Day        string    `json:"day"`
	Time       TimeRange `json:"time"`
	Type       string    `json:"type"`
}

// DemandRequirement is the headcount required for a role during a window.
type DemandRequirement struct {
	Day  string    `json:"day"`
	Time TimeRange `json:"time"`
	Role string    `json:"role"`
	Qty  int       `json:"qty"`
}

// Validate checks that the requirement can take part in planning.
func (d DemandRequirement) Validate() error {
	if NormalizeDay(d.Day) == "" {
		return errors.New("demand day is required")
	}
	if NormalizeRole(d.Role) == "" {
		return errors.New("demand role is required")
	}
	if d.Qty < 0 {
		return fmt.Errorf("demand %s %s %s: negative qty", d.Day, d.Time, d.Role)
	}
	return d.Time.Validate()
}

// SliceKey identifies an independent (day, role) planning slice.
type SliceKey struct {
	Day  string `json:"day"`
	Role string `json:"role"`
}

// Key returns the canonical slice key of the requirement.
func (d DemandRequirement) Key() SliceKey {
	return SliceKey{Day: NormalizeDay(d.Day), Role: NormalizeRole(d.Role)}
}

func (k SliceKey) String() string { return k.Day + "/" + k.Role }

// Less orders slice keys by day then role.
func (k SliceKey) Less(o SliceKey) bool {
	if k.Day != o.Day {
		return k.Day < o.Day
	}
	return k.Role < o.Role
}
