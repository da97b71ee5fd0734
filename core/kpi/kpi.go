// Package kpi scores a solution: wage cost, coverage, headcount and
// workload spread.
package kpi

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/staffplan/core/audit"
	"github.com/kilianp07/staffplan/core/model"
)

// Supplied holds caller-provided fields. They are merged into the computed
// snapshot and take precedence.
type Supplied struct {
	Budget *float64 `json:"budget,omitempty"`
}

// Compute scores sol against demand. Coverage uses the same block matching
// as the auditor so the two never disagree.
func Compute(sol model.Solution, employees []model.Employee, demand []model.DemandRequirement, supplied Supplied) model.KpiSnapshot {
	cost := decimal.Zero
	perEmployee := make(map[string]float64)
	hours := make([]float64, 0, len(sol.Assignments))
	fallbacks := 0
	for _, a := range sol.Assignments {
		cost = cost.Add(decimal.NewFromFloat(a.Hours).Mul(decimal.NewFromFloat(a.CostPerHour)))
		hours = append(hours, a.Hours)
		if a.EmployeeID != "" {
			perEmployee[a.EmployeeID] += a.Hours
		}
		if a.Fallback {
			fallbacks++
		}
	}

	required, covered := 0, 0
	requiredHours, coveredHours := 0.0, 0.0
	for _, b := range audit.Measure(sol, demand) {
		if b.Required <= 0 {
			continue
		}
		required += b.Required
		covered += b.Covered()
		requiredHours += float64(b.Required) * b.Time.Hours()
		coveredHours += float64(b.Covered()) * b.Time.Hours()
	}
	coverage := 1.0
	if required > 0 {
		coverage = float64(covered) / float64(required)
	}

	totalHours := floats.Sum(hours)
	utilization := 0.0
	if totalHours > 0 {
		utilization = math.Min(1, coveredHours/totalHours)
	}

	snap := model.KpiSnapshot{
		Cost:                cost.Round(2).InexactFloat64(),
		Coverage:            round(coverage, 3),
		EmployeesUsed:       len(perEmployee),
		TotalAssignments:    len(sol.Assignments),
		TotalHours:          round(totalHours, 2),
		RequiredHours:       round(requiredHours, 2),
		Utilization:         round(utilization, 3),
		HoursStdDev:         round(spread(employees, perEmployee), 3),
		FallbackAssignments: fallbacks,
	}
	if supplied.Budget != nil {
		b := *supplied.Budget
		snap.Budget = &b
	}
	return snap
}

// spread is the standard deviation of hours across the roster, counting
// unused employees as zero.
func spread(employees []model.Employee, perEmployee map[string]float64) float64 {
	seen := make(map[string]bool, len(employees))
	xs := make([]float64, 0, len(employees))
	for _, e := range employees {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		xs = append(xs, perEmployee[e.ID])
	}
	for id, h := range perEmployee {
		if !seen[id] {
			xs = append(xs, h)
		}
	}
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
