// Package audit rebuilds staffing coverage from a solution and reports the
// demand blocks it leaves short.
package audit

import (
	"sort"

	"github.com/kilianp07/staffplan/core/logger"
	"github.com/kilianp07/staffplan/core/model"
)

// BlockCoverage is the audited staffing of one demand block.
type BlockCoverage struct {
	Day      string
	Role     string
	Time     model.TimeRange
	Required int
	Actual   int
}

// Short reports whether the block is staffed below its requirement.
func (b BlockCoverage) Short() bool { return b.Actual < b.Required }

// Covered is the part of the requirement that is staffed.
func (b BlockCoverage) Covered() int { return min(b.Required, b.Actual) }

type hourKey struct {
	slice model.SliceKey
	hour  int
}

// Measure computes the actual staffing of every valid demand block. Days and
// roles of both sides are normalised before matching. A block counts as
// staffed by max(assignments containing it, lowest hourly coverage across it),
// so adjacent shifts covering a block together are credited.
func Measure(sol model.Solution, demand []model.DemandRequirement) []BlockCoverage {
	hourly := make(map[hourKey]int)
	bySlice := make(map[model.SliceKey][]model.TimeRange)
	for _, a := range sol.Assignments {
		key := model.SliceKey{Day: model.NormalizeDay(a.Day), Role: model.NormalizeRole(a.Role)}
		if key.Day == "" || key.Role == "" || a.Time.Validate() != nil {
			continue
		}
		bySlice[key] = append(bySlice[key], a.Time)
		for _, h := range a.Time.GridHours() {
			hourly[hourKey{key, h}]++
		}
	}

	out := make([]BlockCoverage, 0, len(demand))
	for _, d := range demand {
		if d.Validate() != nil {
			continue
		}
		key := d.Key()
		containing := 0
		for _, tr := range bySlice[key] {
			if tr.Contains(d.Time) {
				containing++
			}
		}
		lowest := -1
		for _, h := range d.Time.GridHours() {
			c := hourly[hourKey{key, h}]
			if lowest < 0 || c < lowest {
				lowest = c
			}
		}
		out = append(out, BlockCoverage{
			Day:      key.Day,
			Role:     key.Role,
			Time:     d.Time,
			Required: d.Qty,
			Actual:   max(containing, lowest, 0),
		})
	}
	return out
}

// Auditor turns coverage gaps into violations.
type Auditor struct {
	log logger.Logger
}

// New creates an Auditor. A nil logger discards output.
func New(log logger.Logger) *Auditor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Auditor{log: log}
}

// Check returns one under_coverage violation per short block, ordered by
// day, role and start time.
func (a *Auditor) Check(sol model.Solution, demand []model.DemandRequirement) []model.Violation {
	blocks := Measure(sol, demand)
	var out []model.Violation
	for _, b := range blocks {
		if !b.Short() {
			continue
		}
		out = append(out, model.NewUnderCoverage(b.Day, b.Time, b.Role, b.Required, b.Actual))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Time.Start < out[j].Time.Start
	})
	if skipped := len(demand) - len(blocks); skipped > 0 {
		a.log.Warnf("audit skipped %d malformed demand rows", skipped)
	}
	a.log.Infof("audited %d assignments against %d demand blocks: %d violations", len(sol.Assignments), len(blocks), len(out))
	return out
}
