package scheduler

import (
	"math"
	"sort"

	"github.com/kilianp07/staffplan/core/model"
)

// hourlyDemand expands the blocks of a slice onto the hourly grid. Each hour
// holds one quantity: the last block in input order that covers it wins.
func hourlyDemand(blocks []model.DemandRequirement) map[int]int {
	out := make(map[int]int)
	for _, b := range blocks {
		for _, h := range b.Time.GridHours() {
			out[h] = b.Qty
		}
	}
	return out
}

// positiveHours returns the grid hours with a positive requirement, sorted.
func positiveHours(byHour map[int]int) []int {
	hours := make([]int, 0, len(byHour))
	for h, q := range byHour {
		if q > 0 {
			hours = append(hours, h)
		}
	}
	sort.Ints(hours)
	return hours
}

// candidateWindows returns the shift windows considered for a slice: full
// shifts sliding across the demand span plus each demand block. Windows
// longer than maxDay hours or touching no demanded hour are dropped.
func candidateWindows(blocks []model.DemandRequirement, byHour map[int]int, cfg Config, maxDay float64) []model.TimeRange {
	if len(blocks) == 0 {
		return nil
	}
	spanStart, spanEnd := model.MinutesPerDay, 0
	for _, b := range blocks {
		spanStart = min(spanStart, b.Time.Start)
		spanEnd = max(spanEnd, b.Time.End)
	}

	maxMinutes := model.MinutesPerDay
	if maxDay > 0 {
		maxMinutes = int(math.Floor(maxDay*60 + 1e-9))
	}
	shift := min(int(math.Round(cfg.ShiftHours*60)), maxMinutes)
	step := cfg.StepMinutes
	if step <= 0 {
		step = 60
	}

	seen := make(map[model.TimeRange]bool)
	var out []model.TimeRange
	add := func(w model.TimeRange) {
		if seen[w] || w.Validate() != nil || w.Minutes() > maxMinutes {
			return
		}
		seen[w] = true
		for _, h := range w.GridHours() {
			if byHour[h] > 0 {
				out = append(out, w)
				return
			}
		}
	}
	if shift > 0 {
		for start := spanStart; start+shift <= spanEnd; start += step {
			add(model.TimeRange{Start: start, End: start + shift})
		}
	}
	for _, b := range blocks {
		add(b.Time)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}
