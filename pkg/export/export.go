// Package export writes finalized plans as JSON or CSV.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kilianp07/staffplan/core/model"
)

// Plan is the exported view of a run.
type Plan struct {
	RunID       string             `json:"run_id"`
	Status      model.Status       `json:"status"`
	Assignments []model.Assignment `json:"assignments"`
	Violations  []model.Violation  `json:"violations"`
	Kpi         model.KpiSnapshot  `json:"kpi"`
	Applied     []model.Relaxation `json:"applied_relaxations,omitempty"`
}

// PlanOf extracts the exported view of s.
func PlanOf(s model.PlanState) Plan {
	return Plan{
		RunID:       s.RunID,
		Status:      s.Status,
		Assignments: s.Solution.Assignments,
		Violations:  s.Violations,
		Kpi:         s.Kpi,
		Applied:     s.Applied,
	}
}

// WriteJSON writes the plan of s to w in JSON format.
func WriteJSON(w io.Writer, s model.PlanState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(PlanOf(s))
}

// WriteCSV writes one row per assignment.
func WriteCSV(w io.Writer, assignments []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"employee_id", "day", "role", "time", "hours", "cost_per_hour", "cost", "fallback"}); err != nil {
		return err
	}
	for _, a := range assignments {
		rec := []string{
			a.EmployeeID,
			a.Day,
			a.Role,
			a.Time.String(),
			strconv.FormatFloat(a.Hours, 'f', -1, 64),
			strconv.FormatFloat(a.CostPerHour, 'f', 2, 64),
			strconv.FormatFloat(a.Cost(), 'f', 2, 64),
			strconv.FormatBool(a.Fallback),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileExporter writes <Dir>/<run_id>.<format> for each finalized run.
type FileExporter struct {
	Dir    string
	Format string
}

// Export implements the pipeline exporter.
func (e FileExporter) Export(_ context.Context, s model.PlanState) error {
	format := e.Format
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		return fmt.Errorf("unknown export format %q", format)
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(e.Dir, s.RunID+"."+format))
	if err != nil {
		return err
	}
	if format == "csv" {
		err = WriteCSV(f, s.Solution.Assignments)
	} else {
		err = WriteJSON(f, s)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
