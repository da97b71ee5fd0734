package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilianp07/staffplan/core/model"
)

func finalState() model.PlanState {
	s := model.NewPlanState("run-1")
	s.Status = model.StatusFinalized
	s.Solution.Assignments = []model.Assignment{
		{EmployeeID: "e1", Role: "cashier", Day: "Mon", Time: model.MustParseTimeRange("09:00-13:00"), Hours: 4, CostPerHour: 10},
		{EmployeeID: "e2", Role: "cashier", Day: "Mon", Time: model.MustParseTimeRange("09:00-13:00"), Hours: 4, CostPerHour: 12.5, Fallback: true},
	}
	s.Kpi = model.KpiSnapshot{Cost: 90, Coverage: 1, EmployeesUsed: 2, TotalAssignments: 2}
	return s
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, finalState().Solution.Assignments); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "employee_id,day,role,time,hours,cost_per_hour,cost,fallback" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "e2,Mon,cashier,09:00-13:00,4,12.50,50.00,true" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, finalState()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var p struct {
		RunID       string `json:"run_id"`
		Assignments []struct {
			Time string `json:"time"`
		} `json:"assignments"`
		Kpi struct {
			Cost float64 `json:"cost"`
		} `json:"kpi"`
	}
	if err := json.Unmarshal(buf.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.RunID != "run-1" || len(p.Assignments) != 2 || p.Assignments[0].Time != "09:00-13:00" || p.Kpi.Cost != 90 {
		t.Fatalf("unexpected plan %+v", p)
	}
}

func TestFileExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	for _, format := range []string{"", "csv"} {
		if err := (FileExporter{Dir: dir, Format: format}).Export(context.Background(), finalState()); err != nil {
			t.Fatalf("export %q: %v", format, err)
		}
	}
	for _, name := range []string{"run-1.json", "run-1.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if err := (FileExporter{Dir: dir, Format: "xlsx"}).Export(context.Background(), finalState()); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
