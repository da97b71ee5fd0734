package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/staffplan/core/approval"
	"github.com/kilianp07/staffplan/core/events"
	"github.com/kilianp07/staffplan/core/kpi"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/monitoring"
	"github.com/kilianp07/staffplan/core/rules"
	"github.com/kilianp07/staffplan/core/scheduler"
)

func (o *Orchestrator) ingest(ctx context.Context, s model.PlanState) (model.PlanState, error) {
	start := time.Now()
	ds, err := o.ingester.Ingest(ctx)
	if err != nil {
		return s, err
	}
	seen := make(map[string]bool, len(ds.Employees))
	for _, e := range ds.Employees {
		if err := e.Validate(); err != nil {
			o.log.Warnf("skipping employee: %v", err)
			continue
		}
		if seen[e.ID] {
			o.log.Warnf("skipping duplicate employee %s", e.ID)
			continue
		}
		seen[e.ID] = true
		s.Employees = append(s.Employees, e)
	}
	for _, a := range ds.Absences {
		if a.EmployeeID == "" || model.NormalizeDay(a.Day) == "" || a.Time.Validate() != nil {
			o.log.Warnf("skipping absence %+v", a)
			continue
		}
		s.Absences = append(s.Absences, a)
	}
	s.Demand = ds.Demand
	s.Status = model.StatusIngested
	msg := fmt.Sprintf("ingested %d employees and %d absences", len(s.Employees), len(s.Absences))
	return o.record(s, StepIngest, msg, start), nil
}

func (o *Orchestrator) compile(s model.PlanState) model.PlanState {
	start := time.Now()
	s.Constraints = rules.Compile(o.policy)
	s.Status = model.StatusConstrained
	h := s.Constraints.Hard
	msg := fmt.Sprintf("constraints: %.1fh/day %.1fh/week %.1fh rest skill_match=%t", h.MaxHoursPerDay, h.MaxHoursPerWeek, h.MinRestHours, h.RequireSkillMatch)
	return o.record(s, StepRules, msg, start)
}

func (o *Orchestrator) resolveDemand(ctx context.Context, s model.PlanState) (model.PlanState, error) {
	start := time.Now()
	uploaded := len(s.Demand) > 0
	demand, err := o.demand.Resolve(ctx, Dataset{Employees: s.Employees, Absences: s.Absences, Demand: s.Demand})
	if err != nil {
		return s, err
	}
	s.Demand = nil
	for _, d := range demand {
		if err := d.Validate(); err != nil {
			o.log.Warnf("skipping demand row: %v", err)
			continue
		}
		s.Demand = append(s.Demand, d)
	}
	msg := fmt.Sprintf("resolved %d demand rows (uploaded=%t)", len(s.Demand), uploaded)
	return o.record(s, StepDemand, msg, start), nil
}

func (o *Orchestrator) solve(ctx context.Context, s model.PlanState) model.PlanState {
	start := time.Now()
	res := o.solver.Solve(ctx, scheduler.Input{
		Employees:   s.Employees,
		Absences:    s.Absences,
		Constraints: s.Constraints.Clone(),
		Demand:      s.Demand,
	})
	s.Iteration++
	s.Solution = res.Solution
	s.Reports = res.Reports
	s.Status = model.StatusSolved
	short := 0
	for _, r := range res.Reports {
		o.publish(events.SliceEvent{RunID: s.RunID, Iteration: s.Iteration, Report: r})
		if r.Shortfall > 0 {
			short++
		}
	}
	msg := fmt.Sprintf("%d assignments over %d slices, %d short", len(res.Solution.Assignments), len(res.Reports), short)
	return o.record(s, StepSolve, msg, start)
}

func (o *Orchestrator) check(s model.PlanState) model.PlanState {
	start := time.Now()
	s.Violations = o.auditor.Check(s.Solution, s.Demand)
	s.Status = model.StatusValidated
	return o.record(s, StepAudit, fmt.Sprintf("%d violations", len(s.Violations)), start)
}

func (o *Orchestrator) score(s model.PlanState, budget *float64) model.PlanState {
	start := time.Now()
	s.Kpi = kpi.Compute(s.Solution, s.Employees, s.Demand, kpi.Supplied{Budget: budget})
	msg := fmt.Sprintf("cost=%.2f coverage=%.3f employees=%d", s.Kpi.Cost, s.Kpi.Coverage, s.Kpi.EmployeesUsed)
	return o.record(s, StepKPI, msg, start)
}

func (o *Orchestrator) review(s model.PlanState) model.PlanState {
	start := time.Now()
	d := o.triage.Evaluate(s.Violations, s.Kpi)
	s.NeedsApproval = d.NeedsApproval
	s.Relaxations = d.Relaxations
	s.AwaitingApproval = false
	if d.NeedsApproval {
		s.Status = model.StatusReview
	}
	msg := fmt.Sprintf("needs_approval=%t relaxations=%d", d.NeedsApproval, len(d.Relaxations))
	return o.record(s, StepTriage, msg, start)
}

func (o *Orchestrator) approve(s model.PlanState) (model.PlanState, approval.Outcome) {
	start := time.Now()
	next, out, msg := o.gate.Pass(s)
	return o.record(next, StepApproval, msg, start), out
}

func (o *Orchestrator) halt(ctx context.Context, s model.PlanState) model.PlanState {
	s = o.record(s, StepHalt, "paused for approval", time.Now())
	monitoring.CaptureMessage("run paused for approval", map[string]string{"run_id": s.RunID})
	o.stop(ctx, s, "awaiting_approval")
	return s
}

func (o *Orchestrator) finalize(ctx context.Context, s model.PlanState) model.PlanState {
	start := time.Now()
	s.Exported = true
	msg := "plan exported"
	if o.exporter != nil {
		if err := o.exporter.Export(ctx, s); err != nil {
			s.Exported = false
			msg = "export failed: " + err.Error()
			o.log.Errorf("run %s: export: %v", s.RunID, err)
			monitoring.CaptureException(err, map[string]string{"run_id": s.RunID, "step": StepFinalize})
		}
	}
	s.NeedsApproval = false
	s.AwaitingApproval = false
	s.Status = model.StatusFinalized
	s = o.record(s, StepFinalize, msg, start)
	o.stop(ctx, s, "finalized")
	return s
}
