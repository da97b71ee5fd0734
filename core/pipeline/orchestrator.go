package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/staffplan/core/approval"
	"github.com/kilianp07/staffplan/core/audit"
	"github.com/kilianp07/staffplan/core/events"
	"github.com/kilianp07/staffplan/core/logger"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/monitoring"
	"github.com/kilianp07/staffplan/core/rules"
	"github.com/kilianp07/staffplan/core/scheduler"
	"github.com/kilianp07/staffplan/core/triage"
	"github.com/kilianp07/staffplan/internal/eventbus"
)

// Step names recorded in the trace.
const (
	StepIngest     = "ingest"
	StepRules      = "rules"
	StepDemand     = "demand"
	StepSolve      = "solve"
	StepAudit      = "audit"
	StepKPI        = "kpi"
	StepTriage     = "triage"
	StepApproval   = "approval_gate"
	StepHalt       = "halt"
	StepFinalize   = "finalize"
	StepRetryLimit = "retry_limit"
	StepDecision   = "decision"
	StepCancelled  = "cancelled"
)

// ErrNotPaused is returned by Resume for runs not awaiting a decision.
var ErrNotPaused = errors.New("run is not paused for approval")

// Decision answers a paused run.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// ParseDecision accepts approve/reject and their short forms.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "approve", "approved", "yes", "y":
		return Approve, nil
	case "reject", "rejected", "no", "n":
		return Reject, nil
	default:
		return "", fmt.Errorf("unknown decision %q", s)
	}
}

// Orchestrator runs planning pipelines. It holds no per-run state, so one
// Orchestrator can serve concurrent runs.
type Orchestrator struct {
	cfg      Config
	policy   rules.Policy
	ingester Ingester
	demand   DemandResolver
	solver   Solver
	auditor  *audit.Auditor
	triage   *triage.Triage
	gate     approval.Gate
	bus      eventbus.EventBus
	log      logger.Logger
	exporter Exporter
	runlog   RunLog
	newID    func() string
}

// New creates an Orchestrator. bus and log may be nil.
func New(cfg Config, policy rules.Policy, ing Ingester, dem DemandResolver, solver Solver, bus eventbus.EventBus, log logger.Logger) (*Orchestrator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if ing == nil || solver == nil {
		return nil, fmt.Errorf("ingester and solver are required")
	}
	if dem == nil {
		dem = FallbackDemand{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Orchestrator{
		cfg:      cfg,
		policy:   policy,
		ingester: ing,
		demand:   dem,
		solver:   solver,
		auditor:  audit.New(log),
		triage:   triage.New(cfg.Triage),
		gate:     approval.Gate{AutoApprove: cfg.AutoApprove},
		bus:      bus,
		log:      log,
		newID:    uuid.NewString,
	}, nil
}

// SetExporter sets the exporter used by the finalize step.
func (o *Orchestrator) SetExporter(e Exporter) { o.exporter = e }

// SetRunLog sets where stopped runs are recorded.
func (o *Orchestrator) SetRunLog(r RunLog) { o.runlog = r }

// SetIDGenerator replaces the run id generator.
func (o *Orchestrator) SetIDGenerator(f func() string) {
	if f != nil {
		o.newID = f
	}
}

// Run executes a new planning run. Errors are only returned when the input
// cannot be loaded or the context ends; the returned state is always
// usable.
func (o *Orchestrator) Run(ctx context.Context) (model.PlanState, error) {
	defer monitoring.Recover()
	s := model.NewPlanState(o.newID())
	o.log.Infof("run %s started", s.RunID)

	var err error
	if s, err = o.ingest(ctx, s); err != nil {
		monitoring.CaptureException(err, map[string]string{"run_id": s.RunID, "step": StepIngest})
		return s, fmt.Errorf("ingest: %w", err)
	}
	s = o.compile(s)
	if s, err = o.resolveDemand(ctx, s); err != nil {
		monitoring.CaptureException(err, map[string]string{"run_id": s.RunID, "step": StepDemand})
		return s, fmt.Errorf("demand: %w", err)
	}
	return o.refine(ctx, s, o.cfg.Budget)
}

// Resume answers a run paused in REVIEW. Approve applies the pending
// relaxations and re-enters the solve loop; Reject keeps the current plan
// and ends the run in VALIDATED.
func (o *Orchestrator) Resume(ctx context.Context, s model.PlanState, d Decision) (model.PlanState, error) {
	defer monitoring.Recover()
	if !s.Paused() {
		return s, ErrNotPaused
	}
	switch d {
	case Approve:
		start := time.Now()
		next, msg, err := approval.Approve(s)
		if err != nil {
			return s, err
		}
		next = o.record(next, StepDecision, msg, start)
		return o.refine(ctx, next, next.Kpi.Budget)
	case Reject:
		start := time.Now()
		next, err := approval.Reject(s)
		if err != nil {
			return s, err
		}
		next = o.record(next, StepDecision, "rejected: keeping current plan", start)
		o.stop(ctx, next, "rejected")
		return next, nil
	default:
		return s, fmt.Errorf("unknown decision %q", d)
	}
}

// refine loops solve → audit → kpi → triage → approval until the plan is
// accepted, the run pauses or the pass limit is reached.
func (o *Orchestrator) refine(ctx context.Context, s model.PlanState, budget *float64) (model.PlanState, error) {
	for pass := 0; ; pass++ {
		if err := ctx.Err(); err != nil {
			s.Status = model.StatusValidated
			s = o.record(s, StepCancelled, err.Error(), time.Now())
			o.stop(ctx, s, "cancelled")
			return s, err
		}
		if pass >= o.cfg.MaxIterations {
			s.Status = model.StatusValidated
			s = o.record(s, StepRetryLimit, fmt.Sprintf("stopped after %d solve passes", pass), time.Now())
			o.log.Warnf("run %s: iteration limit reached with %d violations", s.RunID, len(s.Violations))
			o.stop(ctx, s, "retry_limit")
			return s, nil
		}

		s = o.solve(ctx, s)
		s = o.check(s)
		s = o.score(s, budget)
		if !triage.Needed(s.Violations, s.Kpi) {
			return o.finalize(ctx, s), nil
		}
		s = o.review(s)
		if !s.NeedsApproval {
			continue
		}
		var out approval.Outcome
		if s, out = o.approve(s); out == approval.Halt {
			return o.halt(ctx, s), nil
		}
	}
}

// record appends a trace entry and publishes the step event.
func (o *Orchestrator) record(s model.PlanState, step, msg string, start time.Time) model.PlanState {
	s = s.WithTrace(step, msg)
	o.log.Debugw("step done", map[string]any{
		"run_id":    s.RunID,
		"step":      step,
		"status":    string(s.Status),
		"iteration": s.Iteration,
	})
	o.publish(events.StepEvent{
		RunID:     s.RunID,
		Step:      step,
		Status:    s.Status,
		Iteration: s.Iteration,
		Message:   msg,
		Duration:  time.Since(start),
	})
	return s
}

func (o *Orchestrator) publish(ev eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

// stop publishes the run outcome and stores the state. Failures are logged
// and never change the outcome.
func (o *Orchestrator) stop(ctx context.Context, s model.PlanState, reason string) {
	o.publish(events.RunEvent{
		RunID:            s.RunID,
		Status:           s.Status,
		Iterations:       s.Iteration,
		Violations:       len(s.Violations),
		Kpi:              s.Kpi,
		AwaitingApproval: s.AwaitingApproval,
		Reason:           reason,
	})
	o.log.Infof("run %s stopped: status=%s reason=%s iterations=%d", s.RunID, s.Status, reason, s.Iteration)
	if o.runlog == nil {
		return
	}
	if err := o.runlog.Record(context.WithoutCancel(ctx), s); err != nil {
		o.log.Errorf("run log: %v", err)
		monitoring.CaptureException(err, map[string]string{"run_id": s.RunID})
	}
}

var _ Solver = (*scheduler.Scheduler)(nil)
