package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/staffplan/core/events"
	"github.com/kilianp07/staffplan/core/logger"
	coremetrics "github.com/kilianp07/staffplan/core/metrics"
	"github.com/kilianp07/staffplan/core/monitoring"
	"github.com/kilianp07/staffplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// planning events. It stops when the context is canceled or the bus is
// closed; the returned channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	monitoring.Go(func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	})
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	now := time.Now()
	switch e := ev.(type) {
	case events.SliceEvent:
		return sink.RecordSliceResults([]coremetrics.SliceResult{SliceResultFrom(e, now)})
	case events.StepEvent:
		if r, ok := sink.(coremetrics.StepRecorder); ok {
			return r.RecordStep(coremetrics.StepTiming{
				RunID:     e.RunID,
				Step:      e.Step,
				Status:    string(e.Status),
				Iteration: e.Iteration,
				Duration:  e.Duration,
				Time:      now,
			})
		}
	case events.RunEvent:
		if r, ok := sink.(coremetrics.RunRecorder); ok {
			return r.RecordRun(RunOutcomeFrom(e, now))
		}
	}
	return nil
}

// SliceResultFrom converts a slice event into a metrics record.
func SliceResultFrom(e events.SliceEvent, at time.Time) coremetrics.SliceResult {
	r := e.Report
	return coremetrics.SliceResult{
		RunID:      e.RunID,
		Iteration:  e.Iteration,
		Day:        r.Key.Day,
		Role:       r.Key.Role,
		Status:     string(r.Status),
		Candidates: r.Candidates,
		Assigned:   r.Assigned,
		Shortfall:  r.Shortfall,
		Nodes:      r.Nodes,
		LowerBound: r.LowerBound,
		TimedOut:   r.TimedOut,
		Elapsed:    r.Elapsed,
		Time:       at,
	}
}

// RunOutcomeFrom converts a run event into a metrics record.
func RunOutcomeFrom(e events.RunEvent, at time.Time) coremetrics.RunOutcome {
	return coremetrics.RunOutcome{
		RunID:            e.RunID,
		Status:           string(e.Status),
		Reason:           e.Reason,
		Iterations:       e.Iterations,
		Violations:       e.Violations,
		Cost:             e.Kpi.Cost,
		Coverage:         e.Kpi.Coverage,
		EmployeesUsed:    e.Kpi.EmployeesUsed,
		Assignments:      e.Kpi.TotalAssignments,
		Utilization:      e.Kpi.Utilization,
		Budget:           e.Kpi.Budget,
		AwaitingApproval: e.AwaitingApproval,
		Time:             at,
	}
}
