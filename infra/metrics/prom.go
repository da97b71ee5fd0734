package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/staffplan/core/metrics"
)

// PromSink records planning metrics in Prometheus collectors.
type PromSink struct {
	slices    *prometheus.CounterVec
	shortfall *prometheus.CounterVec
	solve     *prometheus.HistogramVec
	nodes     prometheus.Histogram
	steps     *prometheus.HistogramVec
	runs      *prometheus.CounterVec
	cost      prometheus.Gauge
	coverage  prometheus.Gauge
	employees prometheus.Gauge
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		slices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffplan_slices_total",
			Help: "Solved (day, role) slices by role and status",
		}, []string{"role", "status"}),
		shortfall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffplan_shortfall_person_hours_total",
			Help: "Person-hours of demand left uncovered by the solver",
		}, []string{"role"}),
		solve: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staffplan_slice_solve_seconds",
			Help:    "Time spent solving one slice",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		nodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "staffplan_slice_search_nodes",
			Help:    "Branch and bound nodes explored per slice",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staffplan_step_duration_seconds",
			Help:    "Duration of pipeline steps",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffplan_runs_total",
			Help: "Stopped runs by final status and reason",
		}, []string{"status", "reason"}),
		cost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "staffplan_last_run_cost",
			Help: "Cost of the last stopped run",
		}),
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "staffplan_last_run_coverage_ratio",
			Help: "Coverage ratio of the last stopped run",
		}),
		employees: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "staffplan_last_run_employees_used",
			Help: "Distinct employees assigned in the last stopped run",
		}),
	}
	var err error
	if s.slices, err = register(reg, s.slices); err != nil {
		return nil, err
	}
	if s.shortfall, err = register(reg, s.shortfall); err != nil {
		return nil, err
	}
	if s.solve, err = register(reg, s.solve); err != nil {
		return nil, err
	}
	if s.nodes, err = register(reg, s.nodes); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, s.cost); err != nil {
		return nil, err
	}
	if s.coverage, err = register(reg, s.coverage); err != nil {
		return nil, err
	}
	if s.employees, err = register(reg, s.employees); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c was registered
// before, so several sinks can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSliceResults counts slices and observes their solve time.
func (s *PromSink) RecordSliceResults(res []coremetrics.SliceResult) error {
	for _, r := range res {
		s.slices.WithLabelValues(r.Role, r.Status).Inc()
		if r.Shortfall > 0 {
			s.shortfall.WithLabelValues(r.Role).Add(float64(r.Shortfall))
		}
		s.solve.WithLabelValues(r.Status).Observe(r.Elapsed.Seconds())
		s.nodes.Observe(float64(r.Nodes))
	}
	return nil
}

// RecordStep observes the step duration.
func (s *PromSink) RecordStep(ev coremetrics.StepTiming) error {
	s.steps.WithLabelValues(ev.Step).Observe(ev.Duration.Seconds())
	return nil
}

// RecordRun counts the run and exposes its KPIs.
func (s *PromSink) RecordRun(ev coremetrics.RunOutcome) error {
	s.runs.WithLabelValues(ev.Status, ev.Reason).Inc()
	s.cost.Set(ev.Cost)
	s.coverage.Set(ev.Coverage)
	s.employees.Set(float64(ev.EmployeesUsed))
	return nil
}
