package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/staffplan/config"
	coremetrics "github.com/kilianp07/staffplan/core/metrics"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/monitoring"
	coremqtt "github.com/kilianp07/staffplan/core/mqtt"
	"github.com/kilianp07/staffplan/core/pipeline"
	"github.com/kilianp07/staffplan/core/scheduler"
	"github.com/kilianp07/staffplan/infra/input"
	"github.com/kilianp07/staffplan/infra/logger"
	"github.com/kilianp07/staffplan/infra/metrics"
	infmonitoring "github.com/kilianp07/staffplan/infra/monitoring"
	"github.com/kilianp07/staffplan/infra/mqtt"
	"github.com/kilianp07/staffplan/infra/runlog"
	"github.com/kilianp07/staffplan/internal/eventbus"
	"github.com/kilianp07/staffplan/pkg/export"
)

// Option customises a Service.
type Option func(*options)

type options struct {
	ingester pipeline.Ingester
	client   coremqtt.Client
	store    runlog.Store
	sink     coremetrics.MetricsSink
	newID    func() string
}

// WithIngester replaces the file ingester built from the input config.
func WithIngester(i pipeline.Ingester) Option { return func(o *options) { o.ingester = i } }

// WithClient uses c instead of connecting to the configured broker.
func WithClient(c coremqtt.Client) Option { return func(o *options) { o.client = c } }

// WithStore uses s as the run log instead of opening the configured one.
func WithStore(s runlog.Store) Option { return func(o *options) { o.store = s } }

// WithSink replaces the metrics sinks built from the config.
func WithSink(s coremetrics.MetricsSink) Option { return func(o *options) { o.sink = s } }

// WithIDGenerator sets the run id generator.
func WithIDGenerator(f func() string) Option { return func(o *options) { o.newID = f } }

// ErrNoDataset is returned by Plan when no dataset is configured.
var ErrNoDataset = errors.New("no dataset configured")

type noDataset struct{}

func (noDataset) Ingest(context.Context) (pipeline.Dataset, error) {
	return pipeline.Dataset{}, ErrNoDataset
}

// Service wires the planning pipeline to its run log, broker and metrics.
type Service struct {
	Orchestrator *pipeline.Orchestrator
	Store        runlog.Store

	cfg    *config.Config
	bus    *eventbus.Bus
	client coremqtt.Client
	paho   *mqtt.PahoClient
	sink   coremetrics.MetricsSink
	log    logger.Logger
	cancel context.CancelFunc
	done   []<-chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ing := o.ingester
	if ing == nil {
		ing = noDataset{}
		if cfg.Input.Dataset != "" {
			ing = input.FileIngester{Path: cfg.Input.Dataset, Log: logger.New("input")}
		}
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	mon, err := infmonitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)
	logg := logger.New("service")

	svc := &Service{cfg: cfg, bus: eventbus.New(), log: logg, client: o.client, sink: o.sink, Store: o.store}
	if svc.sink == nil {
		if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if svc.Store == nil {
		if svc.Store, err = runlog.Open(cfg.RunLog); err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
	}
	if svc.client == nil && cfg.MQTT.Enabled() {
		if svc.paho, err = mqtt.NewPahoClient(cfg.MQTT); err != nil {
			_ = svc.Store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = svc.paho
	}

	demand := input.DemandFile{Path: cfg.Input.Demand, Default: input.DefaultDemand(), Log: logger.New("input")}
	solver := scheduler.New(cfg.Solver, logger.New("scheduler"))
	orch, err := pipeline.New(cfg.Planner, cfg.Policy, ing, demand, solver, svc.bus, logger.New("pipeline"))
	if err != nil {
		_ = svc.closeResources()
		return nil, err
	}
	orch.SetRunLog(runlog.NewLog(svc.Store))
	if cfg.Export.Dir != "" {
		orch.SetExporter(export.FileExporter{Dir: cfg.Export.Dir, Format: cfg.Export.Format})
	}
	orch.SetIDGenerator(o.newID)
	svc.Orchestrator = orch
	return svc, nil
}

// Start launches the event consumers and the metrics endpoint.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = append(s.done, metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics")))
	if s.client != nil {
		s.done = append(s.done, mqtt.StartProgressPublisher(ctx, s.bus, s.client, s.cfg.MQTT.Prefix(), logger.New("progress")))
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		monitoring.Go(func() {
			if err := metrics.StartPromServer(ctx, addr, prometheus.DefaultGatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}
}

// Plan runs a new planning pipeline. When the run pauses and a broker is
// connected, it waits for review decisions and resumes the run.
func (s *Service) Plan(ctx context.Context) (model.PlanState, error) {
	st, err := s.Orchestrator.Run(ctx)
	if err != nil {
		return st, err
	}
	return s.awaitReview(ctx, st)
}

// Resume answers the paused run runID with decision, loading its last
// state from the run log.
func (s *Service) Resume(ctx context.Context, runID string, d pipeline.Decision) (model.PlanState, error) {
	rec, err := runlog.Latest(ctx, s.Store, runID)
	if err != nil {
		return model.PlanState{}, err
	}
	return s.ResumeState(ctx, rec.State, d)
}

// ResumeState answers a paused run given its full state.
func (s *Service) ResumeState(ctx context.Context, st model.PlanState, d pipeline.Decision) (model.PlanState, error) {
	next, err := s.Orchestrator.Resume(ctx, st, d)
	if err != nil {
		return next, err
	}
	return s.awaitReview(ctx, next)
}

func (s *Service) awaitReview(ctx context.Context, st model.PlanState) (model.PlanState, error) {
	wait := time.Duration(s.cfg.Review.WaitSeconds) * time.Second
	for st.Paused() && s.client != nil && wait > 0 {
		s.log.Infof("run %s awaiting decision on %s", st.RunID, mqtt.RunTopic(s.cfg.MQTT.Prefix(), st.RunID, "decision"))
		answer, err := s.client.WaitForDecision(st.RunID, wait)
		if errors.Is(err, coremqtt.ErrDecisionTimeout) {
			s.log.Warnf("run %s: no decision received, leaving it paused", st.RunID)
			return st, nil
		}
		if err != nil {
			return st, err
		}
		d, err := pipeline.ParseDecision(answer)
		if err != nil {
			s.log.Warnf("run %s: %v", st.RunID, err)
			continue
		}
		if st, err = s.Orchestrator.Resume(ctx, st, d); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Close stops the consumers and releases the broker and run log.
func (s *Service) Close() error {
	s.bus.Close()
	for _, d := range s.done {
		<-d
	}
	if s.cancel != nil {
		s.cancel()
	}
	err := s.closeResources()
	monitoring.Flush(2 * time.Second)
	return err
}

func (s *Service) closeResources() error {
	if s.paho != nil {
		s.paho.Disconnect()
	}
	var errs []error
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return errors.Join(errs...)
}
