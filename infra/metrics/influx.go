package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/staffplan/core/metrics"
	"github.com/kilianp07/staffplan/infra/logger"
)

// InfluxSink writes planning results to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordSliceResults writes one slice_result point per slice.
func (s *InfluxSink) RecordSliceResults(res []coremetrics.SliceResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := write.NewPointWithMeasurement("slice_result").
			AddTag("run_id", r.RunID).
			AddTag("day", r.Day).
			AddTag("role", r.Role).
			AddTag("status", r.Status).
			AddField("iteration", r.Iteration).
			AddField("candidates", r.Candidates).
			AddField("assigned", r.Assigned).
			AddField("shortfall", r.Shortfall).
			AddField("nodes", r.Nodes).
			AddField("lower_bound", round3(r.LowerBound)).
			AddField("timed_out", r.TimedOut).
			AddField("elapsed_ms", round3(r.Elapsed.Seconds()*1000)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordStep writes a pipeline_step point.
func (s *InfluxSink) RecordStep(ev coremetrics.StepTiming) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("pipeline_step").
		AddTag("run_id", ev.RunID).
		AddTag("step", ev.Step).
		AddTag("status", ev.Status).
		AddField("iteration", ev.Iteration).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes a plan_run point with the run KPIs.
func (s *InfluxSink) RecordRun(ev coremetrics.RunOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", ev.RunID).
		AddTag("status", ev.Status).
		AddTag("reason", ev.Reason).
		AddField("iterations", ev.Iterations).
		AddField("violations", ev.Violations).
		AddField("cost", round3(ev.Cost)).
		AddField("coverage", round3(ev.Coverage)).
		AddField("employees_used", ev.EmployeesUsed).
		AddField("assignments", ev.Assignments).
		AddField("utilization", round3(ev.Utilization)).
		AddField("awaiting_approval", ev.AwaitingApproval)
	if ev.Budget != nil {
		p = p.AddField("budget", round3(*ev.Budget))
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
