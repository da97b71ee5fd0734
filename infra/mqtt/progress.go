package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/staffplan/core/events"
	"github.com/kilianp07/staffplan/core/logger"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/monitoring"
	coremqtt "github.com/kilianp07/staffplan/core/mqtt"
	"github.com/kilianp07/staffplan/internal/eventbus"
)

// StepMessage is published on prefix/runs/<id>/steps.
type StepMessage struct {
	RunID      string  `json:"run_id"`
	Step       string  `json:"step"`
	Status     string  `json:"status"`
	Iteration  int     `json:"iteration"`
	Message    string  `json:"message"`
	DurationMS float64 `json:"duration_ms"`
	Timestamp  int64   `json:"timestamp"`
}

// SliceMessage is published on prefix/runs/<id>/slices.
type SliceMessage struct {
	RunID     string            `json:"run_id"`
	Iteration int               `json:"iteration"`
	Report    model.SliceReport `json:"report"`
	Timestamp int64             `json:"timestamp"`
}

// StatusMessage is published, retained, on prefix/runs/<id>/status so late
// subscribers see where a run stopped.
type StatusMessage struct {
	RunID            string            `json:"run_id"`
	Status           string            `json:"status"`
	Reason           string            `json:"reason"`
	Iterations       int               `json:"iterations"`
	Violations       int               `json:"violations"`
	AwaitingApproval bool              `json:"awaiting_approval"`
	Kpi              model.KpiSnapshot `json:"kpi"`
	Timestamp        int64             `json:"timestamp"`
}

// StartProgressPublisher forwards pipeline events from bus to the broker
// as JSON. Publish failures are logged. The returned channel is closed
// when the publisher stops.
func StartProgressPublisher(ctx context.Context, bus eventbus.EventBus, pub coremqtt.Publisher, prefix string, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
		close(done)
		return done
	}
	if prefix == "" {
		prefix = DefaultTopicPrefix
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
				topic, msg, retained, ok := progressMessage(prefix, ev, time.Now())
				if !ok {
					continue
				}
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Errorf("encode progress: %v", err)
					continue
				}
				if err := pub.Publish(topic, payload, retained); err != nil {
					log.Warnf("publish progress to %s: %v", topic, err)
				}
			}
		}
	})
	return done
}

func progressMessage(prefix string, ev eventbus.Event, now time.Time) (string, any, bool, bool) {
	ts := now.UnixMilli()
	switch e := ev.(type) {
	case events.StepEvent:
		return RunTopic(prefix, e.RunID, "steps"), StepMessage{
			RunID:      e.RunID,
			Step:       e.Step,
			Status:     string(e.Status),
			Iteration:  e.Iteration,
			Message:    e.Message,
			DurationMS: float64(e.Duration.Microseconds()) / 1000,
			Timestamp:  ts,
		}, false, true
	case events.SliceEvent:
		return RunTopic(prefix, e.RunID, "slices"), SliceMessage{
			RunID:     e.RunID,
			Iteration: e.Iteration,
			Report:    e.Report,
			Timestamp: ts,
		}, false, true
	case events.RunEvent:
		return RunTopic(prefix, e.RunID, "status"), StatusMessage{
			RunID:            e.RunID,
			Status:           string(e.Status),
			Reason:           e.Reason,
			Iterations:       e.Iterations,
			Violations:       e.Violations,
			AwaitingApproval: e.AwaitingApproval,
			Kpi:              e.Kpi,
			Timestamp:        ts,
		}, true, true
	}
	return "", nil, false, false
}
