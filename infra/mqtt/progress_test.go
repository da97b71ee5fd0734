package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/staffplan/core/events"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/internal/eventbus"
)

func TestProgressPublisherForwardsEvents(t *testing.T) {
	bus := eventbus.New()
	pub := NewMockPublisher()
	pub.FailTopic["shop/runs/r1/slices"] = true
	done := StartProgressPublisher(context.Background(), bus, pub, "shop", nil)

	bus.Publish(events.StepEvent{RunID: "r1", Step: "solve", Status: model.StatusSolved, Iteration: 1, Duration: 1500 * time.Microsecond})
	bus.Publish(events.SliceEvent{RunID: "r1", Iteration: 1, Report: model.SliceReport{Status: model.SliceOptimal}})
	bus.Publish(events.RunEvent{RunID: "r1", Status: model.StatusReview, Reason: "awaiting_approval", AwaitingApproval: true, Kpi: model.KpiSnapshot{Cost: 88}})
	bus.Publish(42)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}

	msgs := pub.Published()
	require.Len(t, msgs, 2)
	assert.Equal(t, "shop/runs/r1/steps", msgs[0].Topic)
	assert.False(t, msgs[0].Retained)
	var step StepMessage
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &step))
	assert.Equal(t, "solve", step.Step)
	assert.Equal(t, "SOLVED", step.Status)
	assert.Equal(t, 1.5, step.DurationMS)

	assert.Equal(t, "shop/runs/r1/status", msgs[1].Topic)
	assert.True(t, msgs[1].Retained)
	var st StatusMessage
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &st))
	assert.Equal(t, "REVIEW", st.Status)
	assert.True(t, st.AwaitingApproval)
	assert.Equal(t, 88.0, st.Kpi.Cost)
}

func TestProgressPublisherDisabled(t *testing.T) {
	done := StartProgressPublisher(context.Background(), eventbus.New(), nil, "", nil)
	_, open := <-done
	assert.False(t, open)
}

func TestMockPublisherDecisions(t *testing.T) {
	pub := NewMockPublisher()
	pub.Decisions["r1"] = "approve"
	d, err := pub.WaitForDecision("r1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "approve", d)
	_, err = pub.WaitForDecision("r1", time.Millisecond)
	assert.Error(t, err)
	_, err = pub.WaitForDecision("r2", time.Millisecond)
	assert.Error(t, err)
}
