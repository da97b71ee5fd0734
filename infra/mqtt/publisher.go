package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/staffplan/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// Message is a payload recorded by MockPublisher.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// MockPublisher is an in-memory Client used in tests and dry runs.
type MockPublisher struct {
	Messages  []Message
	FailTopic map[string]bool
	Decisions map[string]string
	mu        sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		FailTopic: make(map[string]bool),
		Decisions: make(map[string]string),
	}
}

// Publish records the message or returns an error if configured to fail.
func (m *MockPublisher) Publish(topic string, payload []byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopic[topic] {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: append([]byte(nil), payload...), Retained: retained})
	return nil
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}

// WaitForDecision returns the scripted decision immediately and consumes it.
func (m *MockPublisher) WaitForDecision(runID string, _ time.Duration) (string, error) {
	m.mu.Lock()
	d, ok := m.Decisions[runID]
	delete(m.Decisions, runID)
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("run %s: %w", runID, coremqtt.ErrDecisionTimeout)
	}
	return d, nil
}
