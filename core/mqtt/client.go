// Package mqtt defines the broker contract used to stream planning progress
// and to receive review decisions for paused runs.
package mqtt

import "time"

// Publisher sends payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// DecisionSource delivers approve/reject answers for paused runs.
type DecisionSource interface {
	// WaitForDecision blocks until a decision for runID arrives or the
	// timeout expires.
	WaitForDecision(runID string, timeout time.Duration) (string, error)
}

// Client is a broker connection able to do both.
type Client interface {
	Publisher
	DecisionSource
}
