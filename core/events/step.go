package events

import (
	"time"

	"github.com/kilianp07/staffplan/core/model"
)

// StepEvent is published after each pipeline step.
type StepEvent struct {
	RunID     string
	Step      string
	Status    model.Status
	Iteration int
	Message   string
	Duration  time.Duration
}
