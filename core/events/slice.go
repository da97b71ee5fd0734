package events

import "github.com/kilianp07/staffplan/core/model"

// SliceEvent carries the report of one solved slice.
type SliceEvent struct {
	RunID     string
	Iteration int
	Report    model.SliceReport
}
