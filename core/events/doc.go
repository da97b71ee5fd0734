// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - StepEvent: a pipeline step finished
//   - SliceEvent: the scheduler solved one (day, role) slice
//   - RunEvent: a run reached a terminal or paused state
package events
