// Package runlog persists the state of planning runs each time they stop,
// so paused runs can be resumed and past runs inspected.
package runlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/staffplan/core/model"
)

// ErrNotFound is returned by Latest when no record matches.
var ErrNotFound = errors.New("run not found")

// Record captures a run at the moment it stopped.
type Record struct {
	Timestamp        time.Time         `json:"timestamp"`
	RunID            string            `json:"run_id"`
	Status           model.Status      `json:"status"`
	Iteration        int               `json:"iteration"`
	Violations       int               `json:"violations"`
	AwaitingApproval bool              `json:"awaiting_approval"`
	Kpi              model.KpiSnapshot `json:"kpi"`
	State            model.PlanState   `json:"state"`
}

// NewRecord builds a record from a run state.
func NewRecord(s model.PlanState, at time.Time) Record {
	return Record{
		Timestamp:        at.UTC(),
		RunID:            s.RunID,
		Status:           s.Status,
		Iteration:        s.Iteration,
		Violations:       len(s.Violations),
		AwaitingApproval: s.AwaitingApproval,
		Kpi:              s.Kpi,
		State:            s,
	}
}

// Query defines filters for retrieving records.
type Query struct {
	Start  time.Time
	End    time.Time
	RunID  string
	Status model.Status
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Log adapts a Store to the pipeline run log.
type Log struct {
	Store Store
	now   func() time.Time
}

// NewLog wraps store.
func NewLog(store Store) *Log {
	return &Log{Store: store, now: time.Now}
}

// Record appends the state of a stopped run.
func (l *Log) Record(ctx context.Context, s model.PlanState) error {
	if err := l.Store.Append(ctx, NewRecord(s, l.now())); err != nil {
		return fmt.Errorf("append run %s: %w", s.RunID, err)
	}
	return nil
}

// Latest returns the most recent record of runID.
func Latest(ctx context.Context, store Store, runID string) (Record, error) {
	recs, err := store.Query(ctx, Query{RunID: runID})
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	latest := recs[0]
	for _, r := range recs[1:] {
		if !r.Timestamp.Before(latest.Timestamp) {
			latest = r
		}
	}
	return latest, nil
}
