package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/staffplan/core/model"
)

// SQLiteStore persists records to a SQLite database. Besides the full
// records it keeps one summary row per run holding its latest outcome.
type SQLiteStore struct {
	db *sql.DB
}

// Summary is the latest outcome of a run.
type Summary struct {
	RunID      string
	Status     model.Status
	Iterations int
	Cost       float64
	Coverage   float64
	Updated    time.Time
	Stops      int
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS plan_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        run_id TEXT,
        status TEXT,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS plan_runs_run_id ON plan_runs(run_id);
    CREATE TABLE IF NOT EXISTS run_summary (
        run_id TEXT PRIMARY KEY,
        status TEXT,
        iterations INTEGER,
        cost REAL,
        coverage REAL,
        updated INTEGER,
        stops INTEGER
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record and refreshes the run summary in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plan_runs (ts, run_id, status, record) VALUES (?, ?, ?, ?)`,
		rec.Timestamp.UnixNano(), rec.RunID, string(rec.Status), string(b)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO run_summary (run_id, status, iterations, cost, coverage, updated, stops)
        VALUES (?, ?, ?, ?, ?, ?, 1)
        ON CONFLICT(run_id) DO UPDATE SET
            status = excluded.status,
            iterations = excluded.iterations,
            cost = excluded.cost,
            coverage = excluded.coverage,
            updated = excluded.updated,
            stops = stops + 1`,
		rec.RunID, string(rec.Status), rec.Iteration, rec.Kpi.Cost, rec.Kpi.Coverage, rec.Timestamp.UnixNano()); err != nil {
		return err
	}
	return tx.Commit()
}

// Query returns records matching q ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM plan_runs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Summaries returns the latest outcome of every run, most recent first.
func (s *SQLiteStore) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, status, iterations, cost, coverage, updated, stops
        FROM run_summary ORDER BY updated DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Summary
	for rows.Next() {
		var sum Summary
		var status string
		var updated int64
		if err := rows.Scan(&sum.RunID, &status, &sum.Iterations, &sum.Cost, &sum.Coverage, &updated, &sum.Stops); err != nil {
			return nil, err
		}
		sum.Status = model.Status(status)
		sum.Updated = time.Unix(0, updated).UTC()
		res = append(res, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
