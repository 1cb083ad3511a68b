// Copyright 2026 The Evalloom Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists EvalSuiteResult/EvalCaseResult rows to SQLite so
// `evalloom report` can compare a run against past ones without the
// caller hand-threading JSON files between invocations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// Store wraps a SQLite connection holding eval run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS suite_runs (
		run_id      TEXT PRIMARY KEY,
		suite_name  TEXT NOT NULL DEFAULT '',
		run_at      TIMESTAMP NOT NULL,
		total       INTEGER NOT NULL,
		passed      INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		errors      INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		pass_rate   REAL NOT NULL,
		duration_ms INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_suite_runs_run_at ON suite_runs(run_at);
	CREATE INDEX IF NOT EXISTS idx_suite_runs_suite_name ON suite_runs(suite_name);

	CREATE TABLE IF NOT EXISTS case_results (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES suite_runs(run_id) ON DELETE CASCADE,
		case_id     TEXT NOT NULL,
		category    TEXT NOT NULL,
		success     BOOLEAN NOT NULL,
		error_type  TEXT,
		duration_ms INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_case_results_run_id ON case_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_case_results_case_id ON case_results(case_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists one suite result and all its case results in a single
// transaction. suiteName is a caller-supplied label (e.g. the suite
// directory); the engine itself has no notion of a suite name.
func (s *Store) SaveRun(ctx context.Context, suiteName string, suite evalcase.EvalSuiteResult) error {
	resultJSON, err := json.Marshal(suite)
	if err != nil {
		return fmt.Errorf("marshaling suite result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO suite_runs (
			run_id, suite_name, run_at, total, passed, failed, errors, skipped, pass_rate, duration_ms, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		suite.RunID, suiteName, suite.Timestamp.UTC(), suite.Total, suite.Passed, suite.Failed,
		suite.Errors, suite.Skipped, suite.PassRate, suite.Duration.Milliseconds(), string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting suite run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM case_results WHERE run_id = ?`, suite.RunID); err != nil {
		return fmt.Errorf("clearing prior case results: %w", err)
	}

	for _, cr := range suite.Results {
		caseJSON, err := json.Marshal(cr)
		if err != nil {
			return fmt.Errorf("marshaling case result %s: %w", cr.EvalCase.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_results (run_id, case_id, category, success, error_type, duration_ms, result_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			suite.RunID, cr.EvalCase.ID, string(cr.EvalCase.Category), cr.Success, string(cr.ErrorType),
			cr.Duration.Milliseconds(), string(caseJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting case result %s: %w", cr.EvalCase.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRun fetches one suite result by run id.
func (s *Store) LoadRun(ctx context.Context, runID string) (evalcase.EvalSuiteResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT result_json FROM suite_runs WHERE run_id = ?`, runID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return evalcase.EvalSuiteResult{}, fmt.Errorf("run %s not found", runID)
		}
		return evalcase.EvalSuiteResult{}, fmt.Errorf("loading run %s: %w", runID, err)
	}

	var suite evalcase.EvalSuiteResult
	if err := json.Unmarshal([]byte(raw), &suite); err != nil {
		return evalcase.EvalSuiteResult{}, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return suite, nil
}

// RunSummary is the list-view projection of one stored run.
type RunSummary struct {
	RunID     string
	SuiteName string
	RunAt     time.Time
	Total     int
	Passed    int
	PassRate  float64
}

// ListRuns returns the most recent runs, optionally filtered by suite
// name, newest first, capped at limit (0 means unlimited).
func (s *Store) ListRuns(ctx context.Context, suiteName string, limit int) ([]RunSummary, error) {
	query := `SELECT run_id, suite_name, run_at, total, passed, pass_rate FROM suite_runs`
	var args []any
	if suiteName != "" {
		query += ` WHERE suite_name = ?`
		args = append(args, suiteName)
	}
	query += ` ORDER BY run_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.RunID, &rs.SuiteName, &rs.RunAt, &rs.Total, &rs.Passed, &rs.PassRate); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		summaries = append(summaries, rs)
	}
	return summaries, rows.Err()
}

// PreviousRun returns the run immediately preceding runID for the same
// suite, or ok=false if there is none (e.g. it is the first run).
func (s *Store) PreviousRun(ctx context.Context, suiteName, runID string) (evalcase.EvalSuiteResult, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM suite_runs
		WHERE suite_name = ? AND run_at < (SELECT run_at FROM suite_runs WHERE run_id = ?)
		ORDER BY run_at DESC LIMIT 1`, suiteName, runID)

	var prevID string
	if err := row.Scan(&prevID); err != nil {
		if err == sql.ErrNoRows {
			return evalcase.EvalSuiteResult{}, false, nil
		}
		return evalcase.EvalSuiteResult{}, false, fmt.Errorf("finding previous run: %w", err)
	}

	suite, err := s.LoadRun(ctx, prevID)
	return suite, err == nil, err
}

// RecentRuns returns the full suite results (not just summaries) for the
// most recent n runs of suiteName, oldest first, for AggregateResults and
// CalculateNonDeterminismMetrics.
func (s *Store) RecentRuns(ctx context.Context, suiteName string, n int) ([]evalcase.EvalSuiteResult, error) {
	summaries, err := s.ListRuns(ctx, suiteName, n)
	if err != nil {
		return nil, err
	}

	runs := make([]evalcase.EvalSuiteResult, 0, len(summaries))
	for i := len(summaries) - 1; i >= 0; i-- {
		suite, err := s.LoadRun(ctx, summaries[i].RunID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, suite)
	}
	return runs, nil
}
