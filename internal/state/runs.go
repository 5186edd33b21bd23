package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bveerendrakumar/devflow/pkg/models"
)

// CreateRun inserts a new run record.
func (db *DB) CreateRun(r *models.Run) error {
	_, err := db.Exec(`
		INSERT INTO runs (id, request, plan, status, attempt, tokens_in, tokens_out, started_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Request, r.Plan, string(r.Status), r.Attempt, r.TokensIn, r.TokensOut, formatTime(r.StartedAt), r.Error)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// UpdateRun updates a run's mutable fields.
func (db *DB) UpdateRun(r *models.Run) error {
	var completedAt any
	if r.CompletedAt != nil {
		completedAt = formatTime(*r.CompletedAt)
	}

	_, err := db.Exec(`
		UPDATE runs
		SET plan = ?, status = ?, attempt = ?, tokens_in = ?, tokens_out = ?, completed_at = ?, error = ?
		WHERE id = ?
	`, r.Plan, string(r.Status), r.Attempt, r.TokensIn, r.TokensOut, completedAt, r.Error, r.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil if not found.
func (db *DB) GetRun(id string) (*models.Run, error) {
	row := db.QueryRow(`
		SELECT id, request, plan, status, attempt, tokens_in, tokens_out, started_at, completed_at, error
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, request, plan, status, attempt, tokens_in, tokens_out, started_at, completed_at, error
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var r models.Run
	var plan, errMsg sql.NullString
	var startedAt string
	var completedAt sql.NullString

	err := row.Scan(&r.ID, &r.Request, &plan, &r.Status, &r.Attempt,
		&r.TokensIn, &r.TokensOut, &startedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	r.Plan = plan.String
	r.Error = errMsg.String
	if t, err := parseTime(startedAt); err == nil {
		r.StartedAt = t
	}
	r.CompletedAt = parseNullableTime(completedAt)

	return &r, nil
}

// CreateTaskCall inserts a new task call record.
func (db *DB) CreateTaskCall(tc *models.TaskCall) error {
	args, err := json.Marshal(tc.Args)
	if err != nil {
		return fmt.Errorf("marshal task args: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO task_calls (id, run_id, kind, args, result, status, attempt, started_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tc.ID, tc.RunID, string(tc.Kind), string(args), tc.Result, string(tc.Status), tc.Attempt, formatTime(tc.StartedAt), tc.Error)
	if err != nil {
		return fmt.Errorf("create task call: %w", err)
	}
	return nil
}

// UpdateTaskCall updates a task call's mutable fields.
func (db *DB) UpdateTaskCall(tc *models.TaskCall) error {
	var completedAt any
	if tc.CompletedAt != nil {
		completedAt = formatTime(*tc.CompletedAt)
	}

	_, err := db.Exec(`
		UPDATE task_calls
		SET result = ?, status = ?, completed_at = ?, error = ?
		WHERE id = ?
	`, tc.Result, string(tc.Status), completedAt, tc.Error, tc.ID)
	if err != nil {
		return fmt.Errorf("update task call: %w", err)
	}
	return nil
}

// ListTaskCalls returns all task calls for a run, oldest first.
func (db *DB) ListTaskCalls(runID string) ([]*models.TaskCall, error) {
	rows, err := db.Query(`
		SELECT id, run_id, kind, args, result, status, attempt, started_at, completed_at, error
		FROM task_calls WHERE run_id = ? ORDER BY started_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list task calls: %w", err)
	}
	defer rows.Close()

	var calls []*models.TaskCall
	for rows.Next() {
		var tc models.TaskCall
		var args, result, errMsg sql.NullString
		var startedAt string
		var completedAt sql.NullString

		err := rows.Scan(&tc.ID, &tc.RunID, &tc.Kind, &args, &result, &tc.Status,
			&tc.Attempt, &startedAt, &completedAt, &errMsg)
		if err != nil {
			return nil, fmt.Errorf("scan task call: %w", err)
		}

		if args.Valid && args.String != "" {
			if err := json.Unmarshal([]byte(args.String), &tc.Args); err != nil {
				return nil, fmt.Errorf("unmarshal task args: %w", err)
			}
		}
		tc.Result = result.String
		tc.Error = errMsg.String
		if t, err := parseTime(startedAt); err == nil {
			tc.StartedAt = t
		}
		tc.CompletedAt = parseNullableTime(completedAt)

		calls = append(calls, &tc)
	}
	return calls, rows.Err()
}

// RecordVerdict inserts a verdict record.
func (db *DB) RecordVerdict(v *models.Verdict) error {
	_, err := db.Exec(`
		INSERT INTO verdicts (run_id, source, subject, approved, reason, raw, structured, flagged, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.RunID, string(v.Source), v.Subject, boolToInt(v.Approved), v.Reason, v.Raw, boolToInt(v.Structured), strings.Join(v.FlaggedTerms, ","), formatTime(v.IssuedAt))
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

// ListVerdicts returns all verdicts for a run, oldest first.
func (db *DB) ListVerdicts(runID string) ([]*models.Verdict, error) {
	rows, err := db.Query(`
		SELECT run_id, source, subject, approved, reason, raw, structured, flagged, issued_at
		FROM verdicts WHERE run_id = ? ORDER BY issued_at ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []*models.Verdict
	for rows.Next() {
		var v models.Verdict
		var approved, structured int
		var reason, raw, flagged sql.NullString
		var issuedAt string

		err := rows.Scan(&v.RunID, &v.Source, &v.Subject, &approved, &reason, &raw, &structured, &flagged, &issuedAt)
		if err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}

		v.Approved = approved != 0
		v.Structured = structured != 0
		v.Reason = reason.String
		v.Raw = raw.String
		if flagged.String != "" {
			v.FlaggedTerms = strings.Split(flagged.String, ",")
		}
		if t, err := parseTime(issuedAt); err == nil {
			v.IssuedAt = t
		}

		verdicts = append(verdicts, &v)
	}
	return verdicts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
