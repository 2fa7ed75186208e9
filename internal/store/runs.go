package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/charpar/internal/sweep"
)

// Run is a persisted sweep invocation.
type Run struct {
	RunID          string          `json:"run_id"`
	Status         sweep.Status    `json:"status"`
	GridStep       float64         `json:"grid_step"` // radians
	IncidentAngles []float64       `json:"incident_angles"`
	ParamsJSON     json.RawMessage `json:"params_json,omitempty"`
	TotalTasks     int             `json:"total_tasks"`
	FailedTasks    int             `json:"failed_tasks"`
	Warnings       []string        `json:"warnings,omitempty"`
	Error          string          `json:"error,omitempty"`
	StartedAt      int64           `json:"started_at"`             // unix nanoseconds
	CompletedAt    int64           `json:"completed_at,omitempty"` // zero while running
}

// RunStore provides persistence for sweep runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert persists a new run. If RunID is empty, a UUID is generated.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().UnixNano()
	}
	if run.Status == "" {
		run.Status = sweep.StatusRunning
	}

	angles, err := json.Marshal(run.IncidentAngles)
	if err != nil {
		return fmt.Errorf("marshal incident angles: %w", err)
	}
	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}
	var completed interface{}
	if run.CompletedAt != 0 {
		completed = run.CompletedAt
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO charpar_sweep_runs (
				run_id, status, grid_step, incident_angles, params_json,
				total_tasks, failed_tasks, warnings_json, error, started_at, completed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, string(run.Status), run.GridStep, string(angles), paramsStr,
			run.TotalTasks, run.FailedTasks, string(warnings), run.Error, run.StartedAt, completed,
		)
		return err
	})
}

// Finish records the final state of a run.
func (s *RunStore) Finish(runID string, state sweep.State) error {
	warnings, err := json.Marshal(state.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	completed := time.Now().UnixNano()
	if state.CompletedAt != nil {
		completed = state.CompletedAt.UnixNano()
	}

	return retryOnBusy(func() error {
		result, err := s.db.Exec(`
			UPDATE charpar_sweep_runs
			SET status = ?, total_tasks = ?, failed_tasks = ?, warnings_json = ?, error = ?, completed_at = ?
			WHERE run_id = ?`,
			string(state.Status), state.TotalTasks, state.FailedTasks, string(warnings), state.Error, completed, runID,
		)
		if err != nil {
			return fmt.Errorf("update run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

const runColumns = `run_id, status, grid_step, incident_angles, params_json,
	total_tasks, failed_tasks, warnings_json, error, started_at, completed_at`

// Get returns a single run by ID.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM charpar_sweep_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return run, err
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM charpar_sweep_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run and, through the foreign key, its results.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM charpar_sweep_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var status string
	var angles, params, warnings, errStr sql.NullString
	var completed sql.NullInt64
	err := row.Scan(
		&r.RunID, &status, &r.GridStep, &angles, &params,
		&r.TotalTasks, &r.FailedTasks, &warnings, &errStr, &r.StartedAt, &completed,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}
	r.Status = sweep.Status(status)
	r.Error = errStr.String
	r.CompletedAt = completed.Int64
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	if angles.Valid {
		if err := json.Unmarshal([]byte(angles.String), &r.IncidentAngles); err != nil {
			return nil, fmt.Errorf("decode incident angles of run %s: %w", r.RunID, err)
		}
	}
	if warnings.Valid {
		if err := json.Unmarshal([]byte(warnings.String), &r.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings of run %s: %w", r.RunID, err)
		}
	}
	return &r, nil
}
