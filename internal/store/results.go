package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/charpar/internal/evolve"
	"github.com/banshee-data/charpar/internal/measurement"
	"github.com/banshee-data/charpar/internal/mueller"
	"github.com/banshee-data/charpar/internal/sweep"
)

// Result is one stored grid point of one configuration.
type Result struct {
	RunID         string              `json:"run_id"`
	Configuration sweep.Configuration `json:"configuration"`
	Point         sweep.Point         `json:"point"`
}

// ResultStore provides persistence for per-point sweep estimates.
type ResultStore struct {
	db *sql.DB
}

// NewResultStore creates a new ResultStore.
func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

// InsertReport writes every point of every configuration in one transaction.
func (s *ResultStore) InsertReport(runID string, report *sweep.Report) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO charpar_sweep_results (
				run_id, configuration, strategy, bounds_json, grid_index,
				true_delta, true_theta, true_omega,
				est_delta, est_theta, est_omega, objective,
				generations, evaluations, converged, polished, available, error
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range report.Configurations {
			bounds, err := json.Marshal(c.Configuration.Bounds)
			if err != nil {
				return fmt.Errorf("marshal bounds of %s: %w", c.Configuration.Name, err)
			}
			for _, p := range c.Points {
				var delta, theta, omega, objective, generations, evaluations interface{}
				if p.Available {
					est := p.Estimate
					delta, theta, omega = est.Parameters.Delta, est.Parameters.Theta, est.Parameters.Omega
					objective, generations, evaluations = est.Objective, est.Generations, est.Evaluations
				}
				_, err := stmt.Exec(
					runID, c.Configuration.Name, c.Configuration.Strategy.String(), string(bounds), p.Index,
					p.Truth.Delta, p.Truth.Theta, p.Truth.Omega,
					delta, theta, omega, objective,
					generations, evaluations, p.Estimate.Converged, p.Estimate.Polished, p.Available, p.Error,
				)
				if err != nil {
					return fmt.Errorf("insert %s point %d: %w", c.Configuration.Name, p.Index, err)
				}
			}
		}
		return tx.Commit()
	})
}

const resultColumns = `run_id, configuration, strategy, bounds_json, grid_index,
	true_delta, true_theta, true_omega,
	est_delta, est_theta, est_omega, objective,
	generations, evaluations, converged, polished, available, error`

// ListByConfiguration returns one configuration's points ordered by grid index.
func (s *ResultStore) ListByConfiguration(runID, configuration string) ([]*Result, error) {
	rows, err := s.db.Query(`
		SELECT `+resultColumns+`
		FROM charpar_sweep_results
		WHERE run_id = ? AND configuration = ?
		ORDER BY grid_index`, runID, configuration)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Configurations returns the configuration names of a run in insertion order.
func (s *ResultStore) Configurations(runID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT configuration
		FROM charpar_sweep_results
		WHERE run_id = ?
		GROUP BY configuration
		ORDER BY MIN(rowid)`, runID)
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadReport rebuilds the sweep report of a stored run. Configuration
// durations and in-memory point errors are not persisted.
func (s *ResultStore) LoadReport(run *Run) (*sweep.Report, error) {
	names, err := s.Configurations(run.RunID)
	if err != nil {
		return nil, err
	}
	report := &sweep.Report{IncidentAngles: run.IncidentAngles}
	for ci, name := range names {
		results, err := s.ListByConfiguration(run.RunID, name)
		if err != nil {
			return nil, err
		}
		cr := sweep.ConfigurationResult{Points: make([]sweep.Point, len(results))}
		for i, r := range results {
			if r.Point.Index != i {
				return nil, fmt.Errorf("run %s configuration %s: missing grid index %d", run.RunID, name, i)
			}
			cr.Configuration = r.Configuration
			cr.Points[i] = r.Point
			if !r.Point.Available {
				cr.Failed = append(cr.Failed, i)
			}
			if ci == 0 {
				report.Truth = append(report.Truth, r.Point.Truth)
			}
		}
		report.Configurations = append(report.Configurations, cr)
	}
	return report, nil
}

func scanResult(rows *sql.Rows) (*Result, error) {
	var r Result
	var strategy, bounds string
	var delta, theta, omega, objective sql.NullFloat64
	var generations, evaluations sql.NullInt64
	var errStr sql.NullString
	p := &r.Point
	err := rows.Scan(
		&r.RunID, &r.Configuration.Name, &strategy, &bounds, &p.Index,
		&p.Truth.Delta, &p.Truth.Theta, &p.Truth.Omega,
		&delta, &theta, &omega, &objective,
		&generations, &evaluations, &p.Estimate.Converged, &p.Estimate.Polished, &p.Available, &errStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scan result row: %w", err)
	}

	s, err := evolve.ParseStrategy(strategy)
	if err != nil {
		return nil, fmt.Errorf("result %s/%d: %w", r.Configuration.Name, p.Index, err)
	}
	r.Configuration.Strategy = s
	var b measurement.Bounds
	if err := json.Unmarshal([]byte(bounds), &b); err != nil {
		return nil, fmt.Errorf("decode bounds of %s: %w", r.Configuration.Name, err)
	}
	r.Configuration.Bounds = b

	p.Error = errStr.String
	if p.Available {
		p.Estimate.Parameters = mueller.Parameters{Delta: delta.Float64, Theta: theta.Float64, Omega: omega.Float64}
		p.Estimate.Objective = objective.Float64
		p.Estimate.Strategy = s
		p.Estimate.Generations = int(generations.Int64)
		p.Estimate.Evaluations = int(evaluations.Int64)
	}
	return &r, nil
}
