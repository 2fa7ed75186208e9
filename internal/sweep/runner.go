package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/charpar/internal/evolve"
	"github.com/banshee-data/charpar/internal/measurement"
	"github.com/banshee-data/charpar/internal/mueller"
	"github.com/banshee-data/charpar/internal/timeutil"
)

// Status represents the current state of a sweep run
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// DefaultIncidentAngles are the polariser orientations used to synthesise
// each grid point's measurement: 0 and π/4.
func DefaultIncidentAngles() []float64 {
	return []float64{0, math.Pi / 4}
}

// Options configures a Runner. Zero values select defaults.
type Options struct {
	// Workers is the number of grid points estimated concurrently.
	// Defaults to runtime.NumCPU().
	Workers int

	// IncidentAngles defaults to DefaultIncidentAngles().
	IncidentAngles []float64

	// TaskTimeout bounds a single estimation. A task that times out is
	// recorded as unavailable; its siblings are unaffected. Zero disables it.
	TaskTimeout time.Duration

	// Seed is the base random seed; grid point i is estimated with Seed+i so
	// results do not depend on scheduling.
	Seed uint64

	// Estimator are extra optimiser options applied to every estimation.
	Estimator []evolve.Option

	// Clock timestamps the run state and configuration durations.
	// Defaults to timeutil.RealClock.
	Clock timeutil.Clock
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) clock() timeutil.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return timeutil.RealClock{}
}

func (o Options) incidentAngles() []float64 {
	if len(o.IncidentAngles) > 0 {
		return o.IncidentAngles
	}
	return DefaultIncidentAngles()
}

// State holds the progress of the current or last sweep
type State struct {
	Status               Status     `json:"status"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	TotalTasks           int        `json:"total_tasks"`
	CompletedTasks       int        `json:"completed_tasks"`
	FailedTasks          int        `json:"failed_tasks"`
	CurrentConfiguration string     `json:"current_configuration,omitempty"`
	Error                string     `json:"error,omitempty"`
	Warnings             []string   `json:"warnings,omitempty"`
}

// Runner orchestrates validation sweeps
type Runner struct {
	opts  Options
	mu    sync.RWMutex
	state State
}

// NewRunner creates a new sweep runner
func NewRunner(opts Options) *Runner {
	return &Runner{
		opts:  opts,
		state: State{Status: StatusIdle},
	}
}

// State returns a copy of the current sweep state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := r.state
	state.Warnings = append([]string(nil), r.state.Warnings...)
	return state
}

// addWarning appends a warning message to the sweep state.
func (r *Runner) addWarning(msg string) {
	r.mu.Lock()
	r.state.Warnings = append(r.state.Warnings, msg)
	r.mu.Unlock()
}

// Run estimates every grid point under every configuration and blocks until
// the sweep is done. Configurations run one after another; inside one
// configuration the grid points are spread over the worker pool and the
// results are stored by grid index.
//
// A failing grid point is recorded as unavailable and does not stop the
// sweep. Run returns an error only for unusable input, a sweep already in
// progress, or cancellation of ctx.
func (r *Runner) Run(ctx context.Context, grid *Grid, configs []Configuration) (*Report, error) {
	if grid == nil || grid.Len() == 0 {
		return nil, fmt.Errorf("no grid points to sweep")
	}
	if err := checkConfigurations(configs); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.state.Status == StatusRunning {
		r.mu.Unlock()
		return nil, fmt.Errorf("sweep already in progress")
	}
	now := r.opts.clock().Now()
	r.state = State{
		Status:     StatusRunning,
		StartedAt:  &now,
		TotalTasks: grid.Len() * len(configs),
	}
	r.mu.Unlock()

	angles := append([]float64(nil), r.opts.incidentAngles()...)
	procedures := grid.Synthesize(angles)
	report := &Report{
		Truth:          append([]mueller.Parameters(nil), grid.Points...),
		IncidentAngles: angles,
		Configurations: make([]ConfigurationResult, 0, len(configs)),
	}

	diagf("sweep started: %d grid points x %d configurations, %d workers", grid.Len(), len(configs), r.opts.workers())
	for _, cfg := range configs {
		r.mu.Lock()
		r.state.CurrentConfiguration = cfg.Name
		r.mu.Unlock()

		res, err := r.runConfiguration(ctx, cfg, grid.Points, procedures)
		if err != nil {
			r.finish(StatusError, err)
			return nil, fmt.Errorf("configuration %q: %w", cfg.Name, err)
		}
		if len(res.Failed) > 0 {
			r.addWarning(fmt.Sprintf("%s: %d of %d grid points unavailable", cfg.Name, len(res.Failed), len(res.Points)))
		}
		report.Configurations = append(report.Configurations, res)
	}

	r.finish(StatusComplete, nil)
	diagf("sweep complete: %d estimates", report.TotalEstimates())
	return report, nil
}

func (r *Runner) finish(status Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.opts.clock().Now()
	r.state.Status = status
	r.state.CompletedAt = &now
	r.state.CurrentConfiguration = ""
	if err != nil {
		r.state.Error = err.Error()
	}
}

func (r *Runner) runConfiguration(ctx context.Context, cfg Configuration, truths []mueller.Parameters, procedures []*measurement.Procedure) (ConfigurationResult, error) {
	clock := r.opts.clock()
	start := clock.Now()
	points := make([]Point, len(procedures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.workers())
	for i := range procedures {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			points[i] = r.estimatePoint(gctx, cfg, i, truths[i], procedures[i])
			r.taskDone(points[i].Available)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ConfigurationResult{}, err
	}
	// Tasks swallow their own errors, so a cancelled parent only shows up here.
	if err := ctx.Err(); err != nil {
		return ConfigurationResult{}, err
	}

	res := ConfigurationResult{
		Configuration: cfg,
		Points:        points,
		Duration:      clock.Since(start),
	}
	for i, p := range points {
		if !p.Available {
			res.Failed = append(res.Failed, i)
		}
	}
	diagf("%s: %d points in %s, %d unavailable", cfg.Name, len(points), res.Duration.Round(time.Millisecond), len(res.Failed))
	return res, nil
}

func (r *Runner) estimatePoint(ctx context.Context, cfg Configuration, index int, truth mueller.Parameters, proc *measurement.Procedure) Point {
	if r.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.TaskTimeout)
		defer cancel()
	}

	opts := make([]evolve.Option, 0, len(r.opts.Estimator)+1)
	opts = append(opts, r.opts.Estimator...)
	opts = append(opts, evolve.WithSeed(r.opts.Seed+uint64(index)))

	point := Point{Index: index, Truth: truth}
	est, err := proc.Estimate(ctx, cfg.Bounds, cfg.Strategy, opts...)
	if err != nil {
		point.Err = err
		point.Error = err.Error()
		opsf("%s: grid point %d %v unavailable: %v", cfg.Name, index, truth, err)
		return point
	}
	point.Estimate = est
	point.Available = true
	tracef("%s: grid point %d %v -> %v (f=%.3g)", cfg.Name, index, truth, est.Parameters, est.Objective)
	return point
}

func (r *Runner) taskDone(ok bool) {
	r.mu.Lock()
	r.state.CompletedTasks++
	if !ok {
		r.state.FailedTasks++
	}
	r.mu.Unlock()
}
