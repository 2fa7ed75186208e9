// Command charpar-sweep validates the characteristic-parameter estimator: it
// synthesises measurements over a grid of known (delta, theta, omega), re-estimates
// every point under each configured bounds/strategy pair and reports how well
// the estimates reproduce the observations.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/banshee-data/charpar/internal/config"
	"github.com/banshee-data/charpar/internal/monitoring"
	"github.com/banshee-data/charpar/internal/mueller"
	"github.com/banshee-data/charpar/internal/security"
	"github.com/banshee-data/charpar/internal/store"
	"github.com/banshee-data/charpar/internal/sweep"
	"github.com/banshee-data/charpar/internal/units"
	"github.com/banshee-data/charpar/internal/version"
)

type options struct {
	configPath    string
	dbPath        string
	migrationsDir string
	gridSpec      string // degrees, min:max:step applied to both axes
	workers       int
	seed          int64 // negative keeps the configured seed
	timeout       time.Duration
	pointsPath    string
	angleUnits    string
	fitThreshold  float64
	logLevel      string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Sweep config JSON (defaults to built-in values)")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite database to store the run in (disabled when empty)")
	flag.StringVar(&opts.migrationsDir, "migrations", "", "Migrations directory (defaults to the embedded migrations)")
	flag.StringVar(&opts.gridSpec, "grid", "", "Grid range in degrees as min:max:step, overriding step_degrees")
	flag.IntVar(&opts.workers, "workers", 0, "Concurrent estimations (overrides config when > 0)")
	flag.Int64Var(&opts.seed, "seed", -1, "Base random seed (overrides config when >= 0)")
	flag.DurationVar(&opts.timeout, "timeout", 0, "Per-point estimation timeout (overrides config when > 0)")
	flag.StringVar(&opts.pointsPath, "points", "", "Write per-point estimates as CSV to this file")
	flag.StringVar(&opts.angleUnits, "units", units.Degrees, "Angle units in CSV output: "+units.GetValidUnitsString())
	flag.Float64Var(&opts.fitThreshold, "fit-threshold", sweep.DefaultFitThreshold, "Objective below which an estimate counts as fitted")
	flag.StringVar(&opts.logLevel, "log", "ops", "Log level: off, ops, diag or trace")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("charpar-sweep"))
		return
	}

	writers, err := monitoring.WritersForLevel(opts.logLevel, os.Stderr)
	if err != nil {
		log.Fatalf("invalid -log: %v", err)
	}
	monitoring.SetLogWriters(writers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
}

// run executes one sweep and writes the per-configuration summary as CSV to out.
func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.angleUnits == "" {
		opts.angleUnits = units.Degrees
	}
	if !units.IsValid(opts.angleUnits) {
		return fmt.Errorf("invalid -units %q: must be one of %s", opts.angleUnits, units.GetValidUnitsString())
	}
	if opts.pointsPath != "" {
		if err := security.ValidateOutputPath(opts.pointsPath); err != nil {
			return fmt.Errorf("invalid -points: %w", err)
		}
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	grid, err := buildGrid(cfg, opts.gridSpec)
	if err != nil {
		return err
	}
	configs, err := cfg.GetConfigurations()
	if err != nil {
		return err
	}

	var runs *store.RunStore
	var results *store.ResultStore
	var rec *store.Run
	if opts.dbPath != "" {
		db, err := store.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.MigrateUp(opts.migrationsDir); err != nil {
			return err
		}
		runs = store.NewRunStore(db.DB)
		results = store.NewResultStore(db.DB)

		params, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		rec = &store.Run{
			GridStep:       cfg.GetStep(),
			IncidentAngles: cfg.GetIncidentAngles(),
			ParamsJSON:     params,
			TotalTasks:     grid.Len() * len(configs),
		}
		if err := runs.Insert(rec); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		monitoring.Logf("recording sweep as run %s in %s", rec.RunID, opts.dbPath)
	}

	runner := sweep.NewRunner(cfg.RunnerOptions())
	report, sweepErr := runner.Run(ctx, grid, configs)
	if runs != nil {
		if sweepErr == nil {
			if err := results.InsertReport(rec.RunID, report); err != nil {
				return fmt.Errorf("store results: %w", err)
			}
		}
		if err := runs.Finish(rec.RunID, runner.State()); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
	}
	if sweepErr != nil {
		return sweepErr
	}

	for _, w := range runner.State().Warnings {
		monitoring.Logf("warning: %s", w)
	}

	if opts.pointsPath != "" {
		if err := writePointsFile(opts.pointsPath, report, opts.angleUnits); err != nil {
			return err
		}
	}
	return writeSummary(out, sweep.Summarize(report, opts.fitThreshold), opts.angleUnits)
}

func loadConfig(opts options) (*config.SweepConfig, error) {
	cfg := config.EmptySweepConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadSweepConfig(opts.configPath); err != nil {
			return nil, err
		}
	}

	if opts.workers > 0 {
		cfg.Workers = &opts.workers
	}
	if opts.seed >= 0 {
		seed := uint64(opts.seed)
		cfg.Seed = &seed
	}
	if opts.timeout > 0 {
		d := opts.timeout.String()
		cfg.TaskTimeout = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildGrid(cfg *config.SweepConfig, spec string) (*sweep.Grid, error) {
	if spec == "" {
		return cfg.Grid()
	}
	rs, err := sweep.ParseRangeSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid -grid: %w", err)
	}
	axis := rs.Radians().Values()
	if len(axis) == 0 {
		return nil, fmt.Errorf("invalid -grid %q: no values", spec)
	}
	return sweep.NewGridFromAxes(axis, axis)
}

func writeSummary(w io.Writer, summaries []sweep.Summary, angleUnits string) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"configuration", "points", "unavailable", "fitted", "fit_ratio", "exact_matches", "objective_mean", "objective_stddev", "retardance_mae_" + angleUnits})
	for _, s := range summaries {
		_ = cw.Write([]string{
			s.Name,
			strconv.Itoa(s.Points),
			strconv.Itoa(s.Unavailable),
			strconv.Itoa(s.Fitted),
			formatFloat(s.FitRatio()),
			strconv.Itoa(s.ExactMatches),
			formatFloat(s.ObjectiveMean),
			formatFloat(s.ObjectiveStddev),
			formatFloat(units.ConvertAngle(s.RetardanceMAE, angleUnits)),
		})
	}
	cw.Flush()
	return cw.Error()
}

func writePointsFile(path string, report *sweep.Report, angleUnits string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create points file: %w", err)
	}
	defer f.Close()
	if err := writePoints(f, report, angleUnits); err != nil {
		return err
	}
	return f.Close()
}

// writePoints writes one row per configuration and grid point.
// Unavailable estimates are written as NaN.
func writePoints(w io.Writer, report *sweep.Report, angleUnits string) error {
	angle := func(rad float64) string { return formatFloat(units.ConvertAngle(rad, angleUnits)) }
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"configuration", "index", "delta", "theta", "omega", "est_delta", "est_theta", "est_omega", "est_retardance", "objective", "error"})
	for _, c := range report.Configurations {
		estimates := c.Estimates()
		for i, p := range c.Points {
			est := estimates[i]
			objective := math.NaN()
			if p.Available {
				objective = p.Estimate.Objective
			}
			_ = cw.Write([]string{
				c.Configuration.Name,
				strconv.Itoa(p.Index),
				angle(p.Truth.Delta),
				angle(p.Truth.Theta),
				angle(p.Truth.Omega),
				angle(est.Delta),
				angle(est.Theta),
				angle(est.Omega),
				angle(mueller.ReduceRetardance(est.Delta)),
				formatFloat(objective),
				p.Error,
			})
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
