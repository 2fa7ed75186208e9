package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/charpar/internal/store"
	"github.com/banshee-data/charpar/internal/sweep"
	"github.com/banshee-data/charpar/internal/units"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRun_PersistsAndSummarises(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "sweep.json", `{
  "max_generations": 60,
  "configurations": [
    {"name": "narrow", "strategy": "best1bin",
     "bounds": {"lb_delta": 0, "ub_delta": 180, "lb_theta": 0, "ub_theta": 90, "lb_omega": 0, "ub_omega": 180}}
  ]
}`)
	dbPath := filepath.Join(dir, "sweep.db")
	pointsPath := filepath.Join(dir, "points.csv")

	var out bytes.Buffer
	err := run(context.Background(), options{
		configPath:   cfgPath,
		dbPath:       dbPath,
		gridSpec:     "0:180:180",
		workers:      2,
		seed:         3,
		pointsPath:   pointsPath,
		fitThreshold: sweep.DefaultFitThreshold,
	}, &out)
	require.NoError(t, err)

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "configuration", records[0][0])
	assert.Equal(t, "narrow", records[1][0])
	assert.Equal(t, "4", records[1][1])

	f, err := os.Open(pointsPath)
	require.NoError(t, err)
	defer f.Close()
	points, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, points, 5)

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := store.NewRunStore(db.DB).List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sweep.StatusComplete, runs[0].Status)
	assert.Equal(t, 4, runs[0].TotalTasks)

	rows, err := store.NewResultStore(db.DB).ListByConfiguration(runs[0].RunID, "narrow")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestRun_CancelledRecordsError(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sweep.db")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, options{dbPath: dbPath, gridSpec: "0:180:90", seed: -1}, &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := store.NewRunStore(db.DB).List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sweep.StatusError, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := loadConfig(options{workers: 3, seed: 9, timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GetWorkers())
	assert.Equal(t, uint64(9), cfg.GetSeed())
	assert.Equal(t, 2*time.Second, cfg.GetTaskTimeout())

	cfg, err = loadConfig(options{seed: -1})
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.GetWorkers())
	assert.Equal(t, uint64(1), cfg.GetSeed())

	_, err = loadConfig(options{configPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestBuildGrid(t *testing.T) {
	cfg, err := loadConfig(options{seed: -1})
	require.NoError(t, err)

	g, err := buildGrid(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, 25, g.Len())

	g, err = buildGrid(cfg, "0:90:45")
	require.NoError(t, err)
	assert.Equal(t, 9, g.Len())

	for _, spec := range []string{"0:90", "0:90:0", "90:0:45", "a:b:c"} {
		_, err := buildGrid(cfg, spec)
		assert.Error(t, err, spec)
	}
}

func TestWritePoints_UnavailableAsNaN(t *testing.T) {
	report := &sweep.Report{
		Configurations: []sweep.ConfigurationResult{{
			Configuration: sweep.Configuration{Name: "c"},
			Points:        []sweep.Point{{Index: 0, Error: "boom"}},
			Failed:        []int{0},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, writePoints(&buf, report, units.Degrees))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "c,0,0,0,0,NaN,NaN,NaN,NaN,NaN,boom", lines[1])
}

func TestRun_RejectsBadOutputOptions(t *testing.T) {
	err := run(context.Background(), options{angleUnits: "grad", seed: -1}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-units")

	err = run(context.Background(), options{pointsPath: "/etc/charpar-points.csv", seed: -1}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-points")
}

func TestWriteSummary_Units(t *testing.T) {
	summaries := []sweep.Summary{{Name: "c", Points: 4, Fitted: 2, RetardanceMAE: 0.5}}

	var rad bytes.Buffer
	require.NoError(t, writeSummary(&rad, summaries, units.Radians))
	records, err := csv.NewReader(&rad).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "retardance_mae_rad", records[0][8])
	assert.Equal(t, "0.5", records[1][8])
	assert.Equal(t, "0.5", records[1][4])

	var deg bytes.Buffer
	require.NoError(t, writeSummary(&deg, summaries, units.Degrees))
	records, err = csv.NewReader(&deg).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "retardance_mae_deg", records[0][8])
	assert.Equal(t, "28.6479", records[1][8])
}
