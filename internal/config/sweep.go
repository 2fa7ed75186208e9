package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/charpar/internal/evolve"
	"github.com/banshee-data/charpar/internal/measurement"
	"github.com/banshee-data/charpar/internal/sweep"
	"github.com/banshee-data/charpar/internal/units"
)

// DefaultConfigPath is the path to the canonical sweep defaults file.
const DefaultConfigPath = "config/sweep.defaults.json"

// SweepConfig is the root configuration of a validation sweep. Angles are in
// degrees in the file and converted to radians by the Get* accessors.
type SweepConfig struct {
	StepDegrees           *float64  `json:"step_degrees,omitempty"`
	IncidentAnglesDegrees []float64 `json:"incident_angles_degrees,omitempty"`

	Workers     *int    `json:"workers,omitempty"`
	TaskTimeout *string `json:"task_timeout,omitempty"` // duration string like "30s"; empty disables

	// Optimiser params
	Seed           *uint64  `json:"seed,omitempty"`
	MaxGenerations *int     `json:"max_generations,omitempty"`
	PopulationSize *int     `json:"population_size,omitempty"`
	Tolerance      *float64 `json:"tolerance,omitempty"`
	Polish         *bool    `json:"polish,omitempty"`

	Configurations []ConfigurationSpec `json:"configurations,omitempty"`
}

// ConfigurationSpec is one named bounds/strategy pair as written in the file.
type ConfigurationSpec struct {
	Name     string        `json:"name"`
	Strategy string        `json:"strategy"`
	Bounds   BoundsDegrees `json:"bounds"`
}

// BoundsDegrees mirrors measurement.Bounds in degrees.
type BoundsDegrees struct {
	LowerDelta float64 `json:"lb_delta"`
	UpperDelta float64 `json:"ub_delta"`
	LowerTheta float64 `json:"lb_theta"`
	UpperTheta float64 `json:"ub_theta"`
	LowerOmega float64 `json:"lb_omega"`
	UpperOmega float64 `json:"ub_omega"`
}

// Radians converts the bounds for the estimator.
func (b BoundsDegrees) Radians() measurement.Bounds {
	return measurement.Bounds{
		LowerDelta: deg(b.LowerDelta), UpperDelta: deg(b.UpperDelta),
		LowerTheta: deg(b.LowerTheta), UpperTheta: deg(b.UpperTheta),
		LowerOmega: deg(b.LowerOmega), UpperOmega: deg(b.UpperOmega),
	}
}

func deg(v float64) float64 { return units.ToRadians(v, units.Degrees) }

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptySweepConfig returns a SweepConfig with all fields unset.
func EmptySweepConfig() *SweepConfig {
	return &SweepConfig{}
}

// DefaultSweepConfig returns a SweepConfig with every field set to its default.
func DefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		StepDegrees:           ptrFloat64(45),
		IncidentAnglesDegrees: []float64{0, 45},
		Workers:               ptrInt(12),
		TaskTimeout:           ptrString(""),
		Seed:                  ptrUint64(1),
		MaxGenerations:        ptrInt(1000),
		PopulationSize:        ptrInt(15),
		Tolerance:             ptrFloat64(0.01),
		Polish:                ptrBool(true),
		Configurations:        defaultConfigurationSpecs(),
	}
}

func defaultConfigurationSpecs() []ConfigurationSpec {
	narrow := BoundsDegrees{UpperDelta: 180, UpperTheta: 90, UpperOmega: 180}
	wide := BoundsDegrees{UpperDelta: 180, UpperTheta: 180, UpperOmega: 360}
	return []ConfigurationSpec{
		{Name: "narrow-best1bin", Strategy: "best1bin", Bounds: narrow},
		{Name: "wide-best1bin", Strategy: "best1bin", Bounds: wide},
		{Name: "narrow-rand1exp", Strategy: "rand1exp", Bounds: narrow},
		{Name: "wide-rand1exp", Strategy: "rand1exp", Bounds: wide},
	}
}

// LoadSweepConfig loads a SweepConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file fall back to defaults through the Get* methods.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySweepConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical sweep defaults from DefaultConfigPath.
// It searches the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SweepConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadSweepConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SweepConfig) Validate() error {
	if c.StepDegrees != nil {
		if *c.StepDegrees <= 0 || *c.StepDegrees > 180 {
			return fmt.Errorf("step_degrees must be in (0, 180], got %f", *c.StepDegrees)
		}
	}

	for i, a := range c.IncidentAnglesDegrees {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("incident_angles_degrees[%d] is not finite", i)
		}
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.TaskTimeout != nil && *c.TaskTimeout != "" {
		d, err := time.ParseDuration(*c.TaskTimeout)
		if err != nil {
			return fmt.Errorf("invalid task_timeout '%s': %w", *c.TaskTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("task_timeout must be non-negative, got %s", d)
		}
	}

	if c.MaxGenerations != nil && *c.MaxGenerations < 1 {
		return fmt.Errorf("max_generations must be at least 1, got %d", *c.MaxGenerations)
	}
	if c.PopulationSize != nil && *c.PopulationSize < 1 {
		return fmt.Errorf("population_size must be at least 1, got %d", *c.PopulationSize)
	}
	if c.Tolerance != nil && *c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %f", *c.Tolerance)
	}

	seen := make(map[string]bool, len(c.Configurations))
	for i, spec := range c.Configurations {
		if spec.Name == "" {
			return fmt.Errorf("configurations[%d] has no name", i)
		}
		if seen[spec.Name] {
			return fmt.Errorf("duplicate configuration name %q", spec.Name)
		}
		seen[spec.Name] = true
		if _, err := evolve.ParseStrategy(spec.Strategy); err != nil {
			return fmt.Errorf("configuration %q: %w", spec.Name, err)
		}
		if err := spec.Bounds.Radians().Validate(); err != nil {
			return fmt.Errorf("configuration %q: %w", spec.Name, err)
		}
	}

	return nil
}

// GetStep returns the grid step in radians.
func (c *SweepConfig) GetStep() float64 {
	if c.StepDegrees == nil {
		return deg(45)
	}
	return deg(*c.StepDegrees)
}

// GetIncidentAngles returns the polariser orientations in radians.
func (c *SweepConfig) GetIncidentAngles() []float64 {
	if len(c.IncidentAnglesDegrees) == 0 {
		return sweep.DefaultIncidentAngles()
	}
	out := make([]float64, len(c.IncidentAnglesDegrees))
	for i, a := range c.IncidentAnglesDegrees {
		out[i] = deg(a)
	}
	return out
}

// GetWorkers returns the worker pool size or the default.
func (c *SweepConfig) GetWorkers() int {
	if c.Workers == nil {
		return 12
	}
	return *c.Workers
}

// GetTaskTimeout parses and returns the per-point timeout; zero disables it.
func (c *SweepConfig) GetTaskTimeout() time.Duration {
	if c.TaskTimeout == nil || *c.TaskTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.TaskTimeout)
	if err != nil {
		return 0 // default on parse error
	}
	return d
}

// GetSeed returns the base random seed or the default.
func (c *SweepConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetMaxGenerations returns the max_generations value or the default.
func (c *SweepConfig) GetMaxGenerations() int {
	if c.MaxGenerations == nil {
		return evolve.DefaultSettings().MaxGenerations
	}
	return *c.MaxGenerations
}

// GetPopulationSize returns the population_size value or the default.
func (c *SweepConfig) GetPopulationSize() int {
	if c.PopulationSize == nil {
		return evolve.DefaultSettings().PopulationSize
	}
	return *c.PopulationSize
}

// GetTolerance returns the tolerance value or the default.
func (c *SweepConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return evolve.DefaultSettings().Tol
	}
	return *c.Tolerance
}

// GetPolish returns the polish value or the default.
func (c *SweepConfig) GetPolish() bool {
	if c.Polish == nil {
		return true
	}
	return *c.Polish
}

// GetConfigurations converts the configuration specs, or returns the default
// four when none are set.
func (c *SweepConfig) GetConfigurations() ([]sweep.Configuration, error) {
	specs := c.Configurations
	if len(specs) == 0 {
		specs = defaultConfigurationSpecs()
	}
	out := make([]sweep.Configuration, 0, len(specs))
	for _, spec := range specs {
		strategy, err := evolve.ParseStrategy(spec.Strategy)
		if err != nil {
			return nil, fmt.Errorf("configuration %q: %w", spec.Name, err)
		}
		out = append(out, sweep.Configuration{
			Name:     spec.Name,
			Bounds:   spec.Bounds.Radians(),
			Strategy: strategy,
		})
	}
	return out, nil
}

// EstimatorOptions returns the optimiser options shared by every estimation.
func (c *SweepConfig) EstimatorOptions() []evolve.Option {
	return []evolve.Option{
		evolve.WithMaxGenerations(c.GetMaxGenerations()),
		evolve.WithPopulationSize(c.GetPopulationSize()),
		evolve.WithTolerance(c.GetTolerance(), 0),
		evolve.WithPolish(c.GetPolish()),
	}
}

// RunnerOptions assembles the sweep runner options.
func (c *SweepConfig) RunnerOptions() sweep.Options {
	return sweep.Options{
		Workers:        c.GetWorkers(),
		IncidentAngles: c.GetIncidentAngles(),
		TaskTimeout:    c.GetTaskTimeout(),
		Seed:           c.GetSeed(),
		Estimator:      c.EstimatorOptions(),
	}
}

// Grid builds the validation grid for the configured step.
func (c *SweepConfig) Grid() (*sweep.Grid, error) {
	return sweep.NewGrid(c.GetStep())
}
