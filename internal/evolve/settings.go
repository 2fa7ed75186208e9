package evolve

import (
	"fmt"
	"math"
)

// Settings controls one differential evolution run.
type Settings struct {
	Strategy Strategy

	// PopulationSize is a multiplier: the population holds
	// PopulationSize × dims members (never fewer than minPopulation).
	PopulationSize int

	// MaxGenerations bounds the number of generations.
	MaxGenerations int

	// The mutation factor is drawn uniformly from [MutationMin, MutationMax)
	// once per generation. Equal values disable dithering.
	MutationMin float64
	MutationMax float64

	// Recombination is the crossover probability in [0, 1].
	Recombination float64

	// The run has converged once std(energies) <= Atol + Tol·|mean(energies)|.
	Tol  float64
	Atol float64

	// Polish refines the best member with Nelder-Mead after the evolution.
	Polish bool

	// Seed makes a run reproducible; different seeds restart the search.
	Seed uint64
}

const (
	minPopulation     = 5
	polishEvaluations = 4000
)

// DefaultSettings returns the settings used unless overridden.
func DefaultSettings() Settings {
	return Settings{
		Strategy:       Best1Bin,
		PopulationSize: 15,
		MaxGenerations: 1000,
		MutationMin:    0.5,
		MutationMax:    1.0,
		Recombination:  0.7,
		Tol:            0.01,
		Atol:           0,
		Polish:         true,
		Seed:           1,
	}
}

// Validate checks that the settings describe a runnable search.
func (s Settings) Validate() error {
	if !s.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %d", ErrBadSettings, int(s.Strategy))
	}
	if s.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be positive, got %d", ErrBadSettings, s.PopulationSize)
	}
	if s.MaxGenerations <= 0 {
		return fmt.Errorf("%w: max generations must be positive, got %d", ErrBadSettings, s.MaxGenerations)
	}
	if s.MutationMin < 0 || s.MutationMax > 2 || s.MutationMin > s.MutationMax {
		return fmt.Errorf("%w: mutation range [%g, %g] outside [0, 2]", ErrBadSettings, s.MutationMin, s.MutationMax)
	}
	if s.Recombination < 0 || s.Recombination > 1 || math.IsNaN(s.Recombination) {
		return fmt.Errorf("%w: recombination %g outside [0, 1]", ErrBadSettings, s.Recombination)
	}
	if s.Tol < 0 || s.Atol < 0 {
		return fmt.Errorf("%w: tolerances must be non-negative", ErrBadSettings)
	}
	return nil
}

// Option modifies Settings.
type Option func(*Settings)

// NewSettings returns DefaultSettings with opts applied in order.
func NewSettings(opts ...Option) Settings {
	s := DefaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithStrategy selects the mutation/crossover scheme.
func WithStrategy(strategy Strategy) Option {
	return func(s *Settings) { s.Strategy = strategy }
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(s *Settings) { s.Seed = seed }
}

// WithMaxGenerations sets the generation limit.
func WithMaxGenerations(n int) Option {
	return func(s *Settings) { s.MaxGenerations = n }
}

// WithPopulationSize sets the per-dimension population multiplier.
func WithPopulationSize(n int) Option {
	return func(s *Settings) { s.PopulationSize = n }
}

// WithTolerance sets the relative and absolute convergence tolerances.
func WithTolerance(tol, atol float64) Option {
	return func(s *Settings) {
		s.Tol = tol
		s.Atol = atol
	}
}

// WithMutation sets the dither range of the mutation factor.
func WithMutation(min, max float64) Option {
	return func(s *Settings) {
		s.MutationMin = min
		s.MutationMax = max
	}
}

// WithRecombination sets the crossover probability.
func WithRecombination(cr float64) Option {
	return func(s *Settings) { s.Recombination = cr }
}

// WithPolish enables or disables the Nelder-Mead refinement.
func WithPolish(polish bool) Option {
	return func(s *Settings) { s.Polish = polish }
}
