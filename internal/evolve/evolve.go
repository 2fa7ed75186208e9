// Package evolve provides bounded, derivative-free global minimisation by
// differential evolution, with an optional Nelder-Mead polish of the winner.
package evolve

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Func is an objective to minimise. It must be safe to call with any point
// inside the bounds and must not retain x.
type Func func(x []float64) float64

// Result is the outcome of a Minimize call.
type Result struct {
	X           []float64 // best point found, inside the bounds
	F           float64   // objective at X
	Generations int       // generations evolved
	Evaluations int       // objective evaluations, including the polish
	Converged   bool      // population spread fell below the tolerance
	Polished    bool      // Nelder-Mead improved the evolved winner
}

// Minimize searches the box [lower, upper] for the minimum of fn.
//
// The search always terminates: after settings.MaxGenerations, or earlier once
// the population energies have converged. Not converging is not an error;
// the best member is returned with Converged set to false. Cancelling ctx
// aborts the search and returns ctx.Err().
func Minimize(ctx context.Context, fn Func, lower, upper []float64, settings Settings) (Result, error) {
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkBounds(lower, upper); err != nil {
		return Result{}, err
	}

	s := newSolver(fn, lower, upper, settings)
	if err := s.evolve(ctx); err != nil {
		return Result{}, err
	}

	res := Result{
		X:           s.scale(s.pop[s.best]),
		F:           s.energies[s.best],
		Generations: s.generations,
		Evaluations: s.evaluations,
		Converged:   s.converged,
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		opsf("best energy is not finite after %d generations (%s)", res.Generations, settings.Strategy)
	}

	if settings.Polish {
		s.polish(&res)
	}

	diagf("%s: f=%.3g after %d generations, %d evaluations (converged=%t polished=%t)",
		settings.Strategy, res.F, res.Generations, res.Evaluations, res.Converged, res.Polished)
	return res, nil
}

func checkBounds(lower, upper []float64) error {
	if len(lower) == 0 || len(lower) != len(upper) {
		return fmt.Errorf("%w: %d lower, %d upper", ErrDimensionMismatch, len(lower), len(upper))
	}
	for i := range lower {
		lo, hi := lower[i], upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: dimension %d is not finite", ErrBadBounds, i)
		}
		if lo > hi {
			return fmt.Errorf("%w: dimension %d has lower %g > upper %g", ErrBadBounds, i, lo, hi)
		}
	}
	return nil
}

// solver holds the population in unit-cube coordinates; scale maps a member
// back into the caller's box.
type solver struct {
	fn       Func
	lower    []float64
	width    []float64
	settings Settings
	info     strategyInfo
	rng      *rand.Rand

	pop      [][]float64
	energies []float64
	best     int

	generations int
	evaluations int
	converged   bool

	// scratch buffers reused across trials
	real  []float64
	diff  []float64
	donor []float64
}

func newSolver(fn Func, lower, upper []float64, settings Settings) *solver {
	dims := len(lower)
	width := make([]float64, dims)
	floats.SubTo(width, upper, lower)

	return &solver{
		fn:       fn,
		lower:    append([]float64(nil), lower...),
		width:    width,
		settings: settings,
		info:     strategies[settings.Strategy],
		rng:      rand.New(rand.NewPCG(settings.Seed, settings.Seed^0x9e3779b97f4a7c15)),
		real:     make([]float64, dims),
		diff:     make([]float64, dims),
		donor:    make([]float64, dims),
	}
}

func (s *solver) dims() int { return len(s.lower) }

// scale maps unit-cube coordinates u into a newly allocated point in the box.
func (s *solver) scale(u []float64) []float64 {
	x := make([]float64, len(u))
	s.scaleTo(x, u)
	return x
}

func (s *solver) scaleTo(dst, u []float64) {
	floats.MulTo(dst, u, s.width)
	floats.Add(dst, s.lower)
}

func (s *solver) energy(u []float64) float64 {
	s.scaleTo(s.real, u)
	s.evaluations++
	e := s.fn(s.real)
	if math.IsNaN(e) {
		return math.Inf(1)
	}
	return e
}

func (s *solver) evolve(ctx context.Context) error {
	dims := s.dims()
	size := s.settings.PopulationSize * dims
	if size < minPopulation {
		size = minPopulation
	}

	s.pop = latinHypercube(s.rng, size, dims)
	s.energies = make([]float64, size)
	for i, member := range s.pop {
		s.energies[i] = s.energy(member)
		if s.energies[i] < s.energies[s.best] {
			s.best = i
		}
	}

	trial := make([]float64, dims)
	for gen := 1; gen <= s.settings.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		f := s.mutationFactor()
		for i := range s.pop {
			s.makeTrial(trial, i, f)
			e := s.energy(trial)
			if e <= s.energies[i] {
				copy(s.pop[i], trial)
				s.energies[i] = e
				if e < s.energies[s.best] {
					s.best = i
				}
			}
		}
		s.generations = gen

		mean, std := s.spread()
		tracef("%s gen %d: best=%.3g mean=%.3g std=%.3g", s.settings.Strategy, gen, s.energies[s.best], mean, std)
		if s.hasConverged(mean, std) {
			s.converged = true
			break
		}
	}
	return nil
}

func (s *solver) mutationFactor() float64 {
	lo, hi := s.settings.MutationMin, s.settings.MutationMax
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *solver) spread() (mean, std float64) {
	for _, e := range s.energies {
		if math.IsInf(e, 0) {
			return math.Inf(1), math.Inf(1)
		}
	}
	return stat.MeanStdDev(s.energies, nil)
}

func (s *solver) hasConverged(mean, std float64) bool {
	if math.IsInf(mean, 0) || math.IsNaN(std) {
		return false
	}
	return std <= s.settings.Atol+s.settings.Tol*math.Abs(mean)
}

// makeTrial writes the trial vector for member i into trial.
func (s *solver) makeTrial(trial []float64, i int, f float64) {
	r := s.pickDistinct(i, 3)
	switch s.info.base {
	case baseBest:
		floats.SubTo(s.diff, s.pop[r[0]], s.pop[r[1]])
		floats.AddScaledTo(s.donor, s.pop[s.best], f, s.diff)
	case baseRand:
		floats.SubTo(s.diff, s.pop[r[1]], s.pop[r[2]])
		floats.AddScaledTo(s.donor, s.pop[r[0]], f, s.diff)
	case baseRandToBest:
		floats.SubTo(s.diff, s.pop[s.best], s.pop[r[0]])
		floats.AddScaledTo(s.donor, s.pop[r[0]], f, s.diff)
		floats.SubTo(s.diff, s.pop[r[1]], s.pop[r[2]])
		floats.AddScaled(s.donor, f, s.diff)
	}

	copy(trial, s.pop[i])
	dims := s.dims()
	cr := s.settings.Recombination
	switch s.info.crossover {
	case crossoverBinomial:
		fill := s.rng.IntN(dims)
		for k := 0; k < dims; k++ {
			if k == fill || s.rng.Float64() < cr {
				trial[k] = s.donor[k]
			}
		}
	case crossoverExponential:
		k := s.rng.IntN(dims)
		for n := 0; n < dims; n++ {
			trial[k] = s.donor[k]
			k = (k + 1) % dims
			if s.rng.Float64() >= cr {
				break
			}
		}
	}

	// Out-of-box coordinates are redrawn uniformly inside the box.
	for k, v := range trial {
		if v < 0 || v > 1 {
			trial[k] = s.rng.Float64()
		}
	}
}

// pickDistinct returns n distinct member indices, none equal to exclude.
func (s *solver) pickDistinct(exclude, n int) []int {
	out := make([]int, 0, n)
	for len(out) < n {
		c := s.rng.IntN(len(s.pop))
		if c == exclude || containsInt(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// latinHypercube draws size points in the unit cube such that every dimension
// has exactly one point in each of size equal-width strata.
func latinHypercube(rng *rand.Rand, size, dims int) [][]float64 {
	pop := make([][]float64, size)
	for i := range pop {
		pop[i] = make([]float64, dims)
	}
	seg := 1 / float64(size)
	for k := 0; k < dims; k++ {
		order := rng.Perm(size)
		for i, stratum := range order {
			pop[i][k] = (float64(stratum) + rng.Float64()) * seg
		}
	}
	return pop
}
