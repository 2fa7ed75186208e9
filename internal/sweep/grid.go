// Package sweep validates the parameter estimator over a grid of known
// characteristic parameters: it synthesises noiseless measurements for every
// grid point and re-estimates them under several bounds/strategy
// configurations in parallel.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/charpar/internal/measurement"
	"github.com/banshee-data/charpar/internal/mueller"
)

// maxAxisValues caps one grid axis so a bad step cannot exhaust memory.
const maxAxisValues = 10000

// RangeSpec defines a floating-point axis range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]float64
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// Radians converts a range given in degrees.
func (r RangeSpec) Radians() RangeSpec {
	const k = math.Pi / 180
	return RangeSpec{Min: r.Min * k, Max: r.Max * k, Step: r.Step * k}
}

// Values expands the range.
func (r RangeSpec) Values() []float64 {
	return GenerateRange(r.Min, r.Max, r.Step)
}

// GenerateRange returns min, min+step, ... up to and including max.
// Values are computed as min + i·step so they do not accumulate rounding
// error, and max is included when it is within step/1000 of the last value.
// Returns nil if step <= 0, min > max, or the range would be too large.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	n := int(math.Floor((max-min)/step+1e-3)) + 1
	if n > maxAxisValues || n < 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}

// Grid is the ordered set of ground-truth parameters a sweep visits.
// Delta is the outer axis and omega the inner one; theta is derived from delta.
type Grid struct {
	Deltas []float64
	Omegas []float64
	Points []mueller.Parameters
}

// ThetaFromDelta is the fixed relation between tilt and retardance used for
// the validation grid.
func ThetaFromDelta(delta float64) float64 {
	return delta / 6
}

// NewGrid builds the square grid over [0, π] with the given step.
func NewGrid(step float64) (*Grid, error) {
	axis := GenerateRange(0, math.Pi, step)
	if len(axis) == 0 {
		return nil, fmt.Errorf("step %g yields no grid values over [0, π]", step)
	}
	return NewGridFromAxes(axis, axis)
}

// NewGridFromAxes builds a grid from explicit delta and omega axis values.
func NewGridFromAxes(deltas, omegas []float64) (*Grid, error) {
	if len(deltas) == 0 || len(omegas) == 0 {
		return nil, fmt.Errorf("grid axes must be non-empty (got %d deltas, %d omegas)", len(deltas), len(omegas))
	}
	g := &Grid{
		Deltas: append([]float64(nil), deltas...),
		Omegas: append([]float64(nil), omegas...),
		Points: make([]mueller.Parameters, 0, len(deltas)*len(omegas)),
	}
	for _, d := range g.Deltas {
		for _, o := range g.Omegas {
			g.Points = append(g.Points, mueller.Parameters{Delta: d, Theta: ThetaFromDelta(d), Omega: o})
		}
	}
	return g, nil
}

// Len returns the number of grid points.
func (g *Grid) Len() int {
	return len(g.Points)
}

// Index returns the grid index of (deltaIdx, omegaIdx).
func (g *Grid) Index(deltaIdx, omegaIdx int) int {
	return deltaIdx*len(g.Omegas) + omegaIdx
}

// Synthesize builds one noiseless measurement procedure per grid point, in
// grid order, for light at each incident angle.
func (g *Grid) Synthesize(angles []float64) []*measurement.Procedure {
	out := make([]*measurement.Procedure, len(g.Points))
	for i, p := range g.Points {
		out[i] = measurement.Synthesize(p, angles...)
	}
	return out
}
