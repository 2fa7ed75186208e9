package measurement

import (
	"fmt"
	"math"
)

// Bounds is the axis-aligned box searched for the characteristic parameters,
// in radians.
type Bounds struct {
	LowerDelta float64 `json:"lb_delta"`
	UpperDelta float64 `json:"ub_delta"`
	LowerTheta float64 `json:"lb_theta"`
	UpperTheta float64 `json:"ub_theta"`
	LowerOmega float64 `json:"lb_omega"`
	UpperOmega float64 `json:"ub_omega"`
}

// NarrowBounds limits theta to [0, π/2] and omega to [0, π].
func NarrowBounds() Bounds {
	return Bounds{
		LowerDelta: 0, UpperDelta: math.Pi,
		LowerTheta: 0, UpperTheta: math.Pi / 2,
		LowerOmega: 0, UpperOmega: math.Pi,
	}
}

// WideBounds allows theta in [0, π] and omega in [0, 2π].
func WideBounds() Bounds {
	return Bounds{
		LowerDelta: 0, UpperDelta: math.Pi,
		LowerTheta: 0, UpperTheta: math.Pi,
		LowerOmega: 0, UpperOmega: 2 * math.Pi,
	}
}

// Lower returns the lower bounds in the order delta, theta, omega.
func (b Bounds) Lower() []float64 {
	return []float64{b.LowerDelta, b.LowerTheta, b.LowerOmega}
}

// Upper returns the upper bounds in the order delta, theta, omega.
func (b Bounds) Upper() []float64 {
	return []float64{b.UpperDelta, b.UpperTheta, b.UpperOmega}
}

// Validate reports ErrInvalidBounds if any bound is not finite or any lower
// bound exceeds its upper bound.
func (b Bounds) Validate() error {
	axes := []struct {
		name   string
		lo, hi float64
	}{
		{"delta", b.LowerDelta, b.UpperDelta},
		{"theta", b.LowerTheta, b.UpperTheta},
		{"omega", b.LowerOmega, b.UpperOmega},
	}
	for _, a := range axes {
		if !isFinite(a.lo) || !isFinite(a.hi) {
			return fmt.Errorf("%w: %s bounds [%g, %g] are not finite", ErrInvalidBounds, a.name, a.lo, a.hi)
		}
		if a.lo > a.hi {
			return fmt.Errorf("%w: %s lower bound %g exceeds upper bound %g", ErrInvalidBounds, a.name, a.lo, a.hi)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
