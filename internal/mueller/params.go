package mueller

import (
	"fmt"
	"math"
)

// Parameters are the characteristic parameters of a lossless elliptical
// retarder, in radians.
type Parameters struct {
	Delta float64 `json:"delta"` // retardance
	Theta float64 `json:"theta"` // fast-axis tilt (ellipticity of the eigenmodes)
	Omega float64 `json:"omega"` // orientation of the fast axis
}

// Vector returns the parameters in the fixed order delta, theta, omega.
func (p Parameters) Vector() []float64 {
	return []float64{p.Delta, p.Theta, p.Omega}
}

// ParametersFromVector is the inverse of Parameters.Vector.
func ParametersFromVector(x []float64) (Parameters, error) {
	if len(x) != 3 {
		return Parameters{}, fmt.Errorf("parameter vector has %d elements, want 3", len(x))
	}
	return Parameters{Delta: x[0], Theta: x[1], Omega: x[2]}, nil
}

// String formats the triple in degrees, which is how it is usually read.
func (p Parameters) String() string {
	return fmt.Sprintf("(delta=%.3f°, theta=%.3f°, omega=%.3f°)",
		p.Delta*180/math.Pi, p.Theta*180/math.Pi, p.Omega*180/math.Pi)
}

// ReduceRetardance folds a retardance into its principal range [0, π].
// Retardances d and 2π-d are indistinguishable by a single polarimetric
// measurement, so the fold is a triangle wave with period 2π.
func ReduceRetardance(delta float64) float64 {
	r := math.Mod(delta, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	if r > math.Pi {
		r = 2*math.Pi - r
	}
	return r
}
