// Package mueller implements the forward optical model: Stokes vectors for the
// light source and Mueller matrices for the element under test.
package mueller

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stokes is a Stokes vector (S0, S1, S2, S3). S0 is the total intensity and
// S1..S3 are the Poincaré-sphere coordinates scaled by the polarised intensity.
type Stokes [4]float64

// LinearlyPolarized returns the Stokes vector of fully polarised light of unit
// intensity whose plane of polarisation is at phi radians from the reference axis.
func LinearlyPolarized(phi float64) Stokes {
	s, c := math.Sincos(2 * phi)
	return Stokes{1, c, s, 0}
}

// Intensity returns S0.
func (s Stokes) Intensity() float64 {
	return s[0]
}

// PolarizedIntensity returns sqrt(S1² + S2² + S3²).
func (s Stokes) PolarizedIntensity() float64 {
	return floats.Norm(s[1:], 2)
}

// DegreeOfPolarization returns the polarised fraction of the beam.
// Returns 0 for a beam with zero intensity.
func (s Stokes) DegreeOfPolarization() float64 {
	if s[0] == 0 {
		return 0
	}
	return s.PolarizedIntensity() / s[0]
}

// IsPhysical reports whether S0 >= sqrt(S1² + S2² + S3²) within tol and all
// components are finite.
func (s Stokes) IsPhysical(tol float64) bool {
	if !s.IsFinite() {
		return false
	}
	return s[0]+tol >= s.PolarizedIntensity()
}

// IsFinite reports whether every component is neither NaN nor ±Inf.
func (s Stokes) IsFinite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b Stokes) float64 {
	d := floats.Distance(a[:], b[:], 2)
	return d * d
}
