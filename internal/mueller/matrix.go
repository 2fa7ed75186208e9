package mueller

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identity returns the 4x4 Mueller identity.
func Identity() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// Rotator returns the Mueller matrix of an optical rotator that turns the
// plane of polarisation by angle radians (a rotation of the S1/S2 plane by 2·angle).
func Rotator(angle float64) *mat.Dense {
	s, c := math.Sincos(2 * angle)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

// retarder0 is a linear retarder with its fast axis at 0°: a rotation of the
// Poincaré sphere by delta about S1.
func retarder0(delta float64) *mat.Dense {
	s, c := math.Sincos(delta)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, c, s,
		0, 0, -s, c,
	})
}

// retarder45 is a linear retarder with its fast axis at 45°: a rotation of the
// Poincaré sphere by delta about S2.
func retarder45(delta float64) *mat.Dense {
	s, c := math.Sincos(delta)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, 0, -s,
		0, 0, 1, 0,
		0, s, 0, c,
	})
}

// LinearRetarder returns the Mueller matrix of a linear retarder with
// retardance delta whose fast axis is at angle radians.
func LinearRetarder(delta, angle float64) *mat.Dense {
	var m mat.Dense
	m.Product(Rotator(angle), retarder0(delta), Rotator(-angle))
	return &m
}

// OpticalEquivalentModel returns the Mueller matrix of the general lossless
// elliptical retarder described by p:
//
//	M = R(ω) · L45(2θ) · L0(δ) · L45(-2θ) · R(-ω)
//
// It rotates the Poincaré sphere by δ about the axis
// (cos2θ·cos2ω, cos2θ·sin2ω, sin2θ). δ = 0 gives the identity for any θ, ω.
func OpticalEquivalentModel(p Parameters) *mat.Dense {
	var m mat.Dense
	m.Product(
		Rotator(p.Omega),
		retarder45(2*p.Theta),
		retarder0(p.Delta),
		retarder45(-2*p.Theta),
		Rotator(-p.Omega),
	)
	return &m
}

// Apply returns m·s.
func Apply(m mat.Matrix, s Stokes) Stokes {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(4, s[:]))
	return Stokes{out.AtVec(0), out.AtVec(1), out.AtVec(2), out.AtVec(3)}
}

// Predict returns the Stokes vector leaving the element described by p when
// incident is sent through it.
func Predict(p Parameters, incident Stokes) Stokes {
	return Apply(OpticalEquivalentModel(p), incident)
}
