package mueller

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func sampleParameters() []Parameters {
	var out []Parameters
	for _, d := range []float64{0.3, math.Pi / 2, 2.9, 7.5} {
		for _, th := range []float64{0, math.Pi / 12, 0.7} {
			for _, om := range []float64{0, math.Pi / 4, 2.2, 5.9} {
				out = append(out, Parameters{Delta: d, Theta: th, Omega: om})
			}
		}
	}
	return out
}

func TestPredict_ZeroRetardanceIsIdentity(t *testing.T) {
	t.Parallel()

	incident := []Stokes{
		LinearlyPolarized(0),
		LinearlyPolarized(math.Pi / 4),
		LinearlyPolarized(1.1),
		{1, 0, 0, 1},
		{1, 0.2, -0.3, 0.4},
	}
	for _, p := range sampleParameters() {
		p.Delta = 0
		assert.True(t, mat.EqualApprox(Identity(), OpticalEquivalentModel(p), 1e-12), "params %v", p)
		for _, s := range incident {
			got := Predict(p, s)
			if diff := cmp.Diff(s, got, approx); diff != "" {
				t.Errorf("Predict(%v, %v) mismatch (-want +got):\n%s", p, s, diff)
			}
		}
	}
}

func TestPredict_PeriodicInRetardance(t *testing.T) {
	t.Parallel()

	for _, p := range sampleParameters() {
		for _, orders := range []float64{1, 5, 50} {
			shifted := p
			shifted.Delta += orders * 2 * math.Pi
			for _, phi := range []float64{0, math.Pi / 4, 0.9} {
				in := LinearlyPolarized(phi)
				a, b := Predict(p, in), Predict(shifted, in)
				assert.InDeltaSlice(t, a[:], b[:], 1e-8, "params %v orders %v", p, orders)
			}
		}
	}
}

func TestPredict_PreservesPolarization(t *testing.T) {
	t.Parallel()

	for _, p := range sampleParameters() {
		out := Predict(p, LinearlyPolarized(0.4))
		assert.InDelta(t, 1.0, out.Intensity(), 1e-12)
		assert.InDelta(t, 1.0, out.DegreeOfPolarization(), 1e-12)
		assert.True(t, out.IsPhysical(1e-9))
	}
}

func TestPredict_EigenstateIsUnchanged(t *testing.T) {
	p := Parameters{Delta: 1.3, Theta: 0.4, Omega: 0.9}
	s2t, c2t := math.Sincos(2 * p.Theta)
	s2o, c2o := math.Sincos(2 * p.Omega)
	eigen := Stokes{1, c2t * c2o, c2t * s2o, s2t}

	got := Predict(p, eigen)
	assert.InDeltaSlice(t, eigen[:], got[:], 1e-12)
}

func TestOpticalEquivalentModel_NoTiltIsLinearRetarder(t *testing.T) {
	for _, p := range sampleParameters() {
		p.Theta = 0
		want := LinearRetarder(p.Delta, p.Omega)
		got := OpticalEquivalentModel(p)
		assert.True(t, mat.EqualApprox(want, got, 1e-12), "params %v", p)
	}
}

func TestLinearRetarder_HalfWavePlate(t *testing.T) {
	// A half-wave plate at 22.5° turns horizontal light to 45°.
	hwp := LinearRetarder(math.Pi, math.Pi/8)
	got := Apply(hwp, LinearlyPolarized(0))
	want := LinearlyPolarized(math.Pi / 4)
	assert.InDeltaSlice(t, want[:], got[:], 1e-12)
}

func TestLinearRetarder_QuarterWavePlate(t *testing.T) {
	// A quarter-wave plate at 45° turns horizontal light circular.
	qwp := LinearRetarder(math.Pi/2, math.Pi/4)
	got := Apply(qwp, LinearlyPolarized(0))
	assert.InDelta(t, 1.0, math.Abs(got[3]), 1e-12)
	assert.InDelta(t, 0.0, got[1], 1e-12)
	assert.InDelta(t, 0.0, got[2], 1e-12)
}

func TestRotator(t *testing.T) {
	got := Apply(Rotator(math.Pi/6), LinearlyPolarized(0.2))
	want := LinearlyPolarized(0.2 + math.Pi/6)
	assert.InDeltaSlice(t, want[:], got[:], 1e-12)

	var rt mat.Dense
	rt.Mul(Rotator(0.7), Rotator(-0.7))
	assert.True(t, mat.EqualApprox(Identity(), &rt, 1e-12))
}
