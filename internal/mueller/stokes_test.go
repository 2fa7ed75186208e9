package mueller

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearlyPolarized(t *testing.T) {
	t.Parallel()

	for phi := -2 * math.Pi; phi <= 2*math.Pi; phi += math.Pi / 17 {
		s := LinearlyPolarized(phi)
		assert.Equal(t, 1.0, s[0], "S0 at phi=%v", phi)
		assert.LessOrEqual(t, s[1]*s[1]+s[2]*s[2], 1.0+1e-12, "S1²+S2² at phi=%v", phi)
		assert.Zero(t, s[3])
		assert.InDelta(t, 1.0, s.DegreeOfPolarization(), 1e-12)
	}
}

func TestLinearlyPolarized_KnownStates(t *testing.T) {
	testCases := []struct {
		name string
		phi  float64
		want Stokes
	}{
		{"horizontal", 0, Stokes{1, 1, 0, 0}},
		{"diagonal", math.Pi / 4, Stokes{1, 0, 1, 0}},
		{"vertical", math.Pi / 2, Stokes{1, -1, 0, 0}},
		{"antidiagonal", -math.Pi / 4, Stokes{1, 0, -1, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LinearlyPolarized(tc.phi)
			assert.InDeltaSlice(t, tc.want[:], got[:], 1e-12)
		})
	}
}

func TestStokes_IsPhysical(t *testing.T) {
	testCases := []struct {
		name string
		s    Stokes
		want bool
	}{
		{"fully_polarized", Stokes{1, 0, 0, 1}, true},
		{"partially_polarized", Stokes{1, 0.3, 0.2, 0.1}, true},
		{"unpolarized", Stokes{2, 0, 0, 0}, true},
		{"superluminal", Stokes{1, 1, 1, 0}, false},
		{"nan", Stokes{math.NaN(), 0, 0, 0}, false},
		{"inf", Stokes{1, math.Inf(1), 0, 0}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.s.IsPhysical(1e-9))
		})
	}
}

func TestStokes_DegreeOfPolarizationZeroIntensity(t *testing.T) {
	assert.Zero(t, Stokes{}.DegreeOfPolarization())
}

func TestSquaredDistance(t *testing.T) {
	a := Stokes{1, 1, 0, 0}
	b := Stokes{1, 0, 1, 0}
	assert.InDelta(t, 2.0, SquaredDistance(a, b), 1e-12)
	assert.Zero(t, SquaredDistance(a, a))
}
