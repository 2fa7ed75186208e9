// Package testutil provides shared test utilities and fixtures.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/charpar/internal/mueller"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertStokesNear checks every component of got against want.
func AssertStokesNear(t testing.TB, got, want mueller.Stokes, tol float64) {
	t.Helper()
	for i := range got {
		if !near(got[i], want[i], tol) {
			t.Errorf("stokes = %v, want %v (component %d off by %g, tol %g)", got, want, i, got[i]-want[i], tol)
			return
		}
	}
}

// AssertParametersNear checks delta, theta and omega against want.
func AssertParametersNear(t testing.TB, got, want mueller.Parameters, tol float64) {
	t.Helper()
	if !near(got.Delta, want.Delta, tol) || !near(got.Theta, want.Theta, tol) || !near(got.Omega, want.Omega, tol) {
		t.Errorf("parameters = %v, want %v (tol %g)", got, want, tol)
	}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
