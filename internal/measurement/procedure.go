// Package measurement wraps observed Stokes vectors into a measurement
// procedure and inverts the forward model to recover the characteristic
// parameters that produced them.
package measurement

import (
	"fmt"

	"github.com/banshee-data/charpar/internal/mueller"
)

// MeasuredStokesVector is the Stokes vector observed after linearly polarised
// light at orientation Phi passed through the element under test.
type MeasuredStokesVector struct {
	Phi    float64        `json:"phi"`
	Stokes mueller.Stokes `json:"stokes"`
}

// Incident returns the Stokes vector of the light sent into the element.
func (m MeasuredStokesVector) Incident() mueller.Stokes {
	return mueller.LinearlyPolarized(m.Phi)
}

// Procedure is an ordered set of observations of one element. It is not
// modified after construction.
type Procedure struct {
	entries []MeasuredStokesVector
}

// NewProcedure copies entries into a new Procedure. An empty procedure is
// allowed to exist; estimating from it fails with ErrEmptyMeasurement.
func NewProcedure(entries ...MeasuredStokesVector) *Procedure {
	return &Procedure{entries: append([]MeasuredStokesVector(nil), entries...)}
}

// Synthesize builds the noiseless procedure that an element with parameters p
// produces for light at each of the incident angles.
func Synthesize(p mueller.Parameters, angles ...float64) *Procedure {
	model := mueller.OpticalEquivalentModel(p)
	entries := make([]MeasuredStokesVector, len(angles))
	for i, phi := range angles {
		entries[i] = MeasuredStokesVector{
			Phi:    phi,
			Stokes: mueller.Apply(model, mueller.LinearlyPolarized(phi)),
		}
	}
	return &Procedure{entries: entries}
}

// Len returns the number of observations.
func (p *Procedure) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the observations in order.
func (p *Procedure) Entries() []MeasuredStokesVector {
	return append([]MeasuredStokesVector(nil), p.entries...)
}

// Objective returns the sum over observations of the squared distance between
// the observed Stokes vector and the one predicted for params.
func (p *Procedure) Objective(params mueller.Parameters) float64 {
	model := mueller.OpticalEquivalentModel(params)
	var sum float64
	for _, e := range p.entries {
		sum += mueller.SquaredDistance(e.Stokes, mueller.Apply(model, e.Incident()))
	}
	return sum
}

// Residuals returns, per observation, observed minus predicted Stokes vector.
func (p *Procedure) Residuals(params mueller.Parameters) []mueller.Stokes {
	model := mueller.OpticalEquivalentModel(params)
	out := make([]mueller.Stokes, len(p.entries))
	for i, e := range p.entries {
		pred := mueller.Apply(model, e.Incident())
		for k := range pred {
			out[i][k] = e.Stokes[k] - pred[k]
		}
	}
	return out
}

// Validate checks that every observation is finite and physically possible.
func (p *Procedure) Validate() error {
	if len(p.entries) == 0 {
		return ErrEmptyMeasurement
	}
	for i, e := range p.entries {
		if !e.Stokes.IsFinite() {
			return fmt.Errorf("observation %d: %w", i, ErrNumericalInstability)
		}
		if !e.Stokes.IsPhysical(1e-9) {
			return fmt.Errorf("observation %d: Stokes vector %v is not physical", i, e.Stokes)
		}
	}
	return nil
}
