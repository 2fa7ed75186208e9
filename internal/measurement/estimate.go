package measurement

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/charpar/internal/evolve"
	"github.com/banshee-data/charpar/internal/mueller"
)

// Estimate is the outcome of fitting a procedure under one bounds/strategy pair.
type Estimate struct {
	Parameters  mueller.Parameters `json:"parameters"`
	Objective   float64            `json:"objective"`
	Strategy    evolve.Strategy    `json:"strategy"`
	Generations int                `json:"generations"`
	Evaluations int                `json:"evaluations"`
	Converged   bool               `json:"converged"`
	Polished    bool               `json:"polished"`
}

// Estimate searches bounds for the parameters whose predictions best match the
// observations, using the given strategy. opts override the remaining
// optimiser settings (seed, generation limit, polish, ...).
//
// Several parameter triples can reproduce the same observations; Estimate
// returns whichever minimum the search reaches and does not try to choose
// among them. A search that stops at its generation limit still returns its
// best candidate.
func (p *Procedure) Estimate(ctx context.Context, bounds Bounds, strategy evolve.Strategy, opts ...evolve.Option) (Estimate, error) {
	if err := bounds.Validate(); err != nil {
		return Estimate{}, err
	}
	if len(p.entries) == 0 {
		return Estimate{}, ErrEmptyMeasurement
	}
	for i, e := range p.entries {
		if !e.Stokes.IsFinite() || !isFinite(e.Phi) {
			return Estimate{}, fmt.Errorf("observation %d is not finite: %w", i, ErrNumericalInstability)
		}
	}

	settings := evolve.NewSettings(opts...)
	settings.Strategy = strategy
	objective := func(x []float64) float64 {
		return p.Objective(mueller.Parameters{Delta: x[0], Theta: x[1], Omega: x[2]})
	}

	res, err := evolve.Minimize(ctx, objective, bounds.Lower(), bounds.Upper(), settings)
	if err != nil {
		return Estimate{}, fmt.Errorf("minimize (%s): %w", strategy, err)
	}
	params, err := mueller.ParametersFromVector(res.X)
	if err != nil {
		return Estimate{}, err
	}
	if math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		return Estimate{}, fmt.Errorf("objective at %v is %g: %w", params, res.F, ErrNumericalInstability)
	}

	return Estimate{
		Parameters:  params,
		Objective:   res.F,
		Strategy:    strategy,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		Converged:   res.Converged,
		Polished:    res.Polished,
	}, nil
}

// FindCharacteristicParameters is Estimate reduced to the recovered triple.
func (p *Procedure) FindCharacteristicParameters(ctx context.Context, bounds Bounds, strategy evolve.Strategy, opts ...evolve.Option) (mueller.Parameters, error) {
	est, err := p.Estimate(ctx, bounds, strategy, opts...)
	if err != nil {
		return mueller.Parameters{}, err
	}
	return est.Parameters, nil
}
