package evolve

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// polish runs Nelder-Mead from res.X and replaces res.X/res.F only when the
// refined point lies inside the box and is strictly better.
func (s *solver) polish(res *Result) {
	upper := make([]float64, s.dims())
	for i := range upper {
		upper[i] = s.lower[i] + s.width[i]
	}
	inside := func(x []float64) bool {
		for i, v := range x {
			if v < s.lower[i] || v > upper[i] {
				return false
			}
		}
		return true
	}

	evaluations := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			evaluations++
			if !inside(x) {
				return math.Inf(1)
			}
			e := s.fn(x)
			if math.IsNaN(e) {
				return math.Inf(1)
			}
			return e
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: polishEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-16,
			Relative:   1e-12,
			Iterations: 50,
		},
	}

	x0 := append([]float64(nil), res.X...)
	out, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	res.Evaluations += evaluations
	if err != nil {
		diagf("polish from f=%.3g stopped: %v", res.F, err)
	}
	if out == nil || !inside(out.X) || !(out.F < res.F) {
		return
	}
	res.X = append([]float64(nil), out.X...)
	res.F = out.F
	res.Polished = true
}
