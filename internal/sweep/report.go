package sweep

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/charpar/internal/measurement"
	"github.com/banshee-data/charpar/internal/mueller"
)

// Point is the estimation outcome for one grid point under one configuration.
type Point struct {
	Index     int                  `json:"index"`
	Truth     mueller.Parameters   `json:"truth"`
	Estimate  measurement.Estimate `json:"estimate"`
	Available bool                 `json:"available"`
	Err       error                `json:"-"`
	Error     string               `json:"error,omitempty"`
}

// ConfigurationResult holds one configuration's points in grid order.
type ConfigurationResult struct {
	Configuration Configuration `json:"configuration"`
	Points        []Point       `json:"points"`
	Failed        []int         `json:"failed,omitempty"` // grid indices without an estimate
	Duration      time.Duration `json:"duration"`
}

// Estimates returns the recovered parameters in grid order. Unavailable points
// are returned as a NaN triple so the sequence stays aligned with the truth.
func (c ConfigurationResult) Estimates() []mueller.Parameters {
	out := make([]mueller.Parameters, len(c.Points))
	for i, p := range c.Points {
		if !p.Available {
			nan := math.NaN()
			out[i] = mueller.Parameters{Delta: nan, Theta: nan, Omega: nan}
			continue
		}
		out[i] = p.Estimate.Parameters
	}
	return out
}

// Report is the output of a sweep: the ground truth and one result per
// configuration, all aligned by grid index.
type Report struct {
	Truth          []mueller.Parameters  `json:"truth"`
	IncidentAngles []float64             `json:"incident_angles"`
	Configurations []ConfigurationResult `json:"configurations"`
}

// TotalEstimates counts the estimation results over all configurations,
// including unavailable ones.
func (r *Report) TotalEstimates() int {
	n := 0
	for _, c := range r.Configurations {
		n += len(c.Points)
	}
	return n
}

// Configuration returns the result for the named configuration.
func (r *Report) Configuration(name string) (ConfigurationResult, bool) {
	for _, c := range r.Configurations {
		if c.Configuration.Name == name {
			return c, true
		}
	}
	return ConfigurationResult{}, false
}

// DefaultFitThreshold is the objective below which an estimate is counted as
// reproducing its observations.
const DefaultFitThreshold = 1e-6

// Summary condenses one configuration's results.
type Summary struct {
	Name            string  `json:"name"`
	Points          int     `json:"points"`
	Unavailable     int     `json:"unavailable"`
	Fitted          int     `json:"fitted"`           // objective below the fit threshold
	ExactMatches    int     `json:"exact_matches"`    // all three parameters within matchTolerance of the truth
	ObjectiveMean   float64 `json:"objective_mean"`   // over available points
	ObjectiveStddev float64 `json:"objective_stddev"` // sample standard deviation
	RetardanceMAE   float64 `json:"retardance_mae"`   // mean |R(δ̂) - R(δ)| with R folding into [0, π]
}

const matchTolerance = 1e-3

// FitRatio returns Fitted/Points, or 0 for an empty configuration.
func (s Summary) FitRatio() float64 {
	if s.Points == 0 {
		return 0
	}
	return float64(s.Fitted) / float64(s.Points)
}

// Summarize computes a Summary per configuration, in report order.
// A non-positive fitThreshold selects DefaultFitThreshold.
func Summarize(r *Report, fitThreshold float64) []Summary {
	if fitThreshold <= 0 {
		fitThreshold = DefaultFitThreshold
	}
	out := make([]Summary, 0, len(r.Configurations))
	for _, c := range r.Configurations {
		s := Summary{Name: c.Configuration.Name, Points: len(c.Points)}
		var objectives, retErrs []float64
		for _, p := range c.Points {
			if !p.Available {
				s.Unavailable++
				continue
			}
			est := p.Estimate
			objectives = append(objectives, est.Objective)
			retErrs = append(retErrs, math.Abs(mueller.ReduceRetardance(est.Parameters.Delta)-mueller.ReduceRetardance(p.Truth.Delta)))
			if est.Objective < fitThreshold {
				s.Fitted++
			}
			if matches(est.Parameters, p.Truth) {
				s.ExactMatches++
			}
		}
		switch len(objectives) {
		case 0:
		case 1:
			s.ObjectiveMean = objectives[0]
			s.RetardanceMAE = retErrs[0]
		default:
			s.ObjectiveMean, s.ObjectiveStddev = stat.MeanStdDev(objectives, nil)
			s.RetardanceMAE = stat.Mean(retErrs, nil)
		}
		out = append(out, s)
	}
	return out
}

func matches(a, b mueller.Parameters) bool {
	return math.Abs(a.Delta-b.Delta) < matchTolerance &&
		math.Abs(a.Theta-b.Theta) < matchTolerance &&
		math.Abs(a.Omega-b.Omega) < matchTolerance
}
