package sweep

import (
	"fmt"

	"github.com/banshee-data/charpar/internal/evolve"
	"github.com/banshee-data/charpar/internal/measurement"
)

// Configuration is one named bounds/strategy pair evaluated over the whole grid.
type Configuration struct {
	Name     string             `json:"name"`
	Bounds   measurement.Bounds `json:"bounds"`
	Strategy evolve.Strategy    `json:"strategy"`
}

// DefaultConfigurations returns the two bound regimes crossed with the two
// required strategies, in evaluation order.
func DefaultConfigurations() []Configuration {
	return []Configuration{
		{Name: "narrow-best1bin", Bounds: measurement.NarrowBounds(), Strategy: evolve.Best1Bin},
		{Name: "wide-best1bin", Bounds: measurement.WideBounds(), Strategy: evolve.Best1Bin},
		{Name: "narrow-rand1exp", Bounds: measurement.NarrowBounds(), Strategy: evolve.Rand1Exp},
		{Name: "wide-rand1exp", Bounds: measurement.WideBounds(), Strategy: evolve.Rand1Exp},
	}
}

// checkConfigurations rejects configuration lists the runner cannot report
// on unambiguously. Invalid bounds are not rejected here: they fail each
// estimation call individually.
func checkConfigurations(configs []Configuration) error {
	if len(configs) == 0 {
		return fmt.Errorf("no configurations to sweep")
	}
	seen := make(map[string]bool, len(configs))
	for i, c := range configs {
		if c.Name == "" {
			return fmt.Errorf("configuration %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate configuration name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
