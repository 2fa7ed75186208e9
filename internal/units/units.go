// Package units provides shared constants and conversion for angle units
package units

import "math"

// Unit constants
const (
	Radians = "rad"
	Degrees = "deg"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Radians, Degrees}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "rad, deg"
}

// ToRadians converts an angle in the given units to radians.
// Unknown units are treated as radians.
func ToRadians(angle float64, fromUnits string) float64 {
	switch fromUnits {
	case Degrees:
		return angle * math.Pi / 180
	default:
		return angle
	}
}

// ConvertAngle converts an angle from radians to the target units.
// All internal computation is in radians.
func ConvertAngle(angleRad float64, targetUnits string) float64 {
	switch targetUnits {
	case Degrees:
		return angleRad * 180 / math.Pi
	default:
		return angleRad
	}
}
