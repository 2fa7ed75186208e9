package units

import (
	"math"
	"testing"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		angleRad float64
		units    string
		expected float64
	}{
		{"pi to deg", math.Pi, Degrees, 180},
		{"pi/4 to deg", math.Pi / 4, Degrees, 45},
		{"negative to deg", -math.Pi / 2, Degrees, -90},
		{"2pi to deg", 2 * math.Pi, Degrees, 360},
		{"pi to rad", math.Pi, Radians, math.Pi},
		{"unknown units default to rad", 1.5, "grad", 1.5},
		{"zero", 0, Degrees, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAngle(tt.angleRad, tt.units)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ConvertAngle(%f, %s) = %f, want %f", tt.angleRad, tt.units, result, tt.expected)
			}
		})
	}
}

func TestToRadians(t *testing.T) {
	tests := []struct {
		name     string
		angle    float64
		units    string
		expected float64
	}{
		{"180 deg", 180, Degrees, math.Pi},
		{"45 deg", 45, Degrees, math.Pi / 4},
		{"360 deg", 360, Degrees, 2 * math.Pi},
		{"rad passthrough", 0.3, Radians, 0.3},
		{"unknown passthrough", 0.3, "", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRadians(tt.angle, tt.units)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ToRadians(%f, %s) = %f, want %f", tt.angle, tt.units, result, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 15, 45, 90, 135, 180, 270, 360} {
		if got := ConvertAngle(ToRadians(deg, Degrees), Degrees); math.Abs(got-deg) > 1e-12 {
			t.Errorf("round trip of %v deg = %v", deg, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid rad", Radians, true},
		{"valid deg", Degrees, true},
		{"invalid unit", "grad", false},
		{"empty string", "", false},
		{"case sensitive", "DEG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "rad, deg"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}
