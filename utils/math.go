// Package utils contains small shared helpers with no domain knowledge.
package utils

import (
	"math"
	"strconv"
	"strings"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// DegreesToRadians converts a slice of degree values to radians.
func DegreesToRadians(degrees []float64) []float64 {
	radians := make([]float64, len(degrees))
	for i, d := range degrees {
		radians[i] = DegToRad(d)
	}
	return radians
}

// RadiansToDegrees converts a slice of radian values to degrees.
func RadiansToDegrees(radians []float64) []float64 {
	degrees := make([]float64, len(radians))
	for i, r := range radians {
		degrees[i] = RadToDeg(r)
	}
	return degrees
}

// NormalizeAngle wraps an angle in radians into the interval (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped <= 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// Clamp returns value clamped into [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Float64AlmostEqual returns whether a and b are within epsilon of each other.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// SpaceDelimitedFloats parses a whitespace-separated list of floats, as used
// by URDF xyz/rpy attributes. Unparseable fields are skipped.
func SpaceDelimitedFloats(s string) []float64 {
	fields := strings.Fields(s)
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}
