package scoring

import "math"

// ToleranceScore grades a measured angle against a target. Deviations within
// tolerance score exactly 1. Beyond it the score falls off as
// exp(-k*((dev-tol)/tol)^2) and never drops below floor. A non-positive
// tolerance accepts only an exact match.
func ToleranceScore(measured, target, tolerance, k, floor float64) float64 {
	if math.IsNaN(measured) || math.IsInf(measured, 0) {
		return floor
	}

	dev := math.Abs(measured - target)
	if tolerance <= 0 {
		if dev == 0 {
			return 1.0
		}
		return floor
	}
	if dev <= tolerance {
		return 1.0
	}

	excess := (dev - tolerance) / tolerance
	return math.Max(floor, math.Exp(-k*excess*excess))
}
