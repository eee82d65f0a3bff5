// ABOUTME: Stability and DC checks for a biquad section
// ABOUTME: Magnitude and phase come from the algo-dsp Coefficients methods
package biquad

import "math"

// Stable reports whether both poles lie inside the unit circle
func Stable(c Coefficients) bool {
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

// DCGain returns H(1), the steady-state response to a constant input
func DCGain(c Coefficients) float64 {
	return (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2)
}

func finite(c Coefficients) bool {
	for _, v := range [...]float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
