// ABOUTME: Biquad coefficient calculator
// ABOUTME: RBJ low-pass/high-pass sections from algo-dsp with a fixed Butterworth Q
package biquad

import (
	"fmt"
	"math"
	"strings"

	dspbiquad "github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Q is the quality factor of every designed section (Butterworth, maximally flat)
const Q = 1 / math.Sqrt2

const (
	// MinFrequency is the lowest corner frequency ClampFrequency returns
	MinFrequency = 10.0

	// MaxNyquistFraction bounds the corner frequency below Nyquist
	MaxNyquistFraction = 0.99
)

// Type selects the response of a designed section
type Type int

const (
	LowPass Type = iota
	HighPass
)

func (t Type) String() string {
	switch t {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType parses "lowpass"/"lp" or "highpass"/"hp"
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lowpass", "lp", "low":
		return LowPass, nil
	case "highpass", "hp", "high":
		return HighPass, nil
	default:
		return LowPass, fmt.Errorf("unknown filter type: %q", s)
	}
}

// Coefficients of one second-order section, normalized so a0 = 1:
//
//	y[n] = B0*x[n] + B1*x[n-1] + B2*x[n-2] - A1*y[n-1] - A2*y[n-2]
type Coefficients = dspbiquad.Coefficients

// Identity passes samples through unchanged
var Identity = Coefficients{B0: 1}

// Design computes the coefficients for a section with corner frequency
// cornerHz at sampleRate. Inputs outside 0 < cornerHz < sampleRate/2 yield
// Identity instead of an error so the result is always safe to run.
func Design(sampleRate, cornerHz float64, t Type) Coefficients {
	if !InRange(sampleRate, cornerHz) {
		return Identity
	}

	var c Coefficients
	switch t {
	case HighPass:
		c = design.Highpass(cornerHz, Q, sampleRate)
	default:
		c = design.Lowpass(cornerHz, Q, sampleRate)
	}

	if c == (Coefficients{}) || !finite(c) {
		return Identity
	}
	return c
}

// Lowpass designs the default low-pass section
func Lowpass(sampleRate, cornerHz float64) Coefficients {
	return Design(sampleRate, cornerHz, LowPass)
}

// InRange reports whether cornerHz is strictly between 0 and Nyquist
func InRange(sampleRate, cornerHz float64) bool {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return false
	}
	if math.IsNaN(cornerHz) || math.IsInf(cornerHz, 0) {
		return false
	}
	return cornerHz > 0 && cornerHz < sampleRate/2
}

// ClampFrequency limits cornerHz to [MinFrequency, MaxNyquistFraction*Nyquist].
// NaN maps to the upper bound. A non-positive or non-finite sampleRate leaves
// cornerHz untouched.
func ClampFrequency(cornerHz, sampleRate float64) float64 {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return cornerHz
	}

	hi := sampleRate / 2 * MaxNyquistFraction
	lo := MinFrequency
	if lo > hi {
		lo = hi / 2
	}

	switch {
	case math.IsNaN(cornerHz):
		return hi
	case cornerHz < lo:
		return lo
	case cornerHz > hi:
		return hi
	}
	return cornerHz
}
