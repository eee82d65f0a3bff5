// ABOUTME: Filter and gain parameters shared between control and render side
// ABOUTME: Defaults and clamping helpers for the published tuple
package tap

import (
	"math"

	"github.com/Sendspin/filterplay/pkg/biquad"
)

const (
	// DefaultCornerFrequency is the corner used until a control surface sets one
	DefaultCornerFrequency = 1000.0

	// MinCornerFrequency is the lowest corner a setter accepts
	MinCornerFrequency = biquad.MinFrequency

	// UnityGain leaves the signal level unchanged
	UnityGain = 1.0

	// MaxGain caps the linear gain multiplier (+12 dB)
	MaxGain = 4.0
)

// Params is the complete tuple read by the render side once per buffer
type Params struct {
	Enabled         bool    `json:"enabled"`
	CornerFrequency float64 `json:"frequency"`
	Gain            float64 `json:"gain"`
}

// DefaultParams returns the startup tuple: filter off, unity gain
func DefaultParams() Params {
	return Params{
		Enabled:         false,
		CornerFrequency: DefaultCornerFrequency,
		Gain:            UnityGain,
	}
}

// clampGain limits g to [0, MaxGain]; NaN keeps prev
func clampGain(g, prev float64) float64 {
	switch {
	case math.IsNaN(g):
		return prev
	case g < 0:
		return 0
	case g > MaxGain:
		return MaxGain
	}
	return g
}

// clampCorner limits f for sampleRate; NaN keeps prev
func clampCorner(f, prev, sampleRate float64) float64 {
	if math.IsNaN(f) {
		return prev
	}
	return biquad.ClampFrequency(f, sampleRate)
}
