// ABOUTME: Second-order IIR filter package
// ABOUTME: Coefficient design, per-channel state and response helpers
// Package biquad implements a single second-order IIR section.
//
// Design maps (sample rate, corner frequency, type) to normalized
// coefficients through algo-dsp's RBJ designs with a fixed Butterworth Q.
// Out-of-range inputs return Identity, so a design call never fails.
// Coefficients is algo-dsp's type, so its Response and MagnitudeDB methods
// are available for display.
//
// State holds the Direct Form I memory of one channel. ProcessBuffer runs the
// recursion over a block in place without allocating, and Crossfade blends
// the outputs of the previous and new coefficient sets over the start of a
// block after a parameter change.
//
// Example:
//
//	c := biquad.Lowpass(44100, 1000)
//	var st biquad.State
//	biquad.ProcessBuffer(&st, c, samples)
package biquad
