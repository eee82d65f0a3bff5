// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts interleaved float audio to the output device rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation between neighbouring frames. The resampler keeps
// the final frame of each chunk, so a stream fed in arbitrary chunk sizes
// produces the same output as one fed in a single call.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := make([]float32, r.OutputSamplesNeeded(len(in)))
//	n := r.Resample(in, out)
package resample
