// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the pull-model Output interface with Oto and headless backends
// Package output provides audio playback backends.
//
// Backends pull audio: the device thread calls Renderer.Render with a
// buffer of interleaved float32 samples to fill. Oto plays through the
// system device; Null renders on a ticker and discards the result.
//
// Example:
//
//	out := output.NewOto(50 * time.Millisecond)
//	err := out.Open(48000, 2, pipeline)
//	defer out.Close()
package output
