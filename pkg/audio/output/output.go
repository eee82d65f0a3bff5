// ABOUTME: Audio output interface definition
// ABOUTME: Pull-model backends that ask a Renderer for each device buffer
package output

import "errors"

// ErrAlreadyOpen is returned when Open is called twice without Close
var ErrAlreadyOpen = errors.New("output already open")

// Renderer fills interleaved float samples for the device. Render runs on
// the device thread and must not block.
type Renderer interface {
	Render(dst []float32)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(dst []float32)

// Render calls f(dst)
func (f RendererFunc) Render(dst []float32) { f(dst) }

// Output represents an audio output device
type Output interface {
	// Open starts pulling audio from r at the given format
	Open(sampleRate, channels int, r Renderer) error

	// Close stops playback and releases output resources
	Close() error
}
