//go:build headless

// ABOUTME: Oto stub for builds without an audio device
// ABOUTME: Selected with -tags headless, e.g. in CI containers
package output

import (
	"errors"
	"time"
)

// Oto is unavailable in headless builds
type Oto struct{}

// NewOto returns a stub that fails to open
func NewOto(bufferSize time.Duration) *Oto {
	return &Oto{}
}

// Open always fails
func (o *Oto) Open(sampleRate, channels int, r Renderer) error {
	return errors.New("audio output not available in headless build")
}

// Close is a no-op
func (o *Oto) Close() error { return nil }
