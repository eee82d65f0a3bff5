// ABOUTME: Test tone generator source
// ABOUTME: Produces a sine wave when no asset is given
package decode

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/Sendspin/filterplay/pkg/audio"
)

// ToneConfig holds test tone configuration
type ToneConfig struct {
	// Frequency in Hz (default: 440)
	Frequency float64

	// SampleRate in Hz (default: 48000)
	SampleRate int

	// Channels (default: 2)
	Channels int

	// Amplitude is the peak level (default: 0.5)
	Amplitude float64

	// Duration limits the tone; zero plays forever
	Duration time.Duration
}

// Tone generates a sine wave on every channel
type Tone struct {
	config ToneConfig
	step   float64
	frame  uint64
	limit  uint64
}

// NewTone creates a tone source with the given configuration
func NewTone(config ToneConfig) *Tone {
	if config.Frequency <= 0 || math.IsNaN(config.Frequency) {
		config.Frequency = 440
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 48000
	}
	if config.Channels <= 0 {
		config.Channels = 2
	}
	if config.Amplitude == 0 {
		config.Amplitude = 0.5
	}

	var limit uint64
	if config.Duration > 0 {
		limit = uint64(config.Duration.Seconds() * float64(config.SampleRate))
	}

	return &Tone{
		config: config,
		step:   2 * math.Pi * config.Frequency / float64(config.SampleRate),
		limit:  limit,
	}
}

// Format returns the tone's format
func (t *Tone) Format() audio.Format {
	return audio.Format{
		Codec:      "tone",
		SampleRate: t.config.SampleRate,
		Channels:   t.config.Channels,
		BitDepth:   32,
	}
}

// ReadSamples generates whole frames into dst
func (t *Tone) ReadSamples(dst []float32) (int, error) {
	channels := t.config.Channels
	frames := len(dst) / channels

	if t.limit > 0 {
		remaining := t.limit - t.frame
		if remaining == 0 {
			return 0, io.EOF
		}
		if uint64(frames) > remaining {
			frames = int(remaining)
		}
	}

	for i := 0; i < frames; i++ {
		v := float32(t.config.Amplitude * math.Sin(t.step*float64(t.frame)))
		for ch := 0; ch < channels; ch++ {
			dst[i*channels+ch] = v
		}
		t.frame++
	}

	return frames * channels, nil
}

// Rewind restarts the tone at phase zero
func (t *Tone) Rewind() error {
	t.frame = 0
	return nil
}

// Metadata describes the tone
func (t *Tone) Metadata() Metadata {
	m := Metadata{
		Title:  fmt.Sprintf("Test Tone %.0f Hz", t.config.Frequency),
		Artist: "filterplay",
	}
	if t.limit > 0 {
		m.Duration = t.config.Duration
	}
	return m
}

// Close is a no-op
func (t *Tone) Close() error { return nil }
