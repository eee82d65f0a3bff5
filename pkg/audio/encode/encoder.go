// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for writing rendered float samples to files
package encode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sendspin/filterplay/pkg/audio"
)

// ErrUnsupportedFormat is returned for unknown extensions or bit depths
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Encoder writes interleaved float samples
type Encoder interface {
	// Encode appends samples; len(samples) should be a whole number of frames
	Encode(samples []float32) error

	// Close flushes headers and releases the underlying file
	Close() error
}

// Create opens path for writing and picks the container by extension:
// .wav, .aif/.aiff or .pcm/.raw (headerless little-endian)
func Create(path string, format audio.Format) (Encoder, error) {
	if format.BitDepth == 0 {
		format.BitDepth = 16
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz %d channels", ErrUnsupportedFormat, format.SampleRate, format.Channels)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".aif", ".aiff", ".pcm", ".raw":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	var enc Encoder
	switch ext {
	case ".wav":
		enc, err = NewWAV(f, format)
	case ".aif", ".aiff":
		enc, err = NewAIFF(f, format)
	default:
		enc, err = NewPCM(f, format)
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return enc, nil
}
