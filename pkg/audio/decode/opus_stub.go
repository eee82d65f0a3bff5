//go:build noopus

// ABOUTME: Opus stub when built without libopusfile
// ABOUTME: Reports .opus assets as unsupported
package decode

import (
	"fmt"
	"io"
)

func newOpus(rs io.ReadSeekCloser, title string) (Source, error) {
	return nil, fmt.Errorf("opus support not compiled in: %w", ErrUnsupportedFormat)
}
