// ABOUTME: Raw PCM audio encoder
// ABOUTME: Writes float samples as 16-bit or 24-bit little-endian bytes
package encode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sendspin/filterplay/pkg/audio"
)

// PCMEncoder writes headerless PCM
type PCMEncoder struct {
	w        io.Writer
	bitDepth int
	buf      []byte
}

// NewPCM creates a PCM encoder writing to w. If w is an io.Closer it is
// closed by Close.
func NewPCM(w io.Writer, format audio.Format) (*PCMEncoder, error) {
	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("%w: bit depth %d (supported: 16, 24)", ErrUnsupportedFormat, format.BitDepth)
	}

	return &PCMEncoder{
		w:        w,
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts samples and writes them
func (e *PCMEncoder) Encode(samples []float32) error {
	size := len(samples) * e.bitDepth / 8
	if cap(e.buf) < size {
		e.buf = make([]byte, size)
	}
	out := e.buf[:size]

	if e.bitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		for i, s := range samples {
			b := audio.SampleTo24Bit(int32(audio.SampleToInt(s, 24)))
			copy(out[i*3:i*3+3], b[:])
		}
	} else {
		// 16-bit PCM: 2 bytes per sample
		for i, s := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(s)))
		}
	}

	if _, err := e.w.Write(out); err != nil {
		return fmt.Errorf("failed to write pcm: %w", err)
	}
	return nil
}

// Close closes the writer when it is closable
func (e *PCMEncoder) Close() error {
	if c, ok := e.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
