// ABOUTME: WAV and AIFF encoders built on go-audio
// ABOUTME: Converts float samples to integer buffers for the container writers
package encode

import (
	"fmt"
	"io"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// intWriter is satisfied by both wav.Encoder and aiff.Encoder
type intWriter interface {
	Write(buf *goaudio.IntBuffer) error
	Close() error
}

// ContainerEncoder writes a WAV or AIFF file
type ContainerEncoder struct {
	enc      intWriter
	file     io.Closer
	bitDepth int
	unsigned bool // 8-bit WAV samples are offset by 128
	buf      *goaudio.IntBuffer
}

// NewWAV creates an integer PCM WAV encoder writing to ws
func NewWAV(ws io.WriteSeeker, format audio.Format) (*ContainerEncoder, error) {
	if err := checkDepth(format.BitDepth); err != nil {
		return nil, err
	}
	// audio format 1 is integer PCM
	enc := wav.NewEncoder(ws, format.SampleRate, format.BitDepth, format.Channels, 1)
	c := newContainer(enc, ws, format)
	c.unsigned = format.BitDepth == 8
	return c, nil
}

// NewAIFF creates an AIFF encoder writing to ws
func NewAIFF(ws io.WriteSeeker, format audio.Format) (*ContainerEncoder, error) {
	if err := checkDepth(format.BitDepth); err != nil {
		return nil, err
	}
	enc := aiff.NewEncoder(ws, format.SampleRate, format.BitDepth, format.Channels)
	return newContainer(enc, ws, format), nil
}

func checkDepth(bitDepth int) error {
	switch bitDepth {
	case 8, 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
}

func newContainer(enc intWriter, w io.Writer, format audio.Format) *ContainerEncoder {
	c := &ContainerEncoder{
		enc:      enc,
		bitDepth: format.BitDepth,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: format.BitDepth,
		},
	}
	if closer, ok := w.(io.Closer); ok {
		c.file = closer
	}
	return c
}

// Encode converts samples and appends them to the file
func (c *ContainerEncoder) Encode(samples []float32) error {
	if cap(c.buf.Data) < len(samples) {
		c.buf.Data = make([]int, len(samples))
	}
	c.buf.Data = c.buf.Data[:len(samples)]

	for i, s := range samples {
		c.buf.Data[i] = audio.SampleToInt(s, c.bitDepth)
	}
	if c.unsigned {
		for i := range c.buf.Data {
			c.buf.Data[i] += 128
		}
	}

	if err := c.enc.Write(c.buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// Close finalizes the header and closes the file
func (c *ContainerEncoder) Close() error {
	err := c.enc.Close()
	if c.file != nil {
		if cerr := c.file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to finalize file: %w", err)
	}
	return nil
}
