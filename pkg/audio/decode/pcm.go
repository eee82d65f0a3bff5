// ABOUTME: Uncompressed PCM sources for WAV and AIFF containers
// ABOUTME: Both use go-audio decoders that fill an IntBuffer
package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Sendspin/filterplay/pkg/audio"
)

// pcmReader is the part of the go-audio decoders the source uses
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// pcmOpener parses the container header and returns a reader positioned at
// the sample data along with its bit depth
type pcmOpener func(rs io.ReadSeeker) (pcmReader, int, error)

type pcmSource struct {
	rs     io.ReadSeekCloser
	open   pcmOpener
	dec    pcmReader
	format audio.Format
	meta   Metadata
	intBuf *goaudio.IntBuffer
}

func newWAV(rs io.ReadSeekCloser, title string) (*pcmSource, error) {
	return newPCMSource(rs, "wav", title, openWAV)
}

func newAIFF(rs io.ReadSeekCloser, title string) (*pcmSource, error) {
	return newPCMSource(rs, "aiff", title, openAIFF)
}

func openWAV(rs io.ReadSeeker) (pcmReader, int, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a WAV file: %w", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != 1 {
		return nil, 0, fmt.Errorf("WAV encoding %d: %w", dec.WavAudioFormat, ErrUnsupportedFormat)
	}
	return dec, int(dec.BitDepth), nil
}

func openAIFF(rs io.ReadSeeker) (pcmReader, int, error) {
	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not an AIFF file: %w", ErrUnsupportedFormat)
	}
	dec.ReadInfo()
	return dec, int(dec.BitDepth), nil
}

func newPCMSource(rs io.ReadSeekCloser, codec, title string, open pcmOpener) (*pcmSource, error) {
	dec, bitDepth, err := open(rs)
	if err != nil {
		return nil, err
	}

	f := dec.Format()
	if f == nil || f.NumChannels <= 0 || f.SampleRate <= 0 {
		return nil, fmt.Errorf("%s header: %w", codec, ErrUnsupportedFormat)
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%s bit depth %d: %w", codec, bitDepth, ErrUnsupportedFormat)
	}

	return &pcmSource{
		rs:   rs,
		open: open,
		dec:  dec,
		format: audio.Format{
			Codec:      codec,
			SampleRate: f.SampleRate,
			Channels:   f.NumChannels,
			BitDepth:   bitDepth,
		},
		meta: Metadata{Title: title},
	}, nil
}

func (s *pcmSource) Format() audio.Format { return s.format }
func (s *pcmSource) Metadata() Metadata   { return s.meta }

func (s *pcmSource) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.format.Channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("%s decode error: %w", s.format.Codec, err)
		}
		return 0, io.EOF
	}

	bitDepth := s.format.BitDepth
	for i := 0; i < n; i++ {
		v := s.intBuf.Data[i]
		if bitDepth == 8 && s.format.Codec == "wav" {
			// 8-bit WAV is unsigned
			v -= 128
		}
		dst[i] = audio.SampleFromInt(v, bitDepth)
	}

	return n, nil
}

func (s *pcmSource) Rewind() error {
	if err := rewind(s.rs); err != nil {
		return err
	}

	dec, _, err := s.open(s.rs)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", s.format.Codec, err)
	}
	s.dec = dec
	if s.intBuf != nil {
		s.intBuf.Format = dec.Format()
	}
	return nil
}

func (s *pcmSource) Close() error {
	if s.rs != nil {
		return s.rs.Close()
	}
	return nil
}
