// ABOUTME: MP3 source backed by go-mp3
// ABOUTME: Decodes local files and progressive HTTP streams to float samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// mp3Reader is the part of mp3.Decoder the source uses
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type mp3Source struct {
	rs     io.ReadSeekCloser // nil for progressive streams
	body   io.Closer
	dec    mp3Reader
	format audio.Format
	meta   Metadata
	buf    []byte
}

func newMP3(rs io.ReadSeekCloser, title string) (*mp3Source, error) {
	dec, err := mp3.NewDecoder(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	s := newMP3Source(dec, title)
	s.rs = rs
	s.body = rs
	if dec.SampleRate() > 0 {
		// Length is in bytes of 16-bit stereo output
		frames := dec.Length() / 4
		s.meta.Duration = time.Duration(frames) * time.Second / time.Duration(dec.SampleRate())
	}
	return s, nil
}

func newMP3Stream(body io.ReadCloser, title string) (*mp3Source, error) {
	dec, err := mp3.NewDecoder(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3 stream: %w", err)
	}

	s := newMP3Source(dec, title)
	s.body = body
	return s, nil
}

func newMP3Source(dec mp3Reader, title string) *mp3Source {
	return &mp3Source{
		dec: dec,
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: dec.SampleRate(),
			Channels:   2, // go-mp3 always outputs stereo
			BitDepth:   16,
		},
		meta: Metadata{Title: title},
		buf:  make([]byte, 8192),
	}
}

func (s *mp3Source) Format() audio.Format { return s.format }
func (s *mp3Source) Metadata() Metadata   { return s.meta }

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf)
	samples := n / 2
	for i := 0; i < samples; i++ {
		dst[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(s.buf[i*2:])))
	}

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("mp3 decode error: %w", err)
	}
	return samples, err
}

func (s *mp3Source) Rewind() error {
	if err := rewind(s.rs); err != nil {
		return err
	}

	dec, err := mp3.NewDecoder(s.rs)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.dec = dec
	return nil
}

func (s *mp3Source) Close() error {
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
