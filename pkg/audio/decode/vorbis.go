// ABOUTME: Ogg Vorbis source backed by jfreymuth/oggvorbis
// ABOUTME: The decoder already produces interleaved float samples
package decode

import (
	"fmt"
	"io"
	"time"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// vorbisReader is the part of oggvorbis.Reader the source uses
type vorbisReader interface {
	Read([]float32) (int, error)
	SetPosition(pos int64) error
}

type vorbisSource struct {
	rs     io.ReadSeekCloser
	dec    vorbisReader
	format audio.Format
	meta   Metadata
}

func newVorbis(rs io.ReadSeekCloser, title string) (*vorbisSource, error) {
	dec, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Ogg Vorbis: %w", err)
	}

	s := &vorbisSource{
		rs:  rs,
		dec: dec,
		format: audio.Format{
			Codec:      "vorbis",
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
			BitDepth:   32,
		},
		meta: Metadata{Title: title},
	}
	if n := dec.Length(); n > 0 && dec.SampleRate() > 0 {
		s.meta.Duration = time.Duration(n) * time.Second / time.Duration(dec.SampleRate())
	}
	return s, nil
}

func (s *vorbisSource) Format() audio.Format { return s.format }
func (s *vorbisSource) Metadata() Metadata   { return s.meta }

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	channels := s.format.Channels
	if channels <= 0 {
		return 0, fmt.Errorf("vorbis: %w", ErrUnsupportedFormat)
	}

	// Read returns the number of values, always whole frames
	n, err := s.dec.Read(dst[:len(dst)-len(dst)%channels])
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("vorbis decode error: %w", err)
	}
	return n, err
}

func (s *vorbisSource) Rewind() error {
	if err := s.dec.SetPosition(0); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	return nil
}

func (s *vorbisSource) Close() error {
	if s.rs != nil {
		return s.rs.Close()
	}
	return nil
}
