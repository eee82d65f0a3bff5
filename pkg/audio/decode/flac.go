// ABOUTME: FLAC source backed by mewkiz/flac
// ABOUTME: Parses frames on demand and carries partial frames across reads
package decode

import (
	"fmt"
	"io"
	"time"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// flacStream is the part of flac.Stream the source uses
type flacStream interface {
	ParseNext() (*frame.Frame, error)
}

type flacSource struct {
	rs     io.ReadSeekCloser
	stream flacStream
	format audio.Format
	meta   Metadata

	pending *frame.Frame
	offset  int
}

func newFLAC(rs io.ReadSeekCloser, title string) (*flacSource, error) {
	stream, err := flac.New(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	s := &flacSource{
		rs:     rs,
		stream: stream,
		format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   int(info.NChannels),
			BitDepth:   int(info.BitsPerSample),
		},
		meta: Metadata{Title: title},
	}
	if info.SampleRate > 0 && info.NSamples > 0 {
		s.meta.Duration = time.Duration(info.NSamples) * time.Second / time.Duration(info.SampleRate)
	}
	return s, nil
}

func (s *flacSource) Format() audio.Format { return s.format }
func (s *flacSource) Metadata() Metadata   { return s.meta }

func (s *flacSource) ReadSamples(dst []float32) (int, error) {
	channels := s.format.Channels
	if channels <= 0 {
		return 0, fmt.Errorf("flac: %w", ErrUnsupportedFormat)
	}

	n := 0
	for n+channels <= len(dst) {
		if s.pending == nil || s.offset >= int(s.pending.BlockSize) {
			f, err := s.stream.ParseNext()
			if err != nil {
				s.pending = nil
				if err == io.EOF {
					if n > 0 {
						return n, nil
					}
					return 0, io.EOF
				}
				return n, fmt.Errorf("flac decode error: %w", err)
			}
			s.pending = f
			s.offset = 0
			continue
		}

		for ch := 0; ch < channels; ch++ {
			dst[n] = s.sample(ch)
			n++
		}
		s.offset++
	}

	return n, nil
}

func (s *flacSource) sample(ch int) float32 {
	if ch >= len(s.pending.Subframes) {
		return 0
	}
	sub := s.pending.Subframes[ch]
	if sub == nil || s.offset >= len(sub.Samples) {
		return 0
	}
	return audio.SampleFromInt(int(sub.Samples[s.offset]), s.format.BitDepth)
}

func (s *flacSource) Rewind() error {
	if err := rewind(s.rs); err != nil {
		return err
	}

	stream, err := flac.New(s.rs)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	s.pending = nil
	s.offset = 0
	return nil
}

func (s *flacSource) Close() error {
	if s.rs != nil {
		return s.rs.Close()
	}
	return nil
}
