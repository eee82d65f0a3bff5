//go:build !noopus

// ABOUTME: Ogg Opus source backed by libopusfile via hraban/opus
// ABOUTME: Build with -tags noopus to drop the cgo dependency
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/filterplay/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// opusRate is the fixed output rate of libopusfile
const opusRate = 48000

type opusSource struct {
	rs     io.ReadSeekCloser
	stream *opus.Stream
	format audio.Format
	meta   Metadata
}

func newOpus(rs io.ReadSeekCloser, title string) (Source, error) {
	channels, err := opusHeadChannels(rs)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}

	return &opusSource{
		rs:     rs,
		stream: stream,
		format: audio.Format{
			Codec:      "opus",
			SampleRate: opusRate,
			Channels:   channels,
			BitDepth:   32,
		},
		meta: Metadata{Title: title},
	}, nil
}

func (s *opusSource) Format() audio.Format { return s.format }
func (s *opusSource) Metadata() Metadata   { return s.meta }

func (s *opusSource) ReadSamples(dst []float32) (int, error) {
	channels := s.format.Channels
	frames := len(dst) / channels
	if frames == 0 {
		return 0, nil
	}

	// ReadFloat32 returns samples per channel
	n, err := s.stream.ReadFloat32(dst[:frames*channels])
	if err != nil && err != io.EOF {
		return n * channels, fmt.Errorf("opus decode failed: %w", err)
	}
	return n * channels, err
}

func (s *opusSource) Rewind() error {
	s.stream.Close()
	if err := rewind(s.rs); err != nil {
		return err
	}

	stream, err := opus.NewStream(s.rs)
	if err != nil {
		return fmt.Errorf("failed to create opus stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *opusSource) Close() error {
	s.stream.Close()
	return s.rs.Close()
}
