// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, planar Buffer and sample conversion functions
// Package audio provides the audio types shared by the decoders, the playback
// pipeline and the filter tap.
//
// This package defines:
//   - Format: Describes a PCM stream (codec, sample rate, channels, bit depth)
//   - Buffer: One planar block of float32 samples with its stream position
//   - TapFunc: The per-buffer callback a host pipeline invokes on its render path
//
// Samples are float32, nominally in [-1.0, 1.0]. Values outside that range are
// allowed inside the pipeline; clipping happens only when converting to an
// integer output format.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "wav",
//	    SampleRate: 44100,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	buf := audio.NewBuffer(format, 512)
//	buf.Deinterleave(interleaved)
package audio
