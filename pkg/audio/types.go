// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, planar float buffers and sample conversions
package audio

import (
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Duration returns the playback time of the given number of frames
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Buffer is one block of decoded PCM handed to the tap.
// Samples holds one slice per channel; only the first Frames entries are valid.
type Buffer struct {
	Position      time.Duration // stream position of the first frame
	Format        Format
	Frames        int
	Samples       [][]float32
	Discontinuity bool // first buffer after the stream (re)started
}

// TapFunc processes a buffer in place on the render path
type TapFunc func(buf *Buffer)

// NewBuffer allocates a planar buffer with room for frames per channel
func NewBuffer(format Format, frames int) *Buffer {
	samples := make([][]float32, format.Channels)
	backing := make([]float32, format.Channels*frames)
	for ch := range samples {
		samples[ch] = backing[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}
	return &Buffer{
		Format:  format,
		Frames:  frames,
		Samples: samples,
	}
}

// Capacity returns the number of frames each channel can hold
func (b *Buffer) Capacity() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return cap(b.Samples[0])
}

// Reset zeroes all samples and clears per-block metadata
func (b *Buffer) Reset() {
	for _, ch := range b.Samples {
		clear(ch[:cap(ch)])
	}
	b.Position = 0
	b.Discontinuity = false
}

// Deinterleave copies interleaved samples into the planar channels and sets
// Frames to the number of whole frames copied.
func (b *Buffer) Deinterleave(src []float32) int {
	channels := len(b.Samples)
	if channels == 0 {
		b.Frames = 0
		return 0
	}

	frames := len(src) / channels
	if c := b.Capacity(); frames > c {
		frames = c
	}

	for ch := 0; ch < channels; ch++ {
		dst := b.Samples[ch][:frames]
		for i := range dst {
			dst[i] = src[i*channels+ch]
		}
	}

	b.Frames = frames
	return frames
}

// InterleaveFrom writes frames starting at offset into dst and returns the
// number of frames written.
func (b *Buffer) InterleaveFrom(offset int, dst []float32) int {
	channels := len(b.Samples)
	if channels == 0 || offset >= b.Frames {
		return 0
	}

	frames := len(dst) / channels
	if remaining := b.Frames - offset; frames > remaining {
		frames = remaining
	}

	for ch := 0; ch < channels; ch++ {
		src := b.Samples[ch][offset : offset+frames]
		for i, s := range src {
			dst[i*channels+ch] = s
		}
	}

	return frames
}

// SampleFromInt16 converts a 16-bit sample to float in [-1, 1)
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768.0
}

// SampleToInt16 converts a float sample to 16-bit, clipping out-of-range values
func SampleToInt16(sample float32) int16 {
	v := math.Round(float64(sample) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// SampleFromInt converts an integer sample of the given bit depth to float
func SampleFromInt(sample int, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	return float32(float64(sample) / float64(int64(1)<<(bitDepth-1)))
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleToInt converts a float sample to an integer of the given bit depth,
// clipping out-of-range values
func SampleToInt(sample float32, bitDepth int) int {
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	hi, lo := scale-1, -scale

	v := math.Round(float64(sample) * scale)
	if v > hi {
		return int(hi)
	}
	if v < lo {
		return int(lo)
	}
	return int(v)
}

// SampleTo24Bit packs a 24-bit sample into little-endian bytes
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}
