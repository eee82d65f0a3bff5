// ABOUTME: Unit tests for the file encoders
// ABOUTME: Tests PCM byte layout and WAV/AIFF round trips through the decoders
package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/Sendspin/filterplay/pkg/audio/decode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSamples = []float32{0, 0.5, -0.5, 0.25, -0.25, 0.999}

func stereo(bitDepth int) audio.Format {
	return audio.Format{SampleRate: 44100, Channels: 2, BitDepth: bitDepth}
}

func TestNewPCMBitDepth(t *testing.T) {
	tests := []struct {
		name    string
		depth   int
		wantErr bool
	}{
		{"16-bit", 16, false},
		{"24-bit", 24, false},
		{"8-bit", 8, true},
		{"32-bit", 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPCM(io.Discard, stereo(tt.depth))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPCMEncode16Bit(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewPCM(&buf, stereo(16))
	require.NoError(t, err)

	require.NoError(t, enc.Encode([]float32{0, 0.5, -0.5, 2}))
	require.NoError(t, enc.Close())

	out := buf.Bytes()
	require.Len(t, out, 8)

	want := []int16{0, 16384, -16384, 32767}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		assert.Equal(t, w, got, "sample %d", i)
	}
}

func TestPCMEncode24Bit(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewPCM(&buf, stereo(24))
	require.NoError(t, err)

	require.NoError(t, enc.Encode([]float32{0.5, -1}))

	out := buf.Bytes()
	require.Len(t, out, 6)
	assert.Equal(t, int32(4194304), audio.SampleFrom24Bit([3]byte{out[0], out[1], out[2]}))
	assert.Equal(t, int32(audio.Min24Bit), audio.SampleFrom24Bit([3]byte{out[3], out[4], out[5]}))
}

func TestPCMEncodeReusesBuffer(t *testing.T) {
	enc, err := NewPCM(io.Discard, stereo(16))
	require.NoError(t, err)

	samples := make([]float32, 256)
	require.NoError(t, enc.Encode(samples))

	allocs := testing.AllocsPerRun(10, func() {
		enc.Encode(samples)
	})
	assert.Zero(t, allocs)
}

func TestCreateRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp3")

	_, err := Create(path, stereo(16))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no file should be created")
}

func TestCreateRejectsInvalidFormat(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "out.wav"), audio.Format{Channels: 2})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCreateRemovesFileOnBadDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	_, err := Create(path, stereo(12))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func roundTrip(t *testing.T, name string, format audio.Format) []float32 {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	enc, err := Create(path, format)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(testSamples))
	require.NoError(t, enc.Close())

	src, err := decode.Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, format.SampleRate, src.Format().SampleRate)
	assert.Equal(t, format.Channels, src.Format().Channels)

	out := make([]float32, 64)
	n, err := src.ReadSamples(out)
	require.NoError(t, err)
	return out[:n]
}

func TestWAVRoundTrip(t *testing.T) {
	got := roundTrip(t, "out.wav", stereo(16))

	require.Len(t, got, len(testSamples))
	for i, want := range testSamples {
		assert.InDelta(t, want, got[i], 1.0/32768, "sample %d", i)
	}
}

func TestWAVRoundTrip24Bit(t *testing.T) {
	got := roundTrip(t, "out.wav", stereo(24))

	require.Len(t, got, len(testSamples))
	for i, want := range testSamples {
		assert.InDelta(t, want, got[i], 1.0/8388608, "sample %d", i)
	}
}

func TestAIFFRoundTrip(t *testing.T) {
	format := audio.Format{SampleRate: 22050, Channels: 1, BitDepth: 16}
	got := roundTrip(t, "out.aiff", format)

	require.Len(t, got, len(testSamples))
	for i, want := range testSamples {
		assert.InDelta(t, want, got[i], 1.0/32768, "sample %d", i)
	}
}
