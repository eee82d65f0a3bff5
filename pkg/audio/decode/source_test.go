// ABOUTME: Tests for asset opening and the PCM container sources
// ABOUTME: Writes real WAV/AIFF files with go-audio encoders and reads them back
package decode

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPCM = []int{0, 16384, -16384, 32767, 8192, -8192}

func writeWAV(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           testPCM,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func writeAIFF(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := aiff.NewEncoder(f, 22050, 16, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 22050},
		Data:           testPCM,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func readAll(t *testing.T, src Source) []float32 {
	t.Helper()
	var out []float32
	buf := make([]float32, 4)
	for i := 0; i < 100; i++ {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
	}
	t.Fatal("source never reached EOF")
	return nil
}

func expectedFloats() []float32 {
	out := make([]float32, len(testPCM))
	for i, v := range testPCM {
		out[i] = float32(v) / 32768
	}
	return out
}

func TestOpenWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path)

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	f := src.Format()
	assert.Equal(t, "wav", f.Codec)
	assert.Equal(t, 44100, f.SampleRate)
	assert.Equal(t, 2, f.Channels)
	assert.Equal(t, 16, f.BitDepth)
	assert.Equal(t, "stereo", src.Metadata().Title)

	assert.Equal(t, expectedFloats(), readAll(t, src))

	rw, ok := src.(Rewinder)
	require.True(t, ok)
	require.NoError(t, rw.Rewind())
	assert.Equal(t, expectedFloats(), readAll(t, src))
}

func TestOpenFileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	writeWAV(t, path)

	src, err := Open("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 2, src.Format().Channels)
}

func TestOpenAIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.aiff")
	writeAIFF(t, path)

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "aiff", src.Format().Codec)
	assert.Equal(t, 22050, src.Format().SampleRate)
	assert.Equal(t, 1, src.Format().Channels)
	assert.Equal(t, expectedFloats(), readAll(t, src))
}

func TestOpenMissingAsset(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.flac"))
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestOpenUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenHTTP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remote.wav")
	writeWAV(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/remote.wav" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	src, err := Open(srv.URL + "/remote.wav")
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, "remote", src.Metadata().Title)
	assert.Equal(t, expectedFloats(), readAll(t, src))

	_, err = Open(srv.URL + "/missing.wav")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestOpenTone(t *testing.T) {
	src, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, "tone", src.Format().Codec)

	src, err = Open("tone:1000")
	require.NoError(t, err)
	assert.Contains(t, src.Metadata().Title, "1000")

	_, err = Open("tone:abc")
	assert.Error(t, err)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "song", titleFrom("/music/album/song.flac"))
	assert.Equal(t, "stream", titleFrom("/live/stream.mp3"))
	assert.Equal(t, "noext", titleFrom("noext"))
}

func TestRewindWithoutSeeker(t *testing.T) {
	assert.ErrorIs(t, rewind(nil), ErrNotSeekable)
}
