// ABOUTME: Asset source abstraction for files, HTTP URLs and test tones
// ABOUTME: Opens an asset URL and picks a decoder by extension
package decode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/sirupsen/logrus"
)

// Source provides interleaved float PCM from a decoded asset
type Source interface {
	// Format returns the native format of the asset
	Format() audio.Format

	// ReadSamples fills dst with interleaved samples and returns the number
	// written. It returns io.EOF once the asset is exhausted.
	ReadSamples(dst []float32) (int, error)

	// Metadata returns descriptive information about the asset
	Metadata() Metadata

	// Close releases the underlying file or connection
	Close() error
}

// Rewinder is implemented by sources that can restart from the beginning
type Rewinder interface {
	Rewind() error
}

// Metadata describes an asset
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration // zero when unknown
}

// Open opens assetURL. See OpenContext.
func Open(assetURL string) (Source, error) {
	return OpenContext(context.Background(), assetURL)
}

// OpenContext opens assetURL and returns a decoding source. Accepted forms
// are a local path, file:// URL, http(s):// URL or "tone:<hz>". An empty URL
// yields a 440 Hz test tone.
func OpenContext(ctx context.Context, assetURL string) (Source, error) {
	switch {
	case assetURL == "":
		return NewTone(ToneConfig{}), nil

	case strings.HasPrefix(assetURL, "tone:"):
		hz, err := strconv.ParseFloat(strings.TrimPrefix(assetURL, "tone:"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tone frequency in %q: %w", assetURL, err)
		}
		return NewTone(ToneConfig{Frequency: hz}), nil

	case strings.HasPrefix(assetURL, "http://"), strings.HasPrefix(assetURL, "https://"):
		return openHTTP(ctx, assetURL)

	case strings.HasPrefix(assetURL, "file://"):
		u, err := url.Parse(assetURL)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL %q: %w", assetURL, err)
		}
		return openFile(u.Path)

	default:
		return openFile(assetURL)
	}
}

func openFile(filePath string) (Source, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", filePath, ErrAssetNotFound)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !supported(ext) {
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}

	src, err := openStream(f, ext, titleFrom(filePath))
	if err != nil {
		f.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"path":        filePath,
		"sample_rate": src.Format().SampleRate,
		"channels":    src.Format().Channels,
		"codec":       src.Format().Codec,
	}).Info("Asset loaded")

	return src, nil
}

func openHTTP(ctx context.Context, assetURL string) (Source, error) {
	u, err := url.Parse(assetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset URL %q: %w", assetURL, err)
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		ext = ".mp3"
	}
	if !supported(ext) {
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", assetURL, ErrAssetNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	title := titleFrom(u.Path)

	// MP3 decodes progressively; the other containers need to seek
	if ext == ".mp3" {
		src, err := newMP3Stream(resp.Body, title)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		logrus.WithField("url", assetURL).Info("Streaming MP3 over HTTP")
		return src, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to download asset: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"url":   assetURL,
		"bytes": len(data),
	}).Info("Asset downloaded")

	return openStream(memoryFile{bytes.NewReader(data)}, ext, title)
}

// openStream picks the decoder for ext. rs is owned by the returned source.
func openStream(rs io.ReadSeekCloser, ext, title string) (Source, error) {
	var (
		src Source
		err error
	)
	switch ext {
	case ".mp3":
		src, err = newMP3(rs, title)
	case ".flac":
		src, err = newFLAC(rs, title)
	case ".wav", ".wave":
		src, err = newWAV(rs, title)
	case ".aif", ".aiff":
		src, err = newAIFF(rs, title)
	case ".ogg", ".oga":
		src, err = newVorbis(rs, title)
	case ".opus":
		src, err = newOpus(rs, title)
	default:
		err = fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

func supported(ext string) bool {
	switch ext {
	case ".mp3", ".flac", ".wav", ".wave", ".aif", ".aiff", ".ogg", ".oga", ".opus":
		return true
	}
	return false
}

func titleFrom(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}

// memoryFile adapts an in-memory asset to io.ReadSeekCloser
type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

// rewind seeks rs back to the start before a decoder is recreated
func rewind(rs io.Seeker) error {
	if rs == nil {
		return ErrNotSeekable
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	return nil
}
