// ABOUTME: Ogg Opus identification header parsing
// ABOUTME: Reads the channel count the opusfile stream API does not expose
package decode

import (
	"bytes"
	"fmt"
	"io"
)

// opusHeadChannels scans the first page of an Ogg Opus stream for the
// OpusHead packet and returns its channel count. rs is left at offset 0.
func opusHeadChannels(rs io.ReadSeeker) (int, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("failed to read Opus header: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to start: %w", err)
	}

	head = head[:n]
	if !bytes.HasPrefix(head, []byte("OggS")) {
		return 0, fmt.Errorf("not an Ogg stream: %w", ErrUnsupportedFormat)
	}

	i := bytes.Index(head, []byte("OpusHead"))
	if i < 0 || i+9 >= len(head) {
		return 0, fmt.Errorf("missing OpusHead: %w", ErrUnsupportedFormat)
	}

	channels := int(head[i+9])
	if channels == 0 {
		return 0, fmt.Errorf("OpusHead with zero channels: %w", ErrUnsupportedFormat)
	}
	return channels, nil
}
