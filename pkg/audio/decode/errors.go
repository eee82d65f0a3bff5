// ABOUTME: Sentinel errors for asset decoding
// ABOUTME: Wrapped with context by Open and the individual decoders
package decode

import "errors"

var (
	// ErrUnsupportedFormat is returned for containers or encodings that cannot be decoded
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrAssetNotFound is returned when the asset does not exist
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNotSeekable is returned by Rewind on progressive streams
	ErrNotSeekable = errors.New("source is not seekable")
)
