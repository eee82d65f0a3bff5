// ABOUTME: Sentinel errors for the tap package
// ABOUTME: Checked by callers with errors.Is
package tap

import "errors"

var (
	// ErrPlaybackActive is returned when the asset is changed after Attach
	ErrPlaybackActive = errors.New("playback already active")

	// ErrNilHost is returned by Attach without a host
	ErrNilHost = errors.New("nil host")
)
