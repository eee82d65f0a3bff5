// ABOUTME: Remote control error definitions
// ABOUTME: Sentinel errors for protocol failures
package remote

import "errors"

var (
	// ErrUnknownCommand is reported for message types the server does not handle
	ErrUnknownCommand = errors.New("unknown command")

	// ErrRemote wraps an error message returned by the server
	ErrRemote = errors.New("remote error")

	// ErrClosed is returned when using a closed client
	ErrClosed = errors.New("connection closed")
)
