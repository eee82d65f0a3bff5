// ABOUTME: Pipeline error definitions
// ABOUTME: Sentinel errors returned by Start
package pipeline

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called more than once
	ErrAlreadyStarted = errors.New("pipeline already started")

	// ErrInvalidFormat is returned when the source reports no channels or rate
	ErrInvalidFormat = errors.New("invalid source format")
)
