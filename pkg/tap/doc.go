// ABOUTME: Real-time filter tap package
// ABOUTME: Parameter exchange, render processor and control-side API
// Package tap applies a gain stage and one biquad section to audio buffers
// on a host's render path while other goroutines change the parameters.
//
// The Controller validates property writes and publishes complete Params
// tuples through an Exchange. The Processor reads the newest tuple once per
// buffer, redesigns coefficients when the corner frequency or sample rate
// changed and filters each channel in place. Nothing on the render side
// blocks, allocates in steady state or logs.
//
// Example:
//
//	ctrl := tap.NewController(tap.Config{AssetURL: "song.flac"})
//	if err := ctrl.Attach(pipeline); err != nil {
//		return err
//	}
//	ctrl.SetFilterCornerFrequency(800)
//	ctrl.SetFilterEnabled(true)
package tap
