// ABOUTME: Audio encoder package for writing rendered audio to files
// ABOUTME: Provides the Encoder interface with WAV, AIFF and raw PCM writers
// Package encode writes interleaved float samples to disk.
//
// Supports: WAV and AIFF through go-audio, and headerless 16/24-bit PCM.
//
// Example:
//
//	enc, err := encode.Create("out.wav", audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16})
//	err = enc.Encode(samples)
//	err = enc.Close()
package encode
