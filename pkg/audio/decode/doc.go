// ABOUTME: Asset decoding package for multiple container support
// ABOUTME: Provides the Source interface and decoders for MP3, FLAC, WAV, AIFF, Vorbis, Opus
// Package decode opens audio assets and decodes them to float PCM.
//
// Supports: MP3 (file or progressive HTTP), FLAC, WAV, AIFF, Ogg Vorbis and
// Ogg Opus, plus a generated test tone.
//
// All sources implement Source and output interleaved float32 samples in
// [-1, 1] at the asset's native rate. Seekable sources also implement
// Rewinder so the pipeline can loop them.
//
// Example:
//
//	src, err := decode.Open("file:///music/track.flac")
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//	n, err := src.ReadSamples(buf)
package decode
