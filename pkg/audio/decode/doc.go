// ABOUTME: Audio decoder package for multiple file formats
// ABOUTME: Provides Load and Decoder implementations for WAV, AIFF, MP3, FLAC, Ogg Vorbis
// Package decode loads audio files into an audio.Buffer.
//
// Supports: WAV and AIFF (8/16/24/32-bit PCM), MP3, FLAC, Ogg Vorbis
//
// All decoders produce interleaved 16-bit samples. Every failure returned by
// Load is a *DecodeError.
//
// Example:
//
//	buf, err := decode.Load("take1.wav")
//	var decErr *decode.DecodeError
//	if errors.As(err, &decErr) {
//	    log.Fatalf("cannot open %s: %v", decErr.Path, decErr.Err)
//	}
package decode
