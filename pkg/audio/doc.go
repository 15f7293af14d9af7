// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the decoded Buffer type and sample conversion functions
// Package audio provides the decoded audio buffer shared by the viewer.
//
// A Buffer holds interleaved 16-bit PCM for a whole recording. Positions in
// the viewer are frame indices ("sample indices"), one per audio frame
// regardless of channel count:
//
//	buf, err := audio.NewBuffer(samples, 44100, 2)
//	total := buf.TotalSamples()      // frames
//	pcm := buf.Slice(0, 44100)       // first second, interleaved
//	peaks := buf.Peaks(0, total, 80) // envelope for 80 columns
//
// Conversion helpers move samples between 8, 16, 24 and 32-bit depths and
// from normalized float32.
package audio
