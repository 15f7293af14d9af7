// ABOUTME: Audio encoder package for saving PCM to files
// ABOUTME: Provides Encoder interface and implementations for WAV, AIFF
// Package encode writes decoded audio back to disk.
//
// Supports: WAV and AIFF, both as 16-bit PCM.
//
// It is used to export the committed selection of the viewer.
//
// Example:
//
//	path := encode.RangePath(source, buf, start, end)
//	err := encode.SaveRange(path, buf, start, end)
package encode
