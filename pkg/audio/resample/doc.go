// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// The output device may run at a fixed rate that differs from the decoded
// file. Slices are converted just before they are handed to the device, so
// sample indices elsewhere always refer to the file's own rate.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := r.Resample(samples)
package resample
