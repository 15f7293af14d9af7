// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Device/Handle interfaces and the oto implementation
// Package output provides audio playback devices.
//
// A Device plays a whole slice of interleaved 16-bit samples and returns a
// Handle that reports whether the audio is still playing and can stop it
// from any goroutine. SetDeviceRate makes Oto resample each slice to a fixed
// device rate before playing it.
//
// Example:
//
//	out := output.NewOto(44100, 2)
//	h, err := out.Play(buf.Slice(start, end))
//	for h.IsPlaying() {
//	    time.Sleep(50 * time.Millisecond)
//	}
package output
