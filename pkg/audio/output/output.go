// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends and their errors
package output

import (
	"errors"
	"fmt"
)

// Device represents an audio output device
type Device interface {
	// Play enqueues interleaved 16-bit samples and starts playing them
	// immediately. The returned handle controls this one playback.
	Play(samples []int16) (Handle, error)

	// Close releases output resources
	Close() error
}

// Handle controls one in-flight playback started by Device.Play.
// Stop may be called from any goroutine and more than once.
type Handle interface {
	IsPlaying() bool
	Stop()
}

// ErrClosed is returned by Play after Close
var ErrClosed = errors.New("output device closed")

// AudioDeviceError reports an unavailable or busy output device
type AudioDeviceError struct {
	Op  string
	Err error
}

func (e *AudioDeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *AudioDeviceError) Unwrap() error {
	return e.Err
}
