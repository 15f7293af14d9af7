// ABOUTME: Playback session, status and event types
// ABOUTME: Tagged variants for Idle/Playing status and timing loop events
package playback

import (
	"time"

	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
	"github.com/google/uuid"
)

// Session is one in-flight playback
type Session struct {
	ID          uuid.UUID
	StartSample int
	EndSample   int  // exclusive; only meaningful when Bounded
	Bounded     bool // range playback stops at EndSample
	StartedAt   time.Time

	handle output.Handle
	done   chan struct{} // closed by StopPlayback
}

// sampleAt returns the frame reached elapsed after the session started
func (s *Session) sampleAt(elapsed time.Duration, sampleRate int) int {
	if elapsed < 0 {
		elapsed = 0
	}
	return s.StartSample + int(elapsed.Milliseconds()*int64(sampleRate)/1000)
}

// Status is either Idle or Playing
type Status interface {
	isStatus()
}

// Idle means no session is active
type Idle struct{}

// Playing carries the active session
type Playing struct {
	Session *Session
}

func (Idle) isStatus()    {}
func (Playing) isStatus() {}

// StopReason says why a session ended
type StopReason int

const (
	StopRequested  StopReason = iota // StopPlayback was called
	StopEndOfAudio                   // the device finished the slice
	StopRangeEnd                     // range playback reached its end sample
	StopFailed                       // the timing loop failed
)

func (r StopReason) String() string {
	switch r {
	case StopRequested:
		return "stopped"
	case StopEndOfAudio:
		return "end of audio"
	case StopRangeEnd:
		return "end of selection"
	case StopFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is published by the controller on Events()
type Event interface {
	isEvent()
}

// Started is published when a session begins
type Started struct {
	SessionID   uuid.UUID
	StartSample int
	EndSample   int
	Bounded     bool
}

// PositionChanged is published on every timing loop tick. It is advisory:
// it may be dropped when the consumer is slow, and may arrive after the
// session has already stopped.
type PositionChanged struct {
	SessionID uuid.UUID
	Sample    int
}

// Stopped is published once when a session ends. Position is where the
// next session starts, which is a sample sought during playback if any.
type Stopped struct {
	SessionID uuid.UUID
	Reason    StopReason
	Position  int
}

// DeviceFailed reports a non-fatal audio device error
type DeviceFailed struct {
	SessionID uuid.UUID
	Err       error
}

func (Started) isEvent()         {}
func (PositionChanged) isEvent() {}
func (Stopped) isEvent()         {}
func (DeviceFailed) isEvent()    {}
