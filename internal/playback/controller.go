// ABOUTME: Playback controller owning the authoritative playback position
// ABOUTME: Starts/stops sessions on the output device and runs the timing loop
package playback

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/waveview/internal/selection"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
	"github.com/google/uuid"
)

// ErrClosed is returned by StartPlayback after Close
var ErrClosed = errors.New("playback controller closed")

// Config holds controller configuration
type Config struct {
	// TickInterval is the timing loop cadence (default: 50ms)
	TickInterval time.Duration

	// EventBuffer is the capacity of the Events channel (default: 64)
	EventBuffer int

	// Now returns the wall clock (default: time.Now)
	Now func() time.Time
}

// RangeSource provides the current selection
type RangeSource interface {
	Selection() selection.Selection
}

// Controller owns the playback position and at most one playback session
type Controller struct {
	buf    *audio.Buffer
	device output.Device
	ranges RangeSource
	config Config

	// mu is the playback lock: it guards status, position, pending and closed
	mu       sync.Mutex
	status   Status
	position int
	closed   bool

	// pending is a seek made while playing, applied when the session ends
	pending *int

	// pubMu serializes publishers so queued events can be reordered safely
	pubMu     sync.Mutex
	events    chan Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a controller. ranges may be nil, in which case playback
// always starts from the current position.
func New(buf *audio.Buffer, device output.Device, ranges RangeSource, config Config) *Controller {
	if config.TickInterval <= 0 {
		config.TickInterval = 50 * time.Millisecond
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Controller{
		buf:    buf,
		device: device,
		ranges: ranges,
		config: config,
		status: Idle{},
		events: make(chan Event, config.EventBuffer),
	}
}

// Events returns the channel of playback events. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Buffer returns the audio being played
func (c *Controller) Buffer() *audio.Buffer {
	return c.buf
}

// StartPlayback plays the committed selection, or from the current position
// to the end when nothing is selected. It does nothing while a session is
// already active.
func (c *Controller) StartPlayback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, ok := c.status.(Playing); ok {
		return nil
	}

	start, end, bounded := c.playRange()

	handle, err := c.device.Play(c.buf.Slice(start, end))
	if err != nil {
		var devErr *output.AudioDeviceError
		if !errors.As(err, &devErr) {
			err = &output.AudioDeviceError{Op: "play", Err: err}
		}
		log.Printf("Playback failed to start: %v", err)
		c.publish(DeviceFailed{Err: err})
		return err
	}

	s := &Session{
		ID:          uuid.New(),
		StartSample: start,
		EndSample:   end,
		Bounded:     bounded,
		StartedAt:   c.config.Now(),
		handle:      handle,
		done:        make(chan struct{}),
	}
	c.status = Playing{Session: s}

	if bounded {
		log.Printf("Playing selection [%d, %d) (session %s)", start, end, s.ID)
	} else {
		log.Printf("Playing from %d (session %s)", start, s.ID)
	}
	c.publish(Started{SessionID: s.ID, StartSample: start, EndSample: end, Bounded: bounded})

	c.wg.Add(1)
	go c.run(s)

	return nil
}

// playRange picks the sample range for a new session. Must hold mu.
func (c *Controller) playRange() (start, end int, bounded bool) {
	if c.ranges != nil {
		if r, ok := c.ranges.Selection().(selection.Range); ok {
			s, e, err := c.buf.ClampRange(r.Start, r.End)
			if err != nil {
				log.Printf("Selection clamped: %v", err)
			}
			if s < e {
				return s, e, true
			}
		}
	}
	return c.position, c.buf.TotalSamples(), false
}

// StopPlayback stops the active session. Calling it while idle is a no-op.
func (c *Controller) StopPlayback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	p, ok := c.status.(Playing)
	if !ok {
		return
	}

	p.Session.handle.Stop()
	close(p.Session.done)
	c.status = Idle{}
	c.applyPendingLocked()

	log.Printf("Playback stopped at %d (session %s)", c.position, p.Session.ID)
	c.publish(Stopped{SessionID: p.Session.ID, Reason: StopRequested, Position: c.position})
}

// Seek moves the position to positionMs without starting playback. While a
// session is active the timing loop keeps reporting its own position and the
// seek takes effect when the session ends.
func (c *Controller) Seek(positionMs int64) {
	c.SeekSample(c.buf.MsToFrame(positionMs))
}

// SeekSample moves the position to a sample index, clamped to the buffer
func (c *Controller) SeekSample(sample int) {
	clamped := c.buf.ClampFrame(sample)
	if clamped != sample {
		log.Printf("Seek clamped: %v", &audio.InvalidRangeError{Start: sample, End: sample, Total: c.buf.TotalSamples()})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.status.(Playing); ok {
		c.pending = &clamped
		return
	}
	c.position = clamped
}

// applyPendingLocked moves to a seek made during the session that just ended
func (c *Controller) applyPendingLocked() {
	if c.pending == nil {
		return
	}
	c.position = *c.pending
	c.pending = nil
}

// Position returns the current sample position
func (c *Controller) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// PositionMs returns the current position in milliseconds
func (c *Controller) PositionMs() int64 {
	return c.buf.FrameToMs(c.Position())
}

// IsPlaying reports whether a session is active
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.status.(Playing)
	return ok
}

// Status returns Idle or Playing with the active session
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close stops playback, waits for the timing loop to exit and closes the
// events channel
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.stopLocked()
		c.closed = true
		c.mu.Unlock()

		c.wg.Wait()
		close(c.events)
	})
}

// run is the timing loop of one session
func (c *Controller) run(s *Session) {
	defer c.wg.Done()

	reason := StopEndOfAudio
	defer func() {
		if r := recover(); r != nil {
			err := &output.AudioDeviceError{Op: "playback", Err: fmt.Errorf("timing loop panic: %v", r)}
			log.Printf("Playback loop failed: %v", err)
			safeStop(s.handle)
			c.publish(DeviceFailed{SessionID: s.ID, Err: err})
			reason = StopFailed
		}
		c.finish(s, reason)
	}()

	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if !s.handle.IsPlaying() {
			reason = StopEndOfAudio
			return
		}

		sample := s.sampleAt(c.config.Now().Sub(s.StartedAt), c.buf.SampleRate)

		if s.Bounded && sample >= s.EndSample {
			s.handle.Stop()
			reason = StopRangeEnd
			return
		}

		if !c.advance(s, sample) {
			return
		}

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// advance stores and publishes a new position while s is still current
func (c *Controller) advance(s *Session, sample int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.status.(Playing); !ok || p.Session != s {
		return false
	}

	c.position = c.buf.ClampFrame(sample)
	c.publish(PositionChanged{SessionID: s.ID, Sample: c.position})
	return true
}

// finish moves to Idle if s is still current. A session that was stopped
// explicitly has already been replaced and published.
func (c *Controller) finish(s *Session, reason StopReason) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.status.(Playing); !ok || p.Session != s {
		return
	}

	c.status = Idle{}
	c.applyPendingLocked()
	log.Printf("Playback finished at %d: %s (session %s)", c.position, reason, s.ID)
	c.publish(Stopped{SessionID: s.ID, Reason: reason, Position: c.position})
}

// publish delivers an event without blocking. Position updates are dropped
// when the consumer lags. Other events make room by evicting the oldest
// queued position update, so lifecycle events are never lost to them.
func (c *Controller) publish(ev Event) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	select {
	case c.events <- ev:
		return
	default:
	}

	if _, ok := ev.(PositionChanged); ok {
		return
	}

	queued := make([]Event, 0, cap(c.events))
	evicted := false
drain:
	for {
		select {
		case q := <-c.events:
			if _, ok := q.(PositionChanged); ok && !evicted {
				evicted = true
				continue
			}
			queued = append(queued, q)
		default:
			break drain
		}
	}

	// Only publishers send and pubMu is held, so requeueing cannot block
	for _, q := range queued {
		c.events <- q
	}

	select {
	case c.events <- ev:
	default:
		log.Printf("Dropped playback event: %T", ev)
	}
}

func safeStop(h output.Handle) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error stopping device after failure: %v", r)
		}
	}()
	h.Stop()
}
