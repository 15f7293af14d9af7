// ABOUTME: Tests for the playback controller and timing loop
// ABOUTME: Uses a fake output device and a stepping clock
package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/waveview/internal/selection"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
)

type fakeHandle struct {
	mu        sync.Mutex
	playing   bool
	stopCalls int
	panicOn   bool
}

func (h *fakeHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOn {
		panic("device vanished")
	}
	return h.playing
}

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopCalls++
	h.playing = false
}

// end simulates the device running out of samples
func (h *fakeHandle) end() {
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
}

func (h *fakeHandle) stops() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopCalls
}

type fakeDevice struct {
	mu      sync.Mutex
	err     error
	panicOn bool
	played  [][]int16
	handles []*fakeHandle
}

func (d *fakeDevice) Play(samples []int16) (output.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	h := &fakeHandle{playing: true, panicOn: d.panicOn}
	d.played = append(d.played, samples)
	d.handles = append(d.handles, h)
	return h, nil
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) plays() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.played)
}

func (d *fakeDevice) handle(i int) *fakeHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handles[i]
}

type fixedRange struct {
	sel selection.Selection
}

func (f fixedRange) Selection() selection.Selection { return f.sel }

// steppingClock advances by step on every call
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func newBuffer(t *testing.T, frames, rate, channels int) *audio.Buffer {
	t.Helper()
	buf, err := audio.NewBuffer(make([]int16, frames*channels), rate, channels)
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	return buf
}

// waitFor reads events until match returns true
func waitFor(t *testing.T, c *Controller, match func(Event) bool) []Event {
	t.Helper()
	var seen []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				t.Fatalf("events closed while waiting; saw %d events", len(seen))
			}
			seen = append(seen, ev)
			if match(ev) {
				return seen
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event; saw %d events", len(seen))
		}
	}
}

func isStopped(ev Event) bool {
	_, ok := ev.(Stopped)
	return ok
}

func TestNewControllerDefaults(t *testing.T) {
	c := New(newBuffer(t, 100, 1000, 1), &fakeDevice{}, nil, Config{})
	defer c.Close()

	if c.config.TickInterval != 50*time.Millisecond {
		t.Errorf("expected default tick 50ms, got %v", c.config.TickInterval)
	}
	if c.config.EventBuffer != 64 {
		t.Errorf("expected default event buffer 64, got %d", c.config.EventBuffer)
	}
	if c.IsPlaying() {
		t.Error("expected idle initially")
	}
	if _, ok := c.Status().(Idle); !ok {
		t.Errorf("expected Idle status, got %#v", c.Status())
	}
	if c.Position() != 0 {
		t.Errorf("expected position 0, got %d", c.Position())
	}
}

func TestStartPlaybackIsIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 10000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	first := c.Status().(Playing).Session

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("second start failed: %v", err)
	}

	if dev.plays() != 1 {
		t.Errorf("expected exactly one device playback, got %d", dev.plays())
	}
	p, ok := c.Status().(Playing)
	if !ok {
		t.Fatal("expected Playing status")
	}
	if p.Session != first {
		t.Error("expected the original session to remain active")
	}
}

func TestPointPlaybackFromPosition(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 1000, 1000, 2), dev, nil, Config{TickInterval: time.Millisecond})
	defer c.Close()

	c.SeekSample(400)
	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if got := len(dev.played[0]); got != 600*2 {
		t.Errorf("expected %d interleaved samples, got %d", 600*2, got)
	}
	s := c.Status().(Playing).Session
	if s.Bounded {
		t.Error("expected unbounded session")
	}
	if s.StartSample != 400 || s.EndSample != 1000 {
		t.Errorf("expected [400, 1000), got [%d, %d)", s.StartSample, s.EndSample)
	}
}

func TestEmptySelectionFallsBackToPoint(t *testing.T) {
	dev := &fakeDevice{}
	ranges := fixedRange{sel: selection.Range{Start: 50, End: 50}}
	c := New(newBuffer(t, 1000, 1000, 1), dev, ranges, Config{TickInterval: time.Millisecond})
	defer c.Close()

	c.SeekSample(200)
	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	s := c.Status().(Playing).Session
	if s.Bounded {
		t.Error("expected empty selection to fall back to point playback")
	}
	if s.StartSample != 200 {
		t.Errorf("expected start at 200, got %d", s.StartSample)
	}
}

func TestStopPlaybackTwiceIsNoop(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 10000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	c.StopPlayback()
	pos := c.Position()
	c.StopPlayback()

	if c.IsPlaying() {
		t.Error("expected idle after stop")
	}
	if c.Position() != pos {
		t.Errorf("expected position unchanged by second stop, got %d -> %d", pos, c.Position())
	}
	if n := dev.handle(0).stops(); n != 1 {
		t.Errorf("expected device stopped once, got %d", n)
	}

	events := waitFor(t, c, isStopped)
	if stop := events[len(events)-1].(Stopped); stop.Reason != StopRequested {
		t.Errorf("expected StopRequested, got %v", stop.Reason)
	}
	select {
	case ev := <-c.Events():
		if _, ok := ev.(Stopped); ok {
			t.Error("expected only one Stopped event")
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	c := New(newBuffer(t, 100, 1000, 1), &fakeDevice{}, nil, Config{})
	defer c.Close()

	c.StopPlayback()
	select {
	case ev := <-c.Events():
		t.Errorf("expected no event, got %#v", ev)
	default:
	}
}

func TestRangePlaybackStopsAtSelectionEnd(t *testing.T) {
	dev := &fakeDevice{}
	clock := &steppingClock{now: time.Unix(0, 0), step: 7 * time.Millisecond}
	ranges := fixedRange{sel: selection.Range{Start: 100, End: 300}}
	c := New(newBuffer(t, 1000, 1000, 1), dev, ranges, Config{
		TickInterval: time.Millisecond,
		EventBuffer:  1024,
		Now:          clock.Now,
	})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := len(dev.played[0]); got != 200 {
		t.Errorf("expected 200 samples for the selection, got %d", got)
	}

	events := waitFor(t, c, isStopped)
	positions := 0
	for _, ev := range events {
		if pc, ok := ev.(PositionChanged); ok {
			positions++
			if pc.Sample >= 300 {
				t.Errorf("position %d reached selection end", pc.Sample)
			}
			if pc.Sample < 100 {
				t.Errorf("position %d before selection start", pc.Sample)
			}
		}
	}
	if positions == 0 {
		t.Error("expected position updates during range playback")
	}

	stop := events[len(events)-1].(Stopped)
	if stop.Reason != StopRangeEnd {
		t.Errorf("expected StopRangeEnd, got %v", stop.Reason)
	}
	if c.Position() >= 300 {
		t.Errorf("expected final position before 300, got %d", c.Position())
	}
	if dev.handle(0).stops() == 0 {
		t.Error("expected device to be stopped at range end")
	}
	if c.IsPlaying() {
		t.Error("expected idle after range end")
	}
}

func TestPositionTracksElapsedTime(t *testing.T) {
	dev := &fakeDevice{}
	clock := &steppingClock{now: time.Unix(0, 0), step: 100 * time.Millisecond}
	c := New(newBuffer(t, 100000, 1000, 1), dev, nil, Config{
		TickInterval: time.Millisecond,
		EventBuffer:  1024,
		Now:          clock.Now,
	})
	defer c.Close()

	c.Seek(2000)
	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// StartedAt consumed t=0, so the first tick sees 100ms elapsed
	events := waitFor(t, c, func(ev Event) bool {
		_, ok := ev.(PositionChanged)
		return ok
	})
	pc := events[len(events)-1].(PositionChanged)
	if pc.Sample != 2100 {
		t.Errorf("expected first position 2100, got %d", pc.Sample)
	}
}

func TestNaturalEndOfAudio(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 10000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	dev.handle(0).end()

	events := waitFor(t, c, isStopped)
	if stop := events[len(events)-1].(Stopped); stop.Reason != StopEndOfAudio {
		t.Errorf("expected StopEndOfAudio, got %v", stop.Reason)
	}
	if c.IsPlaying() {
		t.Error("expected idle after natural end")
	}

	// A new session can start afterwards
	if err := c.StartPlayback(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if dev.plays() != 2 {
		t.Errorf("expected second playback, got %d", dev.plays())
	}
}

func TestDeviceErrorRollsBack(t *testing.T) {
	dev := &fakeDevice{err: errors.New("device busy")}
	c := New(newBuffer(t, 1000, 1000, 1), dev, nil, Config{})
	defer c.Close()

	err := c.StartPlayback()
	var devErr *output.AudioDeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected AudioDeviceError, got %v", err)
	}
	if c.IsPlaying() {
		t.Error("expected isPlaying rolled back to false")
	}
	if _, ok := c.Status().(Idle); !ok {
		t.Errorf("expected no session retained, got %#v", c.Status())
	}

	events := waitFor(t, c, func(ev Event) bool {
		_, ok := ev.(DeviceFailed)
		return ok
	})
	if failed := events[len(events)-1].(DeviceFailed); !errors.Is(failed.Err, dev.err) {
		t.Errorf("expected notification wrapping device error, got %v", failed.Err)
	}
}

func TestLoopPanicBecomesDeviceFailure(t *testing.T) {
	dev := &fakeDevice{panicOn: true}
	c := New(newBuffer(t, 1000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	events := waitFor(t, c, isStopped)
	sawFailure := false
	for _, ev := range events {
		if _, ok := ev.(DeviceFailed); ok {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Error("expected DeviceFailed notification")
	}
	if stop := events[len(events)-1].(Stopped); stop.Reason != StopFailed {
		t.Errorf("expected StopFailed, got %v", stop.Reason)
	}
	if c.IsPlaying() {
		t.Error("expected idle after loop failure")
	}
}

func TestStopRacingNaturalEnd(t *testing.T) {
	for i := 0; i < 50; i++ {
		dev := &fakeDevice{}
		c := New(newBuffer(t, 10000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})

		if err := c.StartPlayback(); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); dev.handle(0).end() }()
		go func() { defer wg.Done(); c.StopPlayback() }()
		wg.Wait()

		c.Close()

		stops := 0
		for ev := range c.Events() {
			if _, ok := ev.(Stopped); ok {
				stops++
			}
		}
		if stops != 1 {
			t.Fatalf("iteration %d: expected exactly one Stopped event, got %d", i, stops)
		}
		if c.IsPlaying() {
			t.Fatalf("iteration %d: expected idle", i)
		}
	}
}

func TestSeekConvertsAndClamps(t *testing.T) {
	c := New(newBuffer(t, 44100*3, 44100, 2), &fakeDevice{}, nil, Config{})
	defer c.Close()

	c.Seek(1500)
	if c.Position() != 66150 {
		t.Errorf("expected 66150, got %d", c.Position())
	}
	if c.PositionMs() != 1500 {
		t.Errorf("expected 1500ms, got %d", c.PositionMs())
	}

	c.Seek(-20)
	if c.Position() != 0 {
		t.Errorf("expected clamp to 0, got %d", c.Position())
	}

	c.SeekSample(1 << 30)
	if c.Position() != 44100*3 {
		t.Errorf("expected clamp to total, got %d", c.Position())
	}
}

func TestSeekDuringPlaybackDoesNotInterrupt(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 100000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	c.Seek(50000)

	if !c.IsPlaying() {
		t.Error("expected playback to continue after seek")
	}
	if dev.handle(0).stops() != 0 {
		t.Error("expected device not to be stopped by seek")
	}
}

func TestSeekDuringPlaybackAppliesOnStop(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 100000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond, EventBuffer: 1024})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	c.SeekSample(50000)

	if pos := c.Position(); pos >= 50000 {
		t.Errorf("expected timing loop position while playing, got %d", pos)
	}

	c.StopPlayback()
	events := waitFor(t, c, isStopped)
	stop := events[len(events)-1].(Stopped)
	if stop.Position != 50000 {
		t.Errorf("expected stop to report sought sample 50000, got %d", stop.Position)
	}
	if c.Position() != 50000 {
		t.Errorf("expected position 50000 after stop, got %d", c.Position())
	}

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if got := len(dev.played[1]); got != 50000 {
		t.Errorf("expected next session to play 50000 samples from the sought sample, got %d", got)
	}
	started := waitFor(t, c, func(ev Event) bool {
		_, ok := ev.(Started)
		return ok
	})
	if s := started[len(started)-1].(Started); s.StartSample != 50000 {
		t.Errorf("expected next session to start at 50000, got %d", s.StartSample)
	}
}

func TestSeekDuringPlaybackAppliesAtNaturalEnd(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 100000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond, EventBuffer: 1024})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	c.SeekSample(70000)
	dev.handle(0).end()

	events := waitFor(t, c, isStopped)
	stop := events[len(events)-1].(Stopped)
	if stop.Reason != StopEndOfAudio {
		t.Errorf("expected StopEndOfAudio, got %v", stop.Reason)
	}
	if c.Position() != 70000 {
		t.Errorf("expected position 70000 after end, got %d", c.Position())
	}
}

func TestRangePositionsStayInsideSelection(t *testing.T) {
	dev := &fakeDevice{}
	clock := &steppingClock{now: time.Unix(0, 0), step: 7 * time.Millisecond}
	ranges := fixedRange{sel: selection.Range{Start: 100, End: 44100}}
	c := New(newBuffer(t, 88200, 44100, 1), dev, ranges, Config{
		TickInterval: time.Millisecond,
		EventBuffer:  1024,
		Now:          clock.Now,
	})
	defer c.Close()

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	events := waitFor(t, c, isStopped)
	positions := 0
	for _, ev := range events {
		if pc, ok := ev.(PositionChanged); ok {
			positions++
			if pc.Sample < 100 || pc.Sample >= 44100 {
				t.Errorf("expected position in [100, 44100), got %d", pc.Sample)
			}
		}
	}
	if positions == 0 {
		t.Error("expected position updates during range playback")
	}
	if stop := events[len(events)-1].(Stopped); stop.Reason != StopRangeEnd {
		t.Errorf("expected StopRangeEnd, got %v", stop.Reason)
	}
}

func TestPublishKeepsLifecycleEventsWhenFull(t *testing.T) {
	c := New(newBuffer(t, 1000, 1000, 1), &fakeDevice{}, nil, Config{EventBuffer: 3})
	defer c.Close()

	started := Started{StartSample: 10}
	c.publish(started)
	c.publish(PositionChanged{Sample: 11})
	c.publish(PositionChanged{Sample: 12})
	c.publish(Stopped{Reason: StopRequested, Position: 12})

	var got []Event
	for len(c.Events()) > 0 {
		got = append(got, <-c.Events())
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 queued events, got %d", len(got))
	}
	if ev, ok := got[0].(Started); !ok || ev != started {
		t.Errorf("expected Started kept at the front, got %#v", got[0])
	}
	if ev, ok := got[1].(PositionChanged); !ok || ev.Sample != 12 {
		t.Errorf("expected oldest position update evicted, got %#v", got[1])
	}
	if _, ok := got[2].(Stopped); !ok {
		t.Errorf("expected Stopped last, got %#v", got[2])
	}
}

func TestPublishDropsPositionWhenFull(t *testing.T) {
	c := New(newBuffer(t, 1000, 1000, 1), &fakeDevice{}, nil, Config{EventBuffer: 1})
	defer c.Close()

	c.publish(Started{StartSample: 1})
	c.publish(PositionChanged{Sample: 2})

	if len(c.Events()) != 1 {
		t.Fatalf("expected 1 queued event, got %d", len(c.Events()))
	}
	if _, ok := (<-c.Events()).(Started); !ok {
		t.Error("expected Started to survive a full buffer")
	}
}

func TestCloseStopsAndClosesEvents(t *testing.T) {
	dev := &fakeDevice{}
	c := New(newBuffer(t, 10000, 1000, 1), dev, nil, Config{TickInterval: time.Millisecond})

	if err := c.StartPlayback(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	c.Close()
	c.Close()

	if c.IsPlaying() {
		t.Error("expected idle after close")
	}
	for range c.Events() {
	}
	if err := c.StartPlayback(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestStopReasonString(t *testing.T) {
	tests := map[StopReason]string{
		StopRequested:  "stopped",
		StopEndOfAudio: "end of audio",
		StopRangeEnd:   "end of selection",
		StopFailed:     "failed",
		StopReason(99): "unknown",
	}
	for reason, want := range tests {
		if reason.String() != want {
			t.Errorf("expected %q, got %q", want, reason.String())
		}
	}
}
