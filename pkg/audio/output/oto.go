// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays whole sample slices with per-playback handles and software volume
package output

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/Resonate-Protocol/waveview/pkg/audio/resample"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	sampleRate int
	deviceRate int
	channels   int
	volume     int
	muted      bool
	closed     bool

	// Handles still playing; volume changes apply to them at once
	active map[*otoHandle]struct{}
}

// player is the part of *oto.Player a handle drives
type player interface {
	IsPlaying() bool
	Pause()
	Close() error
	SetVolume(volume float64)
}

// NewOto creates a new Oto output for the given format. The device itself
// is opened on first use.
func NewOto(sampleRate, channels int) *Oto {
	return &Oto{
		sampleRate: sampleRate,
		deviceRate: sampleRate,
		channels:   channels,
		volume:     100,
		active:     make(map[*otoHandle]struct{}),
	}
}

// SetDeviceRate runs the device at rate and resamples each slice to it.
// It only takes effect before the device is opened; rate <= 0 keeps the
// buffer's own rate.
func (o *Oto) SetDeviceRate(rate int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		log.Printf("Device already open at %dHz, ignoring rate %d", o.deviceRate, rate)
		return
	}
	if rate <= 0 {
		rate = o.sampleRate
	}
	o.deviceRate = rate
}

// DeviceRate returns the rate the device runs at
func (o *Oto) DeviceRate() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deviceRate
}

// Open initializes the oto context. oto allows a single context per
// process, so repeated calls reuse it.
func (o *Oto) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.openLocked()
}

func (o *Oto) openLocked() error {
	if o.closed {
		return &AudioDeviceError{Op: "open", Err: ErrClosed}
	}
	if o.otoCtx != nil {
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   o.deviceRate,
		ChannelCount: o.channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return &AudioDeviceError{Op: "open", Err: fmt.Errorf("failed to create oto context: %w", err)}
	}

	<-readyChan

	o.otoCtx = ctx
	log.Printf("Audio output initialized: %dHz, %d channels", o.deviceRate, o.channels)
	if o.deviceRate != o.sampleRate {
		log.Printf("Resampling playback from %dHz", o.sampleRate)
	}

	return nil
}

// Play starts a new oto player over the samples
func (o *Oto) Play(samples []int16) (Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.openLocked(); err != nil {
		return nil, err
	}
	if err := o.otoCtx.Err(); err != nil {
		return nil, &AudioDeviceError{Op: "play", Err: err}
	}

	samples = resample.New(o.sampleRate, o.deviceRate, o.channels).Resample(samples)
	p := o.otoCtx.NewPlayer(bytes.NewReader(encodeSamples(samples)))
	p.SetVolume(getVolumeMultiplier(o.volume, o.muted))
	p.Play()

	if err := p.Err(); err != nil {
		_ = p.Close()
		return nil, &AudioDeviceError{Op: "play", Err: err}
	}

	return o.track(p), nil
}

// track registers a started player so later volume changes reach it. Must
// hold mu.
func (o *Oto) track(p player) *otoHandle {
	for old := range o.active {
		if !old.IsPlaying() {
			delete(o.active, old)
		}
	}
	h := &otoHandle{player: p, owner: o}
	o.active[h] = struct{}{}
	return h
}

func (o *Oto) release(h *otoHandle) {
	o.mu.Lock()
	delete(o.active, h)
	o.mu.Unlock()
}

// applyVolumeLocked pushes the current volume to every live player and
// forgets those that finished on their own
func (o *Oto) applyVolumeLocked() {
	mult := getVolumeMultiplier(o.volume, o.muted)
	for h := range o.active {
		if !h.setVolume(mult) {
			delete(o.active, h)
		}
	}
}

// Close suspends the device. Handles already returned stay valid to Stop.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return &AudioDeviceError{Op: "close", Err: err}
		}
	}
	return nil
}

// SetVolume sets the volume (0-100), including for playbacks in progress
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.mu.Lock()
	o.volume = volume
	o.applyVolumeLocked()
	o.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state, including for playbacks in progress
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.applyVolumeLocked()
	o.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// Lock order: Oto.mu before otoHandle.mu
type otoHandle struct {
	mu      sync.Mutex
	player  player
	owner   *Oto
	stopped bool
}

// setVolume reports false once the player is stopped or finished
func (h *otoHandle) setVolume(mult float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped || !h.player.IsPlaying() {
		return false
	}
	h.player.SetVolume(mult)
	return true
}

func (h *otoHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.stopped && h.player.IsPlaying()
}

// Stop pauses and releases the player. Safe to call repeatedly.
func (h *otoHandle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.player.Pause()
	if err := h.player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}
	h.mu.Unlock()

	if h.owner != nil {
		h.owner.release(h)
	}
}

// encodeSamples converts samples to the little-endian bytes oto reads
func encodeSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
