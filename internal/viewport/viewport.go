// ABOUTME: Visible sample window and scrollbar mapping
// ABOUTME: Keeps a fixed-width window centered on the playback position
package viewport

import (
	"math"
	"sync"
)

// DefaultWindowSeconds is the visible time span
const DefaultWindowSeconds = 10.0

// Window is a visible range of sample indices [Start, End)
type Window struct {
	Start int
	End   int
}

// Width returns the number of samples in the window
func (w Window) Width() int { return w.End - w.Start }

// Center returns the window midpoint
func (w Window) Center() int { return w.Start + w.Width()/2 }

// ScrollCommand is Absolute or Relative
type ScrollCommand interface {
	isScrollCommand()
}

// Absolute moves the window center to Fraction of the buffer (scrollbar drag)
type Absolute struct {
	Fraction float64
}

// Unit is the size of a relative scroll
type Unit int

const (
	UnitStep Unit = iota // a tenth of the window
	UnitPage             // a whole window
)

// Relative shifts the window by Direction (negative is left) units
type Relative struct {
	Direction int
	Unit      Unit
}

func (Absolute) isScrollCommand() {}
func (Relative) isScrollCommand() {}

// ScrollResult is the window after a scroll and the position to seek to
type ScrollResult struct {
	Window Window
	Center int
}

// Manager maps between sample positions and the visible window
type Manager struct {
	mu            sync.RWMutex
	total         int
	sampleRate    int
	windowSeconds float64
	window        Window
}

// New creates a manager for a buffer. windowSeconds <= 0 uses the default.
func New(totalSamples, sampleRate int, windowSeconds float64) *Manager {
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}
	m := &Manager{
		total:         totalSamples,
		sampleRate:    sampleRate,
		windowSeconds: windowSeconds,
	}
	m.window = m.ComputeWindow(0)
	return m
}

// HalfWindow returns half the window width in samples
func (m *Manager) HalfWindow() int {
	return int(m.windowSeconds * float64(m.sampleRate) / 2)
}

// ComputeWindow returns the window centered on center. Near the right edge
// the window slides left instead of shrinking; it only covers less than its
// full width when the whole buffer is shorter.
func (m *Manager) ComputeWindow(center int) Window {
	half := m.HalfWindow()

	start := center - half
	if start < 0 {
		start = 0
	}
	end := start + 2*half
	if end > m.total {
		end = m.total
		start = end - 2*half
		if start < 0 {
			start = 0
		}
	}

	return Window{Start: start, End: end}
}

// Follow recenters the stored window on center and returns it
func (m *Manager) Follow(center int) Window {
	w := m.ComputeWindow(center)

	m.mu.Lock()
	m.window = w
	m.mu.Unlock()

	return w
}

// Window returns the stored window
func (m *Manager) Window() Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.window
}

// ScrollbarFraction returns the window bounds as fractions of the buffer
func (m *Manager) ScrollbarFraction() (float64, float64) {
	w := m.Window()
	if m.total == 0 {
		return 0, 1
	}
	return clampUnit(float64(w.Start) / float64(m.total)),
		clampUnit(float64(w.End) / float64(m.total))
}

// HandleScroll applies a scrollbar command. The caller seeks to the
// returned Center.
func (m *Manager) HandleScroll(cmd ScrollCommand) ScrollResult {
	switch c := cmd.(type) {
	case Absolute:
		center := int(clampUnit(c.Fraction) * float64(m.total))
		return ScrollResult{Window: m.Follow(center), Center: center}

	case Relative:
		step := m.stepSize(c.Unit)

		m.mu.Lock()
		defer m.mu.Unlock()

		width := m.window.Width()
		start := m.window.Start + c.Direction*step
		if start < 0 {
			start = 0
		}
		end := start + width
		if end > m.total {
			end = m.total
			start = end - width
			if start < 0 {
				start = 0
			}
		}

		m.window = Window{Start: start, End: end}
		return ScrollResult{Window: m.window, Center: start + width/2}
	}

	w := m.Window()
	return ScrollResult{Window: w, Center: w.Center()}
}

func (m *Manager) stepSize(unit Unit) int {
	window := m.windowSeconds * float64(m.sampleRate)
	if unit == UnitPage {
		return int(window)
	}
	return int(window / 10)
}

func clampUnit(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
