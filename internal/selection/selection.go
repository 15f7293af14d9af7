// ABOUTME: Drag gesture state machine and selected sample range
// ABOUTME: Distinguishes click-to-seek from drag-to-select by a movement threshold
package selection

import "sync"

// DefaultDragThreshold is the minimum displacement, in sample units, that
// turns a press into a drag
const DefaultDragThreshold = 5

// Selection is either None or a Range
type Selection interface {
	isSelection()
}

// None means nothing is selected
type None struct{}

// Range is a selected span [Start, End) of sample indices with Start < End
type Range struct {
	Start int
	End   int
}

func (None) isSelection()  {}
func (Range) isSelection() {}

// Len returns the number of samples in the range
func (r Range) Len() int { return r.End - r.Start }

// Outcome is the result of releasing a press: a Click or a Committed range
type Outcome interface {
	isOutcome()
}

// Click means the pointer never moved past the threshold; seek to Sample
type Click struct {
	Sample int
}

// Committed means a drag finished. Selection is None when the drag ended
// back on its anchor.
type Committed struct {
	Selection Selection
}

func (Click) isOutcome()     {}
func (Committed) isOutcome() {}

// State of the gesture
type State int

const (
	Idle State = iota
	Pressed
	Dragging
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Model tracks the press/move/release gesture and the committed selection
type Model struct {
	mu        sync.RWMutex
	total     int
	threshold int
	state     State
	anchor    int
	selection Selection
}

// New creates a selection model for a buffer of totalSamples frames.
// A threshold <= 0 uses DefaultDragThreshold.
func New(totalSamples, threshold int) *Model {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &Model{
		total:     totalSamples,
		threshold: threshold,
		selection: None{},
	}
}

// Press records the anchor and clears any existing selection
func (m *Model) Press(x int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.anchor = m.clamp(x)
	m.state = Pressed
	m.selection = None{}
}

// Move updates the gesture and returns the provisional highlight. ok is
// false until the pointer has moved at least the threshold from the anchor.
func (m *Model) Move(x int) (Range, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Idle {
		return Range{}, false
	}

	x = m.clamp(x)
	if m.state == Pressed && abs(x-m.anchor) >= m.threshold {
		m.state = Dragging
	}
	if m.state != Dragging {
		return Range{}, false
	}

	return span(m.anchor, x), true
}

// Release finishes the gesture and returns to Idle. A release without a
// preceding press is reported as a click at x.
func (m *Model) Release(x int) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	x = m.clamp(x)
	state := m.state
	m.state = Idle

	if state == Pressed && abs(x-m.anchor) >= m.threshold {
		state = Dragging
	}
	if state != Dragging {
		return Click{Sample: x}
	}

	r := span(m.anchor, x)
	if r.Len() == 0 {
		m.selection = None{}
	} else {
		m.selection = r
	}
	return Committed{Selection: m.selection}
}

// Selection returns the committed selection
func (m *Model) Selection() Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selection
}

// Clear drops the committed selection
func (m *Model) Clear() {
	m.mu.Lock()
	m.selection = None{}
	m.mu.Unlock()
}

// State returns the gesture state
func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Threshold returns the drag threshold in sample units
func (m *Model) Threshold() int {
	return m.threshold
}

func (m *Model) clamp(x int) int {
	if x < 0 {
		return 0
	}
	if x > m.total {
		return m.total
	}
	return x
}

func span(a, b int) Range {
	if a > b {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
