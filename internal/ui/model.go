// ABOUTME: Bubbletea model for the waveform viewer TUI
// ABOUTME: Routes keys, mouse gestures and playback events to the models
package ui

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/waveview/internal/playback"
	"github.com/Resonate-Protocol/waveview/internal/selection"
	"github.com/Resonate-Protocol/waveview/internal/viewport"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Fixed rows around the waveform: header, ruler, scrollbar, status, notice
// and help
const (
	chromeRows  = 6
	minWaveRows = 3
	waveTop     = 1
	volumeStep  = 5
)

// Player is the playback surface the view drives
type Player interface {
	StartPlayback() error
	StopPlayback()
	SeekSample(sample int)
	Position() int
}

// Mixer is the optional software volume control
type Mixer interface {
	SetVolume(volume int)
	GetVolume() int
	SetMuted(muted bool)
	IsMuted() bool
}

// Config wires the model to its collaborators
type Config struct {
	Path      string
	Buffer    *audio.Buffer
	Player    Player
	Viewport  *viewport.Manager
	Selection *selection.Model
	Mixer     Mixer // optional

	// Export saves frames [start, end) and returns the written path (optional)
	Export func(start, end int) (string, error)
}

// gesture is the mouse interaction in progress
type gesture int

const (
	gestureNone gesture = iota
	gestureWave
	gestureScroll
)

// Model represents the TUI state
type Model struct {
	path   string
	buf    *audio.Buffer
	player Player
	view   *viewport.Manager
	sel    *selection.Model
	mixer  Mixer
	export func(start, end int) (string, error)

	// Playback as last reported by the controller
	playing  bool
	session  uuid.UUID
	position int
	reason   string

	// Provisional drag highlight, nil when not dragging
	highlight *selection.Range
	gesture   gesture

	notice   string
	quitting bool

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	return Model{
		path:   cfg.Path,
		buf:    cfg.Buffer,
		player: cfg.Player,
		view:   cfg.Viewport,
		sel:    cfg.Selection,
		mixer:  cfg.Mixer,
		export: cfg.Export,
		reason: "ready",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case playback.Started:
		m.playing = true
		m.session = msg.SessionID
		m.notice = ""
		if msg.Bounded {
			m.reason = "playing selection"
		} else {
			m.reason = "playing"
		}
	case playback.PositionChanged:
		m.applyPosition(msg)
	case playback.Stopped:
		if msg.SessionID == m.session {
			m.playing = false
			m.reason = msg.Reason.String()
			m.moveTo(msg.Position)
		}
	case playback.DeviceFailed:
		m.notice = fmt.Sprintf("Audio device error: %v", msg.Err)
	}

	return m, nil
}

// applyPosition follows the timing loop. Updates from a superseded session
// or arriving after the stop are ignored.
func (m *Model) applyPosition(msg playback.PositionChanged) {
	if !m.playing || msg.SessionID != m.session {
		return
	}
	m.moveTo(msg.Sample)
}

func (m *Model) moveTo(sample int) {
	m.position = sample
	m.view.Follow(sample)
}

// seek moves the controller position. While playing the display keeps
// following the timing loop.
func (m *Model) seek(sample int) {
	m.player.SeekSample(sample)
	if !m.playing {
		m.position = m.player.Position()
	}
}

// scroll applies a scrollbar command and seeks to the new center
func (m *Model) scroll(cmd viewport.ScrollCommand) {
	res := m.view.HandleScroll(cmd)
	m.seek(res.Center)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.player.StopPlayback()
		return m, tea.Quit
	case " ", "space", "p":
		if err := m.player.StartPlayback(); err != nil {
			m.notice = fmt.Sprintf("Playback failed: %v", err)
		}
	case "s":
		m.player.StopPlayback()
	case "left":
		m.scroll(viewport.Relative{Direction: -1, Unit: viewport.UnitStep})
	case "right":
		m.scroll(viewport.Relative{Direction: 1, Unit: viewport.UnitStep})
	case "pgup":
		m.scroll(viewport.Relative{Direction: -1, Unit: viewport.UnitPage})
	case "pgdown":
		m.scroll(viewport.Relative{Direction: 1, Unit: viewport.UnitPage})
	case "home":
		m.scroll(viewport.Absolute{Fraction: 0})
	case "end":
		m.scroll(viewport.Absolute{Fraction: 1})
	case "esc":
		m.sel.Clear()
		m.highlight = nil
	case "x":
		m.exportSelection()
	case "up":
		m.adjustVolume(volumeStep)
	case "down":
		m.adjustVolume(-volumeStep)
	case "m":
		if m.mixer != nil {
			m.mixer.SetMuted(!m.mixer.IsMuted())
		}
	}

	return m, nil
}

// exportSelection saves the committed selection when an exporter is set
func (m *Model) exportSelection() {
	if m.export == nil {
		return
	}
	r, ok := m.sel.Selection().(selection.Range)
	if !ok {
		m.notice = "Nothing selected to export"
		return
	}
	path, err := m.export(r.Start, r.End)
	if err != nil {
		log.Printf("Export failed: %v", err)
		m.notice = fmt.Sprintf("Export failed: %v", err)
		return
	}
	m.notice = fmt.Sprintf("Saved selection to %s", path)
}

func (m *Model) adjustVolume(delta int) {
	if m.mixer == nil {
		return
	}
	m.mixer.SetVolume(m.mixer.GetVolume() + delta)
}

// handleMouse feeds waveform gestures to the selection model and scrollbar
// gestures to the viewport
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.width <= 0 {
		return
	}
	rows := m.waveRows()
	onWave := msg.Y >= waveTop && msg.Y < waveTop+rows
	onScrollbar := msg.Y == m.scrollbarRow()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll(viewport.Relative{Direction: -1, Unit: viewport.UnitStep})
		case tea.MouseButtonWheelDown:
			m.scroll(viewport.Relative{Direction: 1, Unit: viewport.UnitStep})
		case tea.MouseButtonLeft:
			if onWave {
				m.gesture = gestureWave
				m.highlight = nil
				m.sel.Press(m.columnToSample(msg.X))
			} else if onScrollbar {
				m.gesture = gestureScroll
				m.scroll(viewport.Absolute{Fraction: columnFraction(msg.X, m.width)})
			}
		}

	case tea.MouseActionMotion:
		switch m.gesture {
		case gestureWave:
			if r, ok := m.sel.Move(m.columnToSample(msg.X)); ok {
				m.highlight = &r
			}
		case gestureScroll:
			m.scroll(viewport.Absolute{Fraction: columnFraction(msg.X, m.width)})
		}

	case tea.MouseActionRelease:
		g := m.gesture
		m.gesture = gestureNone
		if g != gestureWave {
			return
		}
		m.highlight = nil
		m.applyOutcome(m.sel.Release(m.columnToSample(msg.X)))
	}
}

// applyOutcome seeks on a click and reports a committed selection
func (m *Model) applyOutcome(out selection.Outcome) {
	switch o := out.(type) {
	case selection.Click:
		m.seek(o.Sample)
		if !m.playing {
			m.view.Follow(m.position)
		}
	case selection.Committed:
		if r, ok := o.Selection.(selection.Range); ok {
			rate := float64(m.buf.SampleRate)
			log.Printf("Start Time: %g s, End Time: %g s", float64(r.Start)/rate, float64(r.End)/rate)
		}
	}
}

// columnToSample maps a terminal column in the waveform to a sample index
func (m *Model) columnToSample(x int) int {
	return columnSample(m.view.Window(), m.width, x)
}

func (m Model) waveRows() int {
	rows := m.height - chromeRows
	if rows < minWaveRows {
		return minWaveRows
	}
	return rows
}

func (m Model) scrollbarRow() int {
	return waveTop + m.waveRows() + 1
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	w := m.view.Window()
	sel := m.sel.Selection()
	if m.highlight != nil {
		sel = *m.highlight
	}
	grid := waveGrid(m.buf, w, m.width, m.waveRows(), playheadColumn(w, m.width, m.position), sel)
	for _, line := range renderGrid(grid) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(renderRuler(w, m.width, m.buf.SampleRate))
	b.WriteString("\n")

	lo, hi := m.view.ScrollbarFraction()
	b.WriteString(renderScrollbar(lo, hi, m.width))
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	b.WriteString(noticeStyle.Render(truncate(m.notice, m.width)))
	b.WriteString("\n")

	b.WriteString(m.renderHelp())

	return b.String()
}

// renderHeader renders the file name and format
func (m Model) renderHeader() string {
	info := fmt.Sprintf(" %s  %dHz %s  %s",
		filepath.Base(m.path), m.buf.SampleRate, channelName(m.buf.Channels),
		formatClock(m.buf.Duration().Milliseconds()))
	return titleStyle.Render("Waveview") + truncate(info, max(m.width-8, 0))
}

// renderStatus renders position, selection and volume
func (m Model) renderStatus() string {
	icon := "■"
	if m.playing {
		icon = "▶"
	}

	s := fmt.Sprintf("%s %s / %s  [%s]", icon,
		formatClock(m.buf.FrameToMs(m.position)),
		formatClock(m.buf.Duration().Milliseconds()),
		m.reason)

	if r, ok := m.sel.Selection().(selection.Range); ok {
		s += fmt.Sprintf("  Selection: %s - %s",
			formatClock(m.buf.FrameToMs(r.Start)), formatClock(m.buf.FrameToMs(r.End)))
	}

	if m.mixer != nil {
		vol := fmt.Sprintf("  Volume: %d%%", m.mixer.GetVolume())
		if m.mixer.IsMuted() {
			vol += " (muted)"
		}
		s += vol
	}

	return truncate(s, m.width)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	help := "space/p:Play  s:Stop  ←/→:Step  PgUp/PgDn:Page  Home/End  esc:Clear  x:Export  ↑/↓:Volume  m:Mute  q:Quit"
	return helpStyle.Render(truncate(help, m.width))
}
