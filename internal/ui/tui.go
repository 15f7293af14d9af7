// ABOUTME: TUI initialization and control
// ABOUTME: Runs the bubbletea program and forwards playback events into it
package ui

import (
	"github.com/Resonate-Protocol/waveview/internal/playback"
	tea "github.com/charmbracelet/bubbletea"
)

// TUI owns the bubbletea program for the viewer
type TUI struct {
	program *tea.Program
	events  <-chan playback.Event
}

// New creates a TUI for the model. events is usually Controller.Events().
func New(model Model, events <-chan playback.Event, opts ...tea.ProgramOption) *TUI {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)
	return &TUI{
		program: tea.NewProgram(model, opts...),
		events:  events,
	}
}

// Run blocks until the user quits
func (t *TUI) Run() error {
	// Forward until the controller closes its event channel
	go func() {
		for ev := range t.events {
			t.program.Send(ev)
		}
	}()

	_, err := t.program.Run()
	return err
}

// Stop asks the program to exit
func (t *TUI) Stop() {
	t.program.Quit()
}
