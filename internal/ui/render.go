// ABOUTME: Waveform, ruler and scrollbar rendering for the TUI
// ABOUTME: Pure functions that map sample windows onto terminal cells
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/waveview/internal/selection"
	"github.com/Resonate-Protocol/waveview/internal/viewport"
	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/charmbracelet/lipgloss"
)

// rulerStep is the spacing of time labels in seconds
const rulerStep = 5

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	waveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("238"))

	playheadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	rulerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	thumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// cellKind is how one waveform cell is drawn
type cellKind int

const (
	cellEmpty cellKind = iota
	cellWave
	cellSelected
	cellSelectedWave
	cellPlayhead
)

// waveGrid computes the cell kinds for the visible window. Rows run top
// to bottom; the playhead column is -1 when the position is off screen.
func waveGrid(buf *audio.Buffer, w viewport.Window, cols, rows, playhead int, sel selection.Selection) [][]cellKind {
	grid := make([][]cellKind, rows)
	for r := range grid {
		grid[r] = make([]cellKind, cols)
	}
	if cols <= 0 || rows <= 0 {
		return grid
	}

	peaks := buf.Peaks(w.Start, w.End, cols)
	selFrom, selTo := selectedColumns(w, cols, sel)

	for c, p := range peaks {
		top := amplitudeRow(p.Max, rows)
		bottom := amplitudeRow(p.Min, rows)
		selected := c >= selFrom && c < selTo

		for r := 0; r < rows; r++ {
			filled := r >= top && r <= bottom
			switch {
			case c == playhead:
				grid[r][c] = cellPlayhead
			case selected && filled:
				grid[r][c] = cellSelectedWave
			case selected:
				grid[r][c] = cellSelected
			case filled:
				grid[r][c] = cellWave
			}
		}
	}

	return grid
}

// renderGrid turns cell kinds into styled rows, batching runs of the same
// kind into one Render call
func renderGrid(grid [][]cellKind) []string {
	lines := make([]string, len(grid))
	for r, row := range grid {
		var b strings.Builder
		for c := 0; c < len(row); {
			kind := row[c]
			run := 1
			for c+run < len(row) && row[c+run] == kind {
				run++
			}
			b.WriteString(renderCells(kind, run))
			c += run
		}
		lines[r] = b.String()
	}
	return lines
}

func renderCells(kind cellKind, n int) string {
	switch kind {
	case cellWave:
		return waveStyle.Render(strings.Repeat("█", n))
	case cellSelected:
		return selectedStyle.Render(strings.Repeat(" ", n))
	case cellSelectedWave:
		return selectedStyle.Render(strings.Repeat("█", n))
	case cellPlayhead:
		return playheadStyle.Render(strings.Repeat("│", n))
	default:
		return strings.Repeat(" ", n)
	}
}

// amplitudeRow maps a sample value to a row, 0 being the top
func amplitudeRow(v int16, rows int) int {
	return int((32768 - int32(v)) * int32(rows-1) / 65535)
}

// selectedColumns returns the column span [from, to) covered by sel
func selectedColumns(w viewport.Window, cols int, sel selection.Selection) (int, int) {
	r, ok := sel.(selection.Range)
	if !ok || r.Len() == 0 || w.Width() <= 0 {
		return 0, 0
	}
	from := sampleColumn(w, cols, r.Start)
	to := sampleColumn(w, cols, r.End)
	if from < 0 {
		from = 0
	}
	if to > cols {
		to = cols
	}
	if to == from && r.Start < w.End && r.End > w.Start {
		to = from + 1
	}
	return from, to
}

// sampleColumn maps a sample to a column; it may fall outside [0, cols)
func sampleColumn(w viewport.Window, cols, sample int) int {
	if w.Width() <= 0 {
		return 0
	}
	offset := sample - w.Start
	if offset < 0 {
		return -1 + (offset*cols)/w.Width()
	}
	return offset * cols / w.Width()
}

// columnSample maps a column back to the first sample it shows
func columnSample(w viewport.Window, cols, col int) int {
	if cols <= 0 {
		return w.Start
	}
	if col < 0 {
		col = 0
	}
	if col > cols {
		col = cols
	}
	return w.Start + col*w.Width()/cols
}

// playheadColumn returns the column of position or -1 when off screen
func playheadColumn(w viewport.Window, cols, position int) int {
	if position < w.Start || position > w.End || cols <= 0 {
		return -1
	}
	c := sampleColumn(w, cols, position)
	if c >= cols {
		c = cols - 1
	}
	return c
}

// formatSeconds labels a tick at every multiple of rulerStep seconds
func formatSeconds(seconds int) string {
	if seconds%rulerStep != 0 {
		return ""
	}
	return fmt.Sprintf("%d s", seconds)
}

// renderRuler places a label at the first column of every labelled second
func renderRuler(w viewport.Window, cols, sampleRate int) string {
	line := []rune(strings.Repeat(" ", cols))
	if sampleRate <= 0 || w.Width() <= 0 {
		return string(line)
	}

	prev := -1
	for c := 0; c < cols; c++ {
		sec := columnSample(w, cols, c) / sampleRate
		if c > 0 && sec == prev {
			continue
		}
		prev = sec
		label := formatSeconds(sec)
		if label == "" || c+len(label) > cols {
			continue
		}
		if c > 0 && line[c-1] != ' ' {
			continue
		}
		copy(line[c:], []rune(label))
	}

	return rulerStyle.Render(string(line))
}

// scrollbarCells returns the thumb span [from, to) for the given fractions
func scrollbarCells(lo, hi float64, cols int) (int, int) {
	from := int(lo * float64(cols))
	to := int(hi*float64(cols) + 0.5)
	if to <= from {
		to = from + 1
	}
	if to > cols {
		to = cols
	}
	if from >= to && cols > 0 {
		from = to - 1
	}
	return from, to
}

func renderScrollbar(lo, hi float64, cols int) string {
	from, to := scrollbarCells(lo, hi, cols)
	return trackStyle.Render(strings.Repeat("░", from)) +
		thumbStyle.Render(strings.Repeat("█", to-from)) +
		trackStyle.Render(strings.Repeat("░", cols-to))
}

// columnFraction maps a scrollbar column to a buffer fraction
func columnFraction(col, cols int) float64 {
	if cols <= 1 {
		return 0
	}
	f := float64(col) / float64(cols-1)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// formatClock renders milliseconds as mm:ss.mmm
func formatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	if length <= 3 {
		return string(runes[:max(length, 0)])
	}
	return string(runes[:length-3]) + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
