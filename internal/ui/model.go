// ABOUTME: Bubbletea model for the waterfall preview
// ABOUTME: Renders frames as half-block cells and maps keys to transport controls
package ui

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/binary-waterfall/waterfall-go/internal/player"
	"github.com/binary-waterfall/waterfall-go/internal/render"
	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// lines used by the header, status and help around the frame
const chromeLines = 6

// Model represents the TUI state
type Model struct {
	engine *waterfall.Engine
	player *player.Player

	snapshot waterfall.Snapshot
	hasFrame bool
	err      error
	status   string

	playhead bool
	quitting bool

	// Dimensions
	width  int
	height int
}

type tickMsg time.Time

// StatusMsg shows a one-line message under the frame
type StatusMsg struct {
	Text string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Init starts the frame ticker
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.player.FrameInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, m.tick()
	case StatusMsg:
		m.status = msg.Text
	}

	return m, nil
}

// refresh pulls the frame for the current position
func (m *Model) refresh() {
	snap, err := m.player.Tick()
	if err != nil {
		m.err = err
		return
	}
	m.snapshot = snap
	m.hasFrame = true
	m.err = nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		if err := m.player.Toggle(); err != nil {
			m.err = err
		}
	case "left":
		m.player.Back(player.DefaultJumpMs)
	case "right":
		m.player.Forward(player.DefaultJumpMs)
	case ",":
		m.player.StepBack()
	case ".":
		m.player.StepForward()
	case "r":
		m.player.Restart()
	case "v":
		f := m.engine.Settings().Flip
		f.Vertical = !f.Vertical
		m.engine.SetFlip(f)
	case "h":
		f := m.engine.Settings().Flip
		f.Horizontal = !f.Horizontal
		m.engine.SetFlip(f)
	case "a":
		m.engine.SetAlignment(nextAlignment(m.engine.Settings().Alignment))
	case "p":
		m.playhead = !m.playhead
	case "m":
		m.player.ToggleMute()
	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

func nextAlignment(a address.Alignment) address.Alignment {
	switch a {
	case address.Start:
		return address.Middle
	case address.Middle:
		return address.End
	}
	return address.Start
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Closing...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderFrame())
	b.WriteString(m.renderStatus())
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders file name and stream format
func (m Model) renderHeader() string {
	name := "(no file)"
	if path := m.engine.Path(); path != "" {
		name = filepath.Base(path)
	}
	s := m.engine.Settings()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Binary Waterfall"))
	b.WriteString("  ")
	b.WriteString(valueStyle.Render(truncate(name, 40)))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Frame: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%dx%d %s %s", s.Geometry.Width, s.Geometry.Height, s.ColorFormat, s.Alignment)))
	b.WriteString(headerStyle.Render("  Audio: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%dHz %s %d-bit %d%%",
		s.Audio.SampleRate, channelName(s.Audio.Channels), s.Audio.BitDepth(), s.Audio.Volume)))
	b.WriteString("\n")
	return b.String()
}

// renderFrame renders the current frame scaled to the terminal
func (m Model) renderFrame() string {
	if !m.hasFrame {
		return "\n"
	}

	g := m.snapshot.Geometry
	img, err := render.ToImage(m.snapshot.RGB, g.Width, g.Height)
	if err != nil {
		return errorStyle.Render(err.Error()) + "\n"
	}
	if m.playhead {
		render.DrawPlayhead(img, render.PlayheadRow(g.Height, m.snapshot.Alignment, m.snapshot.Flip))
	}

	rows := m.height - chromeLines
	if rows < 1 {
		rows = 1
	}
	fit, _ := render.FitSize(img.Bounds().Size(), image.Pt(m.width, rows*2))
	if fit.X < 1 || fit.Y < 1 {
		return "\n"
	}
	return renderCells(render.FitToFrame(img, fit))
}

// renderCells draws two pixel rows per terminal row using upper half blocks
func renderCells(img *image.RGBA) string {
	var b strings.Builder
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := img.RGBAAt(x, y)
			style := lipgloss.NewStyle().Foreground(hexColor(top.R, top.G, top.B))
			if y+1 < bounds.Max.Y {
				bottom := img.RGBAAt(x, y+1)
				style = style.Background(hexColor(bottom.R, bottom.G, bottom.B))
			}
			b.WriteString(style.Render("▀"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func hexColor(r, g, b uint8) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// renderStatus renders position, address and messages
func (m Model) renderStatus() string {
	state := m.player.State()
	icon := "⏸"
	if state.Playing {
		icon = "▶"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s / %s", icon, formatMs(state.PositionMs), formatMs(state.DurationMs)))
	if m.hasFrame {
		b.WriteString(valueStyle.Render(fmt.Sprintf("  addr 0x%08x", m.snapshot.Address)))
	}
	if m.playhead {
		b.WriteString(valueStyle.Render("  playhead"))
	}
	if state.Muted {
		b.WriteString(valueStyle.Render("  muted"))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(valueStyle.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("space:Play  ←/→:5s  ,/.:Frame  r:Restart  v/h:Flip  a:Align  p:Playhead  m:Mute  q:Quit")
}

// Utility functions
func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, ms%1000)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
