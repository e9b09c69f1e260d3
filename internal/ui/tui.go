// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the waterfall preview
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/binary-waterfall/waterfall-go/internal/player"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// NewModel creates a new TUI model
func NewModel(engine *waterfall.Engine, p *player.Player, playhead bool) Model {
	return Model{
		engine:   engine,
		player:   p,
		playhead: playhead,
	}
}

// Run creates the TUI program. The caller runs it.
func Run(engine *waterfall.Engine, p *player.Player, playhead bool) *tea.Program {
	return tea.NewProgram(NewModel(engine, p, playhead), tea.WithAltScreen())
}
