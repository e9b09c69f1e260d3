// ABOUTME: Server TUI for displaying connected clients and stats
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ServerTUI manages the server TUI
type ServerTUI struct {
	program  *tea.Program
	updates  chan ServerStatus
	quitChan chan struct{} // Signal to stop the server
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name       string
	Port       int
	File       string
	DurationMs int64
	Format     string
	Clients    []ClientInfo
}

// ClientInfo holds client information for display
type ClientInfo struct {
	Name      string
	ID        string
	Frames    int64
	Streaming bool
}

// tuiModel is the bubbletea model for server TUI
type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg ServerStatus

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

var (
	tuiTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	tuiLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	tuiClient = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	tuiHelp   = lipgloss.NewStyle().Faint(true)
)

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", tuiLabel.Render(label+":"), tuiValue.Render(value))
	}

	b.WriteString(tuiTitle.Render("Binary Waterfall Server") + "\n\n")

	row("Server", m.status.Name)
	row("Port", fmt.Sprintf("%d", m.status.Port))
	row("Uptime", time.Since(m.startTime).Round(time.Second).String())

	file := m.status.File
	switch {
	case file == "":
		file = "(no file)"
	case m.status.DurationMs > 0:
		file += fmt.Sprintf(" (%s)", time.Duration(m.status.DurationMs)*time.Millisecond)
	}
	row("File", file)
	row("Frame", m.status.Format)

	b.WriteString("\n" + tuiClient.Render(fmt.Sprintf("Connected Clients (%d)", len(m.status.Clients))) + "\n\n")
	if len(m.status.Clients) == 0 {
		b.WriteString(tuiValue.Render("  No clients connected") + "\n")
	}
	for _, c := range m.status.Clients {
		state := "idle"
		if c.Streaming {
			state = "streaming"
		}
		fmt.Fprintf(&b, "  • %s%s\n", c.Name, tuiValue.Render(fmt.Sprintf(" (%d frames, %s)", c.Frames, state)))
	}

	b.WriteString("\n" + tuiHelp.Render("Press 'q' or Ctrl+C to quit"))
	return b.String()
}

// NewServerTUI creates a new server TUI
func NewServerTUI() *ServerTUI {
	return &ServerTUI{
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
	}
}

// Start runs the TUI until it quits
func (t *ServerTUI) Start(serverName string, port int) error {
	m := tuiModel{
		status: ServerStatus{
			Name:    serverName,
			Port:    port,
			Clients: []ClientInfo{},
		},
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for status := range t.updates {
			t.program.Send(statusMsg(status))
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *ServerTUI) Update(status ServerStatus) {
	select {
	case t.updates <- status:
	default:
	}
}

// Stop stops the TUI. Update must not be called afterwards.
func (t *ServerTUI) Stop() {
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
