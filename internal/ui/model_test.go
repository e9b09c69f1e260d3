// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests key handling, frame refresh and half-block rendering
package ui

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/binary-waterfall/waterfall-go/internal/player"
	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	data := make([]byte, 32000*10)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := waterfall.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	if err := e.Load(path); err != nil {
		t.Fatal(err)
	}

	now := time.Unix(0, 0)
	p := player.New(e, player.Config{FPS: 30, Now: func() time.Time { return now }})
	t.Cleanup(func() { p.Close() })
	return NewModel(e, p, true)
}

func press(m Model, key tea.KeyMsg) Model {
	updated, _ := m.Update(key)
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t)

	if !m.playhead {
		t.Error("expected playhead to be visible initially")
	}
	if m.hasFrame {
		t.Error("expected no frame before the first tick")
	}
	if m.View() != "Loading..." {
		t.Errorf("expected loading view before window size, got %q", m.View())
	}
}

func TestTickRefreshesFrame(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.Update(tickMsg(time.Now()))
	m = updated.(Model)

	if !m.hasFrame {
		t.Fatal("expected frame after tick")
	}
	if cmd == nil {
		t.Error("expected tick to schedule the next tick")
	}
	if len(m.snapshot.RGB) != 48*48*3 {
		t.Errorf("expected 48x48 frame, got %d bytes", len(m.snapshot.RGB))
	}
}

func TestTransportKeys(t *testing.T) {
	m := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if pos := m.player.Position(); pos != 5000 {
		t.Errorf("expected 5000ms after right, got %d", pos)
	}

	m = press(m, runes("."))
	if pos := m.player.Position(); pos != 5033 {
		t.Errorf("expected 5033ms after frame step, got %d", pos)
	}

	m = press(m, runes(","))
	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if pos := m.player.Position(); pos != 0 {
		t.Errorf("expected 0ms after left, got %d", pos)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.player.Playing() {
		t.Error("expected space to start playback")
	}
	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.player.Playing() {
		t.Error("expected space to pause playback")
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(m, runes("r"))
	if pos := m.player.Position(); pos != 0 {
		t.Errorf("expected restart to return to 0, got %d", pos)
	}
}

func TestSettingKeys(t *testing.T) {
	m := newTestModel(t)

	m = press(m, runes("v"))
	if m.engine.Settings().Flip.Vertical {
		t.Error("expected v to toggle vertical flip off")
	}
	m = press(m, runes("h"))
	if !m.engine.Settings().Flip.Horizontal {
		t.Error("expected h to toggle horizontal flip on")
	}

	m = press(m, runes("a"))
	if a := m.engine.Settings().Alignment; a != address.End {
		t.Errorf("expected alignment end after middle, got %s", a)
	}
	m = press(m, runes("a"))
	if a := m.engine.Settings().Alignment; a != address.Start {
		t.Errorf("expected alignment to wrap to start, got %s", a)
	}

	m = press(m, runes("p"))
	if m.playhead {
		t.Error("expected p to hide the playhead")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !updated.(Model).quitting {
		t.Error("expected quitting state")
	}
}

func TestViewRendersFrame(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 26})
	m = updated.(Model)
	updated, _ = m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	updated, _ = m.Update(StatusMsg{Text: "exported"})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"Binary Waterfall", "sample.bin", "bgrx", "▀", "0:00.000 / 0:10.000", "exported"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestRenderCells(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})

	out := renderCells(img)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 terminal rows for 3 pixel rows, got %d", len(lines))
	}
	if n := strings.Count(lines[0], "▀"); n != 3 {
		t.Errorf("expected 3 cells per row, got %d", n)
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00.000"},
		{1500, "0:01.500"},
		{61_001, "1:01.001"},
	}
	for _, tt := range tests {
		if got := formatMs(tt.ms); got != tt.want {
			t.Errorf("formatMs(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a very long file name.bin", 10); got != "a very ..." {
		t.Errorf("expected truncated string, got %q", got)
	}
}
