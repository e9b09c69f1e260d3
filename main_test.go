// ABOUTME: Tests for CLI flag handling and export sizing
// ABOUTME: Exercises override rules without touching the terminal
package main

import (
	"flag"
	"image"
	"strings"
	"testing"

	"github.com/binary-waterfall/waterfall-go/internal/config"
	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/colorformat"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

func TestExportSize(t *testing.T) {
	s := waterfall.DefaultSettings()
	s.Geometry.Width, s.Geometry.Height = 64, 32

	tests := []struct {
		value   string
		want    image.Point
		wantErr bool
	}{
		{"", image.Pt(512, 256), false},
		{"320x240", image.Pt(320, 240), false},
		{"320X240", image.Pt(320, 240), false},
		{"320", image.Point{}, true},
		{"0x10", image.Point{}, true},
		{"axb", image.Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := exportSize(tt.value, s, 512)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("exportSize(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestApplyFlagsOnlyOverridesSetFlags(t *testing.T) {
	cfg := config.Default()
	*width = 100
	*alignment = "end"
	*fps = 60
	*noAudio = true
	t.Cleanup(func() {
		*width = 0
		*alignment = ""
		*fps = 0
		*noAudio = false
	})

	if err := applyFlags(cfg, map[string]bool{"width": true, "alignment": true, "fps": true, "no-audio": true}); err != nil {
		t.Fatalf("applyFlags failed: %v", err)
	}

	if cfg.Waterfall.Geometry.Width != 100 {
		t.Errorf("expected width 100, got %d", cfg.Waterfall.Geometry.Width)
	}
	if cfg.Waterfall.Geometry.Height != 48 {
		t.Errorf("expected height to keep its default, got %d", cfg.Waterfall.Geometry.Height)
	}
	if cfg.Waterfall.Alignment != address.End {
		t.Errorf("expected alignment end, got %s", cfg.Waterfall.Alignment)
	}
	if cfg.Player.FPS != 60 || cfg.Export.FPS != 60 {
		t.Errorf("expected fps 60 for preview and export, got %d and %d", cfg.Player.FPS, cfg.Export.FPS)
	}
	if cfg.Player.Audio {
		t.Error("expected -no-audio to disable preview audio")
	}
}

func TestApplyFlagsRejectsBadAlignment(t *testing.T) {
	*alignment = "sideways"
	t.Cleanup(func() { *alignment = "" })

	if err := applyFlags(config.Default(), map[string]bool{"alignment": true}); err == nil {
		t.Error("expected error for unknown alignment")
	}
}

func TestFormatFlagExamplesParse(t *testing.T) {
	usage := flag.Lookup("format").Usage
	_, list, ok := strings.Cut(usage, "e.g. ")
	if !ok {
		t.Fatalf("no examples in usage %q", usage)
	}
	list, _, _ = strings.Cut(list, " (")

	for _, example := range strings.Split(list, ", ") {
		if _, err := colorformat.Parse(example); err != nil {
			t.Errorf("usage example %q does not parse: %v", example, err)
		}
	}
}
