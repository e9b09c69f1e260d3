// ABOUTME: Engine settings and functional options
// ABOUTME: Defaults follow the stock waterfall configuration
package waterfall

import (
	"fmt"

	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/audio"
	"github.com/binary-waterfall/waterfall-go/pkg/colorformat"
	"github.com/binary-waterfall/waterfall-go/pkg/frame"
)

// DefaultColorFormat is the format used when none is configured
const DefaultColorFormat = "bgrx"

// Settings is the full mapping configuration of an engine
type Settings struct {
	Geometry    frame.Geometry    `yaml:"geometry" json:"geometry"`
	ColorFormat string            `yaml:"color_format" json:"color_format"`
	Audio       audio.Params      `yaml:"audio" json:"audio"`
	Alignment   address.Alignment `yaml:"alignment" json:"alignment"`
	Flip        frame.Flip        `yaml:"flip" json:"flip"`
}

// DefaultSettings returns the stock configuration
func DefaultSettings() Settings {
	return Settings{
		Geometry:    frame.Geometry{Width: 48, Height: 48},
		ColorFormat: DefaultColorFormat,
		Audio:       audio.DefaultParams(),
		Alignment:   address.Middle,
		Flip:        frame.Flip{Vertical: true},
	}
}

// Validate checks every field and returns the first failure as a *ValidationError
func (s Settings) Validate() error {
	_, err := s.parse()
	return err
}

func (s Settings) parse() (colorformat.Spec, error) {
	if err := s.Geometry.Validate(); err != nil {
		return colorformat.Spec{}, invalid("geometry", err)
	}
	spec, err := colorformat.Parse(s.ColorFormat)
	if err != nil {
		return colorformat.Spec{}, invalid("color format", err)
	}
	if err := s.Audio.Validate(); err != nil {
		return colorformat.Spec{}, invalid("audio params", err)
	}
	if !s.Alignment.Valid() {
		return colorformat.Spec{}, invalid("alignment", fmt.Errorf("unknown alignment %d", int(s.Alignment)))
	}
	return spec, nil
}

type options struct {
	settings  Settings
	streaming bool
	diskAudio bool
	scratch   string
}

// Option configures an Engine at construction
type Option func(*options)

// WithSettings replaces the default settings
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithStreaming reads the source through a file handle instead of loading
// it into memory
func WithStreaming(streaming bool) Option {
	return func(o *options) {
		o.streaming = streaming
	}
}

// WithDiskAudio stores the audio artifact as a temp file instead of in memory
func WithDiskAudio(disk bool) Option {
	return func(o *options) {
		o.diskAudio = disk
	}
}

// WithScratchDir sets the parent directory for disk artifacts. The engine
// creates and removes its own subdirectory inside it.
func WithScratchDir(dir string) Option {
	return func(o *options) {
		o.scratch = dir
	}
}
