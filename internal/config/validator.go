// ABOUTME: Validation and normalization for loaded configuration
// ABOUTME: Out-of-range player fps is clamped, everything else is rejected
package config

import (
	"fmt"

	"github.com/binary-waterfall/waterfall-go/pkg/frame"
)

const (
	MinPlayerFPS = 1
	MaxPlayerFPS = 120
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if err := cfg.Waterfall.Validate(); err != nil {
		return err
	}

	cfg.Player.FPS = ClampFPS(cfg.Player.FPS)
	if cfg.Player.MaxDim < frame.MinDimension {
		return fmt.Errorf("player.max_dim must be at least %d", frame.MinDimension)
	}

	if cfg.Export.FPS <= 0 {
		return fmt.Errorf("export.fps must be > 0")
	}
	switch cfg.Export.Format {
	case "png", "jpeg", "bmp":
	case "jpg":
		cfg.Export.Format = "jpeg"
	default:
		return fmt.Errorf("export.format must be png, jpeg or bmp, got %q", cfg.Export.Format)
	}
	if cfg.Export.JPEGQuality < 1 || cfg.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be 1-100")
	}
	if cfg.Export.Workers < 0 {
		return fmt.Errorf("export.workers must be >= 0")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535")
	}
	if cfg.Server.Name == "" {
		cfg.Server.Name = "Binary Waterfall"
	}

	return nil
}

// ClampFPS limits a preview frame rate to the supported range
func ClampFPS(fps int) int {
	if fps < MinPlayerFPS {
		return MinPlayerFPS
	}
	if fps > MaxPlayerFPS {
		return MaxPlayerFPS
	}
	return fps
}
