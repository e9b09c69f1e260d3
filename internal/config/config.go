// ABOUTME: YAML settings file for the waterfall CLIs
// ABOUTME: Missing keys keep their defaults, loaded files are validated
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// Config represents the complete settings file
type Config struct {
	Waterfall waterfall.Settings `yaml:"waterfall"`
	Streaming bool               `yaml:"streaming"`  // read the input through a file handle
	DiskAudio bool               `yaml:"disk_audio"` // keep the audio artifact in a temp file
	Player    PlayerConfig       `yaml:"player"`
	Export    ExportConfig       `yaml:"export"`
	Server    ServerConfig       `yaml:"server"`
}

// PlayerConfig contains preview settings
type PlayerConfig struct {
	FPS             int  `yaml:"fps"`
	MaxDim          int  `yaml:"max_dim"` // longest side of scaled previews and exports
	PlayheadVisible bool `yaml:"playhead_visible"`
	Audio           bool `yaml:"audio"`
}

// ExportConfig contains image sequence settings
type ExportConfig struct {
	FPS         int    `yaml:"fps"`
	Format      string `yaml:"format"` // png, jpeg, bmp
	JPEGQuality int    `yaml:"jpeg_quality"`
	Workers     int    `yaml:"workers"` // 0 uses every CPU
}

// ServerConfig contains frame server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
	MDNS bool   `yaml:"mdns"`
}

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		Waterfall: waterfall.DefaultSettings(),
		Player: PlayerConfig{
			FPS:             120,
			MaxDim:          512,
			PlayheadVisible: true,
			Audio:           true,
		},
		Export: ExportConfig{
			FPS:         30,
			Format:      "png",
			JPEGQuality: 90,
		},
		Server: ServerConfig{
			Port: 8937,
			Name: "Binary Waterfall",
			MDNS: true,
		},
	}
}

// Load reads and parses a YAML configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes cfg as YAML
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
