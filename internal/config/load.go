package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later at runtime.
func (c *Config) Validate() error {
	if c.Playback.FPS <= 0 {
		return fmt.Errorf("%w: playback.fps must be positive, got %v", ErrInvalid, c.Playback.FPS)
	}
	if c.Playback.Speed < 0 {
		return fmt.Errorf("%w: playback.speed must not be negative, got %v", ErrInvalid, c.Playback.Speed)
	}
	switch c.Playback.Clock {
	case ClockWall, ClockFrame:
	default:
		return fmt.Errorf("%w: playback.clock must be %q or %q, got %q", ErrInvalid, ClockWall, ClockFrame, c.Playback.Clock)
	}
	if c.Window.ViewportSize <= 0 {
		return fmt.Errorf("%w: window.viewport_size must be positive", ErrInvalid)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./facemorph.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "FaceMorph")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "FaceMorph")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "facemorph")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "facemorph")
	}
}

// loadFromFile merges a YAML file over the existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
