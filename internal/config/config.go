// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all application settings.
type Config struct {
	Window         WindowConfig         `yaml:"window"`
	Reconstruction ReconstructionConfig `yaml:"reconstruction"`
	Playback       PlaybackConfig       `yaml:"playback"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// WindowConfig holds display and viewport settings.
type WindowConfig struct {
	Width        int  `yaml:"width"`
	Height       int  `yaml:"height"`
	VSync        bool `yaml:"vsync"`
	ViewportSize int  `yaml:"viewport_size"` // Offscreen render target edge, pixels
}

// ReconstructionConfig describes how the external reconstruction pipeline is invoked.
type ReconstructionConfig struct {
	Python         string        `yaml:"python"`
	Script         string        `yaml:"script"`
	ExporterScript string        `yaml:"exporter_script"`
	OutputRoot     string        `yaml:"output_root"`
	Timeout        time.Duration `yaml:"timeout"` // 0 disables the limit
	WatchOutput    bool          `yaml:"watch_output"`
}

// PlaybackConfig holds morph animation playback settings.
type PlaybackConfig struct {
	FPS           float32 `yaml:"fps"`
	Speed         float32 `yaml:"speed"`
	Looping       bool    `yaml:"looping"`
	Clock         string  `yaml:"clock"`          // "wall" or "frame"
	StrictBuffers bool    `yaml:"strict_buffers"` // Panic on buffer size mismatches
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Clock modes for PlaybackConfig.Clock.
const (
	ClockWall  = "wall"
	ClockFrame = "frame"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:        1600,
			Height:       900,
			VSync:        true,
			ViewportSize: 512,
		},
		Reconstruction: ReconstructionConfig{
			Python:         "python3",
			Script:         "scripts/reconstruct.py",
			ExporterScript: "scripts/obj2glb.py",
			OutputRoot:     "output",
			Timeout:        0,
			WatchOutput:    true,
		},
		Playback: PlaybackConfig{
			FPS:     30,
			Speed:   1.0,
			Looping: true,
			Clock:   ClockWall,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
