package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1600 || cfg.Window.Height != 900 {
		t.Errorf("expected 1600x900, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.ViewportSize != 512 {
		t.Errorf("expected viewport 512, got %d", cfg.Window.ViewportSize)
	}
	if cfg.Reconstruction.OutputRoot != "output" {
		t.Errorf("expected output root 'output', got %s", cfg.Reconstruction.OutputRoot)
	}
	if cfg.Playback.FPS != 30 {
		t.Errorf("expected fps 30, got %v", cfg.Playback.FPS)
	}
	if cfg.Playback.Clock != ClockWall {
		t.Errorf("expected wall clock, got %s", cfg.Playback.Clock)
	}
	if cfg.Playback.StrictBuffers {
		t.Error("expected strict buffers off by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
reconstruction:
  python: /opt/venv/bin/python
  output_root: /data/out
  timeout: 90m
playback:
  fps: 24
  looping: false
  clock: frame
logging:
  level: debug
  log_file: facemorph.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Window.Width)
	}
	if cfg.Reconstruction.Python != "/opt/venv/bin/python" {
		t.Errorf("unexpected python %s", cfg.Reconstruction.Python)
	}
	if cfg.Reconstruction.Timeout != 90*time.Minute {
		t.Errorf("expected timeout 90m, got %v", cfg.Reconstruction.Timeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Reconstruction.Script != "scripts/reconstruct.py" {
		t.Errorf("expected default script, got %s", cfg.Reconstruction.Script)
	}
	if cfg.Playback.FPS != 24 || cfg.Playback.Looping || cfg.Playback.Clock != ClockFrame {
		t.Errorf("unexpected playback %+v", cfg.Playback)
	}
	if cfg.Logging.LogFile != "facemorph.log" {
		t.Errorf("expected log file facemorph.log, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: wide\n  nonsense here\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fps", func(c *Config) { c.Playback.FPS = 0 }},
		{"negative speed", func(c *Config) { c.Playback.Speed = -1 }},
		{"unknown clock", func(c *Config) { c.Playback.Clock = "sundial" }},
		{"zero viewport", func(c *Config) { c.Window.ViewportSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "facemorph.yaml"), []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find facemorph.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Playback.StrictBuffers {
					t.Error("expected strict buffers with debug flag")
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "output flag",
			setup: func() { *flagOutput = "/tmp/recon" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Reconstruction.OutputRoot != "/tmp/recon" {
					t.Errorf("expected output /tmp/recon, got %s", cfg.Reconstruction.OutputRoot)
				}
			},
			teardown: func() { *flagOutput = "" },
		},
		{
			name:  "clock flag",
			setup: func() { *flagClock = ClockFrame },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Playback.Clock != ClockFrame {
					t.Errorf("expected frame clock, got %s", cfg.Playback.Clock)
				}
			},
			teardown: func() { *flagClock = "" },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 1280\n  height: 720\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Playback.FPS = 60
	cfg.Reconstruction.Timeout = 5 * time.Minute
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Playback.FPS != 60 || loaded.Reconstruction.Timeout != 5*time.Minute {
		t.Errorf("saved values not restored: %+v", loaded)
	}
}
