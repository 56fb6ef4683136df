package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging and strict GPU buffer checks")
	flagModel  = flag.String("model", "", "Model file to open on startup")
	flagInput  = flag.String("input", "", "Input video or image folder for reconstruction")
	flagOutput = flag.String("output", "", "Reconstruction output root")
	flagPython = flag.String("python", "", "Python interpreter used for reconstruction")
	flagClock  = flag.String("clock", "", "Playback clock: wall or frame")
	flagWidth  = flag.Int("width", 0, "Window width")
	flagHeight = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ModelPath returns the model passed via --model, if any.
func ModelPath() string {
	return *flagModel
}

// InputPath returns the reconstruction input passed via --input, if any.
func InputPath() string {
	return *flagInput
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Playback.StrictBuffers = true
	}
	if *flagOutput != "" {
		cfg.Reconstruction.OutputRoot = *flagOutput
	}
	if *flagPython != "" {
		cfg.Reconstruction.Python = *flagPython
	}
	if *flagClock != "" {
		cfg.Playback.Clock = *flagClock
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
