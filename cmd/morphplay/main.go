// Package main is a minimal SDL2 player for morph-animated face models.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/config"
	"github.com/Faultbox/facemorph/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Morph Player ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	p, err := NewPlayer(cfg)
	if err != nil {
		logger.Error("failed to create player", zap.Error(err))
		os.Exit(1)
	}
	defer p.Close()

	path := config.ModelPath()
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path != "" {
		p.Open(path)
	}

	p.Run()
	logger.Info("player closed normally")
}
