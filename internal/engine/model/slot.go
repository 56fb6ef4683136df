package model

import (
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/logger"
)

// Slot holds the model currently on screen. A failed load leaves the
// previous model in place.
type Slot struct {
	dev     gpu.Device
	opts    Options
	current *Model
}

// NewSlot creates an empty slot building models on dev.
func NewSlot(dev gpu.Device, opts Options) *Slot {
	return &Slot{dev: dev, opts: opts}
}

// Load builds path and swaps it in, releasing the old model.
func (s *Slot) Load(path string) error {
	m, err := Load(path, s.dev, s.opts)
	if err != nil {
		logger.Named("model").Warn("load failed, keeping previous model",
			zap.String("path", path), zap.Error(err))
		return err
	}
	if s.current != nil {
		s.current.Release()
	}
	s.current = m
	return nil
}

// Model returns the current model or nil.
func (s *Slot) Model() *Model {
	return s.current
}

// Path returns the path of the current model, empty when none is loaded.
func (s *Slot) Path() string {
	if s.current == nil {
		return ""
	}
	return s.current.Path
}

// Release frees the current model.
func (s *Slot) Release() {
	if s.current != nil {
		s.current.Release()
		s.current = nil
	}
}
