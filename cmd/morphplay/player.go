package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/config"
	"github.com/Faultbox/facemorph/internal/engine/camera"
	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/engine/input"
	"github.com/Faultbox/facemorph/internal/engine/model"
	"github.com/Faultbox/facemorph/internal/engine/renderer"
	"github.com/Faultbox/facemorph/internal/engine/window"
	"github.com/Faultbox/facemorph/internal/logger"
	"github.com/Faultbox/facemorph/internal/timeline"
)

// Player plays one model in its own window.
type Player struct {
	cfg      *config.Config
	log      *zap.Logger
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	slot     *model.Slot
	playhead *timeline.Playhead

	// seconds is the wall-clock playback position.
	seconds   float64
	paused    bool
	frameMode bool
}

// NewPlayer creates the window and GL resources.
func NewPlayer(cfg *config.Config) (*Player, error) {
	p := &Player{
		cfg:       cfg,
		log:       logger.Named("player"),
		input:     input.New(),
		camera:    camera.NewOrbitCamera(),
		playhead:  timeline.NewPlayhead(cfg.Playback.FPS, 0),
		frameMode: cfg.Playback.Clock == config.ClockFrame,
	}
	p.playhead.Speed = cfg.Playback.Speed
	p.playhead.Loop = cfg.Playback.Looping

	var err error
	p.window, err = window.New("Morph Player", cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context the window just created.
	p.renderer, err = renderer.New()
	if err != nil {
		p.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	p.slot = model.NewSlot(gpu.GL{}, model.Options{Strict: cfg.Playback.StrictBuffers})
	return p, nil
}

// Open loads path, keeping the current model when it fails.
func (p *Player) Open(path string) {
	if err := p.slot.Load(path); err != nil {
		p.log.Error("cannot open model", zap.String("path", path), zap.Error(err))
		return
	}
	m := p.slot.Model()
	p.camera.FitToBounds(m.Bounds)
	p.playhead.SetFrames(m.KeyCount())
	p.playhead.Seek(0)
	p.seconds = 0
	p.window.SetTitle("Morph Player - " + filepath.Base(path))
}

// Run drives the loop until the window closes.
func (p *Player) Run() {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	for {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if p.input.Update() {
			return
		}
		p.handleEvents()
		p.update(dt)
		p.render()
		p.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			p.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

func (p *Player) handleEvents() {
	for _, e := range p.input.Events() {
		switch e.Type {
		case input.EventDrag:
			p.camera.HandleDrag(e.DX, e.DY)
		case input.EventWheel:
			p.camera.HandleZoom(e.DY)
		case input.EventDrop:
			p.Open(e.Path)
		case input.EventKeyDown:
			p.handleKey(e.Key)
		}
	}
}

func (p *Player) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_SPACE:
		if p.frameMode {
			p.playhead.Toggle()
		} else {
			p.paused = !p.paused
		}
	case sdl.SCANCODE_LEFT:
		p.step(-1)
	case sdl.SCANCODE_RIGHT:
		p.step(1)
	case sdl.SCANCODE_W:
		// Back to the wall clock, resuming from the playhead position.
		p.frameMode = false
		p.paused = false
		p.seconds = float64(p.playhead.Frame()) / float64(p.playhead.FPS)
	case sdl.SCANCODE_R:
		if m := p.slot.Model(); m != nil {
			p.camera.FitToBounds(m.Bounds)
		}
	}
}

// step pauses and moves one key, switching to frame playback.
func (p *Player) step(delta int) {
	p.frameMode = true
	p.playhead.Pause()
	p.playhead.Step(delta)
}

func (p *Player) update(dt float64) {
	m := p.slot.Model()
	if m == nil {
		return
	}
	if p.frameMode {
		frame, alpha := p.playhead.Advance(float32(dt))
		m.SetFrame(frame, alpha)
		return
	}
	if !p.paused {
		p.seconds += dt * float64(p.playhead.Speed)
	}
	m.AdvanceToTime(p.seconds)
}

func (p *Player) render() {
	w, h := p.window.DrawableSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0.1, 0.1, 0.12, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	p.renderer.Draw(p.slot.Model(), p.camera, w, h)
}

// Close releases everything in reverse order of creation.
func (p *Player) Close() {
	p.log.Info("closing player")
	p.slot.Release()
	if p.renderer != nil {
		p.renderer.Close()
	}
	if p.window != nil {
		p.window.Close()
	}
}
