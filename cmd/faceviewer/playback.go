package main

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/config"
	"github.com/Faultbox/facemorph/internal/engine/ui"
)

// keyMarkerEvery spaces the key diamonds drawn on the timeline.
const keyMarkerEvery = 15

// frameMode reports whether playback follows the playhead instead of the
// wall clock.
func (app *App) frameMode() bool {
	return app.cfg.Playback.Clock == config.ClockFrame
}

// advance updates the primary model for this frame.
func (app *App) advance(dt float32) {
	m := app.primary.Model()
	if m == nil || !m.Animated() {
		return
	}
	if app.frameMode() {
		frame, alpha := app.playhead.Advance(dt)
		m.SetFrame(frame, alpha)
		return
	}
	m.AdvanceToTime(app.clock.Seconds())
}

func (app *App) playing() bool {
	if app.frameMode() {
		return app.playhead.Playing()
	}
	return !app.clock.Paused()
}

func (app *App) togglePlay() {
	if app.frameMode() {
		app.playhead.Toggle()
	} else {
		app.clock.Toggle()
	}
}

// stepFrame pauses and moves the playhead, switching to frame playback.
func (app *App) stepFrame(delta int) {
	app.setClock(config.ClockFrame)
	app.playhead.Pause()
	app.playhead.Step(delta)
}

func (app *App) setClock(mode string) {
	if app.cfg.Playback.Clock == mode {
		return
	}
	app.cfg.Playback.Clock = mode
	app.log.Debug("playback clock changed", zap.String("clock", mode))
}

// sequenceFrame returns the image index matching the current playback
// position in a sequence of n frames.
func (app *App) sequenceFrame(n int) int {
	if n == 0 {
		return 0
	}
	if app.frameMode() {
		return app.playhead.Frame() % n
	}
	return int(app.clock.Seconds()*float64(app.playhead.FPS)) % n
}

func (app *App) renderPlayback() {
	avail := imgui.ContentRegionAvail()
	app.primary.Show(avail.Y - 150)

	m := app.primary.Model()
	if m == nil {
		imgui.TextDisabled("Open a model or run a reconstruction (File menu)")
		return
	}

	if imgui.ButtonV("Reset View", imgui.NewVec2(100, 0)) {
		app.primary.ResetCamera()
	}
	imgui.SameLine()
	imgui.TextDisabled("(Drag to rotate, scroll to zoom)")

	if !m.Animated() {
		imgui.TextDisabled("Static model")
		return
	}

	label := "Play"
	if app.playing() {
		label = "Pause"
	}
	if imgui.ButtonV(label, imgui.NewVec2(80, 0)) {
		app.togglePlay()
	}
	imgui.SameLine()
	if imgui.Button("<") {
		app.stepFrame(-1)
	}
	imgui.SameLine()
	if imgui.Button(">") {
		app.stepFrame(1)
	}
	imgui.SameLine()

	frameClock := app.frameMode()
	if imgui.Checkbox("Frame clock", &frameClock) {
		if frameClock {
			app.setClock(config.ClockFrame)
		} else {
			app.setClock(config.ClockWall)
			app.clock.Resume()
		}
	}
	imgui.SameLine()
	imgui.SetNextItemWidth(120)
	if imgui.SliderFloatV("##Speed", &app.playhead.Speed, 0.1, 3.0, "%.1fx", imgui.SliderFlagsNone) {
		app.clock.SetSpeed(float64(app.playhead.Speed))
	}
	imgui.SameLine()
	imgui.Checkbox("Loop", &app.playhead.Loop)

	if app.frameMode() {
		imgui.Text(fmt.Sprintf("Frame %d / %d  blend %.2f", app.playhead.Frame(), m.KeyCount()-1, app.playhead.Alpha()))
	} else {
		imgui.Text(fmt.Sprintf("Time %.2fs / %.2fs", app.clock.Seconds(), m.Duration()/1000))
	}

	if frame, changed := ui.Timeline("##timeline", app.playhead.Frame(), app.playhead.Frames(), keyMarkerEvery); changed {
		app.setClock(config.ClockFrame)
		app.playhead.Pause()
		app.playhead.Seek(frame)
	}
}
