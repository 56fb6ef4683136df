package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/engine/ui"
	"github.com/Faultbox/facemorph/internal/reconstruct"
	"github.com/Faultbox/facemorph/internal/timeline"
)

const sequencePaneHeight = 220

func (app *App) renderReconstruction() {
	imgui.Text("Input:")
	imgui.SameLine()
	imgui.SetNextItemWidth(-1)
	imgui.InputTextWithHint("##input", "Video file or image folder...", &app.input, 0, nil)

	if imgui.Button("Browse File...") {
		app.pickInput()
	}
	imgui.SameLine()
	if imgui.Button("Browse Folder...") {
		app.pickInputFolder()
	}
	imgui.SameLine()

	running := app.task != nil && app.task.State() == reconstruct.StateRunning
	if running {
		if imgui.Button("Cancel") {
			app.task.Cancel()
		}
	} else if imgui.Button("Reconstruct") {
		app.startReconstruction()
	}

	if app.task != nil {
		app.renderTask()
	}

	imgui.Separator()
	app.renderSequence("Inputs", app.inputs)
	app.renderSequence("Landmarks", app.landmarks)
}

func (app *App) startReconstruction() {
	input := strings.TrimSpace(app.input)
	task, err := app.runner.Start(context.Background(), input)
	if err != nil {
		app.setStatus(fmt.Sprintf("Cannot start: %v", err))
		return
	}
	app.task = task
	app.taskSeen = false
	app.showSequences(task.Layout)
	app.setStatus("Reconstructing " + task.Layout.Name)
}

func (app *App) renderTask() {
	p := app.task.Progress()
	imgui.Text(fmt.Sprintf("%s: %s (%s)", app.task.Layout.Name, app.task.State(),
		time.Since(app.task.Started).Truncate(time.Second)))
	ui.Progress(p.Done, p.Total)

	if imgui.TreeNodeExStrV("Output", imgui.TreeNodeFlagsNone) {
		if imgui.BeginChildStrV("##output", imgui.NewVec2(0, 140), imgui.ChildFlagsBorders, imgui.WindowFlagsHorizontalScrollbar) {
			for _, line := range app.task.Output() {
				imgui.TextUnformatted(line)
			}
		}
		imgui.EndChild()
		imgui.TreePop()
	}
}

// pollTask picks up a finished reconstruction and loads its outputs.
func (app *App) pollTask() {
	if app.task == nil || app.taskSeen || !app.task.Poll() {
		return
	}
	app.taskSeen = true
	task := app.task

	err := task.Wait()
	switch {
	case err == nil:
		app.log.Info("reconstruction finished", zap.String("model", task.Layout.Model))
		app.openModel(task.Layout.Model)
		app.refreshed = time.Time{}
	case errors.Is(err, reconstruct.ErrCanceled):
		app.setStatus("Reconstruction canceled")
	default:
		app.setStatus(fmt.Sprintf("Reconstruction failed: %v", err))
	}
}

// showSequences points the image panes at a reconstruction's output folders.
func (app *App) showSequences(layout reconstruct.Layout) {
	app.inputs = timeline.NewSequence(layout.Inputs)
	app.landmarks = timeline.NewSequence(layout.Landmarks)
	app.frames.Clear()
	app.refreshed = time.Time{}
}

// refreshSequences rescans the image folders at most once per interval.
func (app *App) refreshSequences(now time.Time) {
	if now.Sub(app.refreshed) < refreshInterval {
		return
	}
	app.refreshed = now
	changed := false
	for _, seq := range []*timeline.Sequence{app.inputs, app.landmarks} {
		if seq.Dir == "" {
			continue
		}
		ok, err := seq.Refresh()
		if err != nil {
			app.log.Debug("sequence refresh failed", zap.String("dir", seq.Dir), zap.Error(err))
		}
		changed = changed || ok
	}
	if changed {
		// Frames still being written when first shown get another try.
		app.frames.ForgetFailures()
	}
	if n := max(app.inputs.Len(), app.landmarks.Len()); app.primary.Model() == nil && n > 0 {
		app.playhead.SetFrames(n)
	}
}

func (app *App) renderSequence(title string, seq *timeline.Sequence) {
	imgui.Text(fmt.Sprintf("%s (%d)", title, seq.Len()))
	if seq.Len() == 0 {
		imgui.TextDisabled("No frames yet")
		return
	}
	path := seq.At(app.sequenceFrame(seq.Len()))
	frame, err := app.frames.Get(path)
	if err != nil {
		imgui.TextDisabled(err.Error())
		return
	}
	ui.Image(frame.Texture.ID(), float32(frame.Size.X), float32(frame.Size.Y), sequencePaneHeight, false)
}
