package main

import (
	"context"
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/reconstruct"
)

const manualPaneHeight = 360

// exportForm holds the export settings edited in the tracking tab.
type exportForm struct {
	frameDir string
	fps      float32
	start    int32
	end      int32
	frames   int32
}

func newExportForm(fps float32) exportForm {
	return exportForm{fps: fps, frames: 30}
}

// clampRange keeps 0 <= start < end <= total. When the two cross, the
// slider that was just moved wins and the other one follows it.
func (f *exportForm) clampRange(total int32, endMoved bool) {
	total = max(total, 1)
	f.start = min(max(f.start, 0), total-1)
	f.end = min(max(f.end, 0), total)
	if f.end > f.start {
		return
	}
	if endMoved {
		f.start = max(f.end-1, 0)
	}
	f.end = f.start + 1
}

// canExportRange reports whether the range is a non-empty span of total keys.
func (f exportForm) canExportRange(total int32) bool {
	return f.frameDir != "" && f.start >= 0 && f.end > f.start && f.end <= max(total, 1)
}

type exportResult struct {
	path string
	err  error
}

func (app *App) renderTracking() {
	m := app.manual.Model()
	app.manual.Show(manualPaneHeight)
	if m == nil {
		imgui.TextDisabled("No expression rig loaded")
	} else {
		app.renderExpressions()
	}

	imgui.Separator()
	app.renderExport()
}

func (app *App) renderExpressions() {
	m := app.manual.Model()
	names := m.TargetNames()
	if len(names) == 0 {
		imgui.TextDisabled("Model has no blend shapes")
		return
	}
	if len(app.expressions) != len(names) {
		app.expressions = append(app.expressions[:0], m.Weights()...)
	}

	if imgui.Button("Reset Expression") {
		m.ResetWeights()
		app.expressions = append(app.expressions[:0], m.Weights()...)
	}
	imgui.SameLine()
	if imgui.Button("Reset View##manual") {
		app.manual.ResetCamera()
	}

	changed := false
	if imgui.BeginChildStrV("##expressions", imgui.NewVec2(0, 180), imgui.ChildFlagsBorders, 0) {
		for i, name := range names {
			imgui.SetNextItemWidth(-140)
			if imgui.SliderFloatV(fmt.Sprintf("%s##expr%d", name, i), &app.expressions[i], -1, 1, "%.2f", imgui.SliderFlagsNone) {
				changed = true
			}
		}
	}
	imgui.EndChild()

	if changed {
		m.SetWeights(app.expressions)
	}
}

func (app *App) renderExport() {
	imgui.Text("Export")
	if app.export.frameDir == "" {
		imgui.TextDisabled("Load a reconstructed model to export its frames")
		return
	}
	imgui.TextDisabled(app.export.frameDir)

	total := int32(max(app.playhead.Frames(), 1))
	app.export.clampRange(total, false)
	imgui.SetNextItemWidth(200)
	imgui.SliderFloatV("FPS", &app.export.fps, 1, 120, "%.0f", imgui.SliderFlagsNone)
	imgui.SetNextItemWidth(200)
	if imgui.SliderIntV("Start frame", &app.export.start, 0, total-1, "%d", imgui.SliderFlagsNone) {
		app.export.clampRange(total, false)
	}
	imgui.SetNextItemWidth(200)
	if imgui.SliderIntV("End frame", &app.export.end, 1, total, "%d", imgui.SliderFlagsNone) {
		app.export.clampRange(total, true)
	}

	if app.exporting {
		imgui.TextDisabled("Exporting...")
		return
	}
	imgui.BeginDisabledV(!app.export.canExportRange(total))
	if imgui.Button("Export Range...") {
		app.pickExport(pickedExportRange)
	}
	imgui.EndDisabled()

	imgui.SetNextItemWidth(200)
	imgui.SliderIntV("Frames", &app.export.frames, 1, 600, "%d", imgui.SliderFlagsNone)
	if imgui.Button("Export Expression...") {
		app.pickExport(pickedExportExpression)
	}
}

// runExport hands the exporter to a goroutine; the result comes back
// through app.exports.
func (app *App) runExport(output string, expression bool) {
	form := app.export
	expressions := append([]float32(nil), app.expressions...)
	app.exporting = true
	app.setStatus("Exporting " + output)

	go func() {
		var err error
		if expression {
			err = app.runner.ExportCustomized(context.Background(), reconstruct.CustomExportRequest{
				FrameDir:    form.frameDir,
				Output:      output,
				FPS:         form.fps,
				Frames:      int(form.frames),
				Expressions: expressions,
			})
		} else {
			err = app.runner.Export(context.Background(), reconstruct.ExportRequest{
				FrameDir:   form.frameDir,
				Output:     output,
				FPS:        form.fps,
				StartFrame: int(form.start),
				EndFrame:   int(form.end),
			})
		}
		if err != nil {
			app.log.Warn("export failed", zap.String("output", output), zap.Error(err))
		}
		app.exports <- exportResult{path: output, err: err}
	}()
}
