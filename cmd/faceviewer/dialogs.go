package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/reconstruct"
)

type pickKind int

const (
	pickedModel pickKind = iota
	pickedInput
	pickedExportRange
	pickedExportExpression
)

// pick is a path chosen in a native dialog, handed back to the render thread.
type pick struct {
	kind pickKind
	path string
}

// openDialog runs fn on its own goroutine. Native dialogs block, and SDL
// window operations must stay on the main thread, so the result is queued.
func (app *App) openDialog(kind pickKind, fn func() (string, error)) {
	go func() {
		path, err := fn()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				app.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		app.picks <- pick{kind: kind, path: path}
	}()
}

func (app *App) pickModel() {
	app.openDialog(pickedModel, func() (string, error) {
		return dialog.File().
			Filter("glTF Models", "glb", "gltf").
			Filter("All Files", "*").
			SetStartDir(app.cfg.Reconstruction.OutputRoot).
			Title("Open Model").
			Load()
	})
}

func (app *App) pickInput() {
	app.openDialog(pickedInput, func() (string, error) {
		return dialog.File().
			Filter("Videos", "mp4", "avi", "mov", "mkv").
			Filter("Images", "jpg", "jpeg", "png", "bmp").
			Filter("All Files", "*").
			Title("Select Input").
			Load()
	})
}

func (app *App) pickInputFolder() {
	app.openDialog(pickedInput, func() (string, error) {
		return dialog.Directory().Title("Select Image Folder").Browse()
	})
}

func (app *App) pickExport(kind pickKind) {
	app.openDialog(kind, func() (string, error) {
		return dialog.File().
			Filter("glTF Binary", "glb").
			SetStartDir(filepath.Dir(app.export.frameDir)).
			Title("Export Animation").
			Save()
	})
}

// drainBackground applies results from dialogs, the output watcher and
// exports. It never blocks.
func (app *App) drainBackground() {
	for {
		select {
		case p := <-app.picks:
			app.applyPick(p)
		case res := <-app.exports:
			app.exporting = false
			if res.err != nil {
				app.setStatus(fmt.Sprintf("Export failed: %v", res.err))
			} else {
				app.setStatus("Exported " + res.path)
			}
		case path, ok := <-app.watcherModels():
			if !ok {
				app.watcher = nil
				continue
			}
			app.modelChanged(path)
		case err, ok := <-app.watcherErrors():
			if !ok {
				app.watcher = nil
				continue
			}
			app.log.Warn("output watcher", zap.Error(err))
		default:
			return
		}
	}
}

func (app *App) applyPick(p pick) {
	switch p.kind {
	case pickedModel:
		app.openModel(p.path)
	case pickedInput:
		app.input = p.path
		app.setStatus("Input: " + p.path)
	case pickedExportRange:
		app.runExport(p.path, false)
	case pickedExportExpression:
		app.runExport(p.path, true)
	}
}

// modelChanged reacts to a model written under the output root. Manual rigs
// only refresh the manual slot; anything else replaces the primary model
// when it is the one on screen or no model is loaded yet.
func (app *App) modelChanged(path string) {
	if filepath.Base(path) == reconstruct.ManualModelFile {
		if app.primary.slot.Path() == "" || reconstruct.ManualModelFor(app.primary.slot.Path()) == path {
			app.openManual(path)
		}
		return
	}
	if filepath.Base(path) != reconstruct.ModelFile {
		return
	}
	current := app.primary.slot.Path()
	if current == "" || current == path {
		app.log.Info("reloading model", zap.String("path", path))
		app.openModel(path)
	}
}

// watcherModels returns a nil channel when watching is off, which never
// becomes ready in a select.
func (app *App) watcherModels() <-chan string {
	if app.watcher == nil {
		return nil
	}
	return app.watcher.Models
}

func (app *App) watcherErrors() <-chan error {
	if app.watcher == nil {
		return nil
	}
	return app.watcher.Errors
}
