// Face Viewer - runs facial reconstruction and plays back the resulting
// morph-animated face models.
package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/assets"
	"github.com/Faultbox/facemorph/internal/config"
	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/engine/model"
	"github.com/Faultbox/facemorph/internal/engine/renderer"
	"github.com/Faultbox/facemorph/internal/engine/snapshot"
	"github.com/Faultbox/facemorph/internal/engine/ui"
	"github.com/Faultbox/facemorph/internal/logger"
	"github.com/Faultbox/facemorph/internal/reconstruct"
	"github.com/Faultbox/facemorph/internal/timeline"
)

const (
	leftPanelWidth  = 460
	statusBarHeight = 30
	frameCacheSize  = 64
	refreshInterval = time.Second
)

func main() {
	runtime.LockOSThread()

	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, err := NewApp(cfg)
	if err != nil {
		logger.Fatal("failed to start viewer", zap.Error(err))
	}
	defer app.Close()

	if path := config.ModelPath(); path != "" {
		app.openModel(path)
	}
	if path := config.InputPath(); path != "" {
		app.input = path
	}

	app.Run()
}

// App holds the viewer state. Everything here is owned by the render thread;
// background work reports back through channels drained in render.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	backend *ui.Backend

	renderer *renderer.Renderer
	primary  *faceView
	manual   *faceView

	runner   *reconstruct.Runner
	task     *reconstruct.Task
	taskSeen bool // finished task already handled
	watcher  *reconstruct.Watcher
	input    string

	inputs    *timeline.Sequence
	landmarks *timeline.Sequence
	frames    *assets.Cache
	refreshed time.Time

	clock    *playClock
	playhead *timeline.Playhead
	lastTick time.Time

	expressions []float32
	export      exportForm
	exports     chan exportResult
	exporting   bool

	picks     chan pick
	snapshots *snapshot.Writer

	status     string
	statusTime time.Time
}

// NewApp creates the window, GL resources and the reconstruction runner.
func NewApp(cfg *config.Config) (*App, error) {
	b, err := ui.NewBackend("Face Viewer", cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return nil, err
	}

	r, err := renderer.New()
	if err != nil {
		return nil, err
	}

	dev := gpu.GL{}
	opts := model.Options{Strict: cfg.Playback.StrictBuffers}

	app := &App{
		cfg:       cfg,
		log:       logger.Named("viewer"),
		backend:   b,
		renderer:  r,
		runner:    reconstruct.NewRunner(cfg.Reconstruction),
		inputs:    timeline.NewSequence(""),
		landmarks: timeline.NewSequence(""),
		frames:    assets.NewCache(dev, frameCacheSize, image.Pt(cfg.Window.ViewportSize, cfg.Window.ViewportSize)),
		clock:     newPlayClock(time.Now),
		playhead:  timeline.NewPlayhead(cfg.Playback.FPS, 0),
		exports:   make(chan exportResult, 1),
		picks:     make(chan pick, 4),
		snapshots: snapshot.NewWriter(filepath.Join(cfg.Reconstruction.OutputRoot, "snapshots"), "face"),
		export:    newExportForm(cfg.Playback.FPS),
	}
	app.playhead.Speed = cfg.Playback.Speed
	app.playhead.Loop = cfg.Playback.Looping
	app.clock.speed = float64(cfg.Playback.Speed)

	if app.primary, err = newFaceView("primary", dev, opts, cfg.Window.ViewportSize); err != nil {
		return nil, err
	}
	if app.manual, err = newFaceView("manual", dev, opts, cfg.Window.ViewportSize); err != nil {
		return nil, err
	}

	if cfg.Reconstruction.WatchOutput {
		w, err := reconstruct.Watch(cfg.Reconstruction.OutputRoot)
		if err != nil {
			app.log.Warn("output watching disabled", zap.Error(err))
		} else {
			app.watcher = w
		}
	}

	if cfg.Window.VSync {
		b.SetTargetFPS(60)
	}
	app.log.Info("viewer ready",
		zap.String("output", cfg.Reconstruction.OutputRoot),
		zap.String("clock", cfg.Playback.Clock))
	return app, nil
}

// Close releases GPU resources and stops background work.
func (app *App) Close() {
	if app.task != nil {
		app.task.Cancel()
	}
	if app.watcher != nil {
		app.watcher.Close()
	}
	app.frames.Clear()
	app.primary.Release()
	app.manual.Release()
	app.renderer.Close()
}

// Run starts the main loop.
func (app *App) Run() {
	app.lastTick = time.Now()
	app.backend.Run(app.render)
}

// setStatus shows msg in the status bar.
func (app *App) setStatus(msg string) {
	app.status = msg
	app.statusTime = time.Now()
}

// openModel loads path into the primary slot and, when the model has a
// manual rig next to it, loads that into the manual slot.
func (app *App) openModel(path string) {
	if err := app.primary.Load(path); err != nil {
		app.setStatus(fmt.Sprintf("Failed to load %s: %v", filepath.Base(path), err))
		return
	}
	m := app.primary.Model()
	app.playhead.SetFrames(m.KeyCount())
	app.clock.Restart()
	app.setStatus(fmt.Sprintf("Loaded %s (%d keys, %.2fs)", filepath.Base(path), m.KeyCount(), m.Duration()/1000))
	app.backend.SetWindowTitle("Face Viewer - " + filepath.Base(path))

	manual := reconstruct.ManualModelFor(path)
	if _, err := os.Stat(manual); err == nil {
		app.openManual(manual)
	}
	app.export.frameDir = reconstruct.FramesFor(path)
	app.export.start, app.export.end = 0, int32(m.KeyCount())
}

// openManual loads the expression rig and resets the sliders to its rest pose.
func (app *App) openManual(path string) {
	if err := app.manual.Load(path); err != nil {
		app.setStatus(fmt.Sprintf("Failed to load %s: %v", filepath.Base(path), err))
		return
	}
	m := app.manual.Model()
	app.expressions = append(app.expressions[:0], m.Weights()...)
}

// render is called each frame to draw the UI.
func (app *App) render() {
	now := time.Now()
	dt := float32(now.Sub(app.lastTick).Seconds())
	app.lastTick = now

	app.drainBackground()
	app.pollTask()
	app.refreshSequences(now)
	app.advance(dt)
	app.handleShortcuts()

	app.primary.RenderModel(app.renderer)
	app.manual.RenderModel(app.renderer)

	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open Model...") {
				app.pickModel()
			}
			if imgui.MenuItemBool("Open Input...") {
				app.pickInput()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Save Snapshot") {
				app.saveSnapshot()
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}

	workPos, workSize := ui.Viewport()
	contentHeight := workSize.Y - statusBarHeight
	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(leftPanelWidth, contentHeight))
	if imgui.BeginV("Pipeline", nil, flags) {
		if imgui.BeginTabBar("##tabs") {
			if imgui.BeginTabItem("Reconstruction") {
				app.renderReconstruction()
				imgui.EndTabItem()
			}
			if imgui.BeginTabItem("Tracking") {
				app.renderTracking()
				imgui.EndTabItem()
			}
			imgui.EndTabBar()
		}
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X-leftPanelWidth, contentHeight))
	if imgui.BeginV("Model", nil, flags) {
		app.renderPlayback()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()
}

func (app *App) handleShortcuts() {
	if imgui.IsAnyItemActive() {
		return
	}
	if ui.IsKeyPressed(imgui.KeySpace) {
		app.togglePlay()
	}
	if ui.IsKeyPressed(imgui.KeyLeftArrow) {
		app.stepFrame(-1)
	}
	if ui.IsKeyPressed(imgui.KeyRightArrow) {
		app.stepFrame(1)
	}
	if ui.IsKeyPressed(imgui.KeyF12) {
		app.saveSnapshot()
	}
}

func (app *App) renderStatusBar() {
	if m := app.primary.Model(); m != nil {
		imgui.Text(fmt.Sprintf("%s | %d meshes | %d targets", filepath.Base(m.Path), len(m.Meshes), len(m.TargetNames())))
	} else {
		imgui.TextDisabled("No model loaded")
	}
	if app.status != "" && time.Since(app.statusTime) < 8*time.Second {
		imgui.SameLine()
		imgui.Text(" | " + app.status)
	}
}

// saveSnapshot writes the primary viewport to a PNG.
func (app *App) saveSnapshot() {
	if app.primary.Model() == nil {
		app.setStatus("Nothing to capture")
		return
	}
	path, err := app.snapshots.Save(app.primary.Snapshot())
	if err != nil {
		app.log.Warn("snapshot failed", zap.Error(err))
		app.setStatus(fmt.Sprintf("Snapshot failed: %v", err))
		return
	}
	app.log.Info("snapshot saved", zap.String("path", path))
	app.setStatus("Saved " + path)
}
