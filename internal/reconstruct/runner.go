package reconstruct

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/config"
	"github.com/Faultbox/facemorph/internal/logger"
)

var (
	// ErrBusy is returned by Start while another reconstruction runs.
	ErrBusy = errors.New("a reconstruction is already running")
	// ErrNoInput is returned when the input file or folder does not exist.
	ErrNoInput = errors.New("input not found")
	// ErrExportRange is returned for an empty or negative export frame range.
	ErrExportRange = errors.New("invalid export frame range")
)

// commandFunc builds the process for a script invocation.
type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Runner starts reconstruction tasks and exports through the configured
// Python scripts.
type Runner struct {
	cfg     config.ReconstructionConfig
	log     *zap.Logger
	command commandFunc

	mu      sync.Mutex
	current *Task
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg config.ReconstructionConfig) *Runner {
	return &Runner{
		cfg:     cfg,
		log:     logger.Named("reconstruct"),
		command: exec.CommandContext,
	}
}

// LayoutFor returns the output layout of input under the configured root.
func (r *Runner) LayoutFor(input string) Layout {
	return LayoutFor(r.cfg.OutputRoot, input)
}

// Current returns the most recently started task, or nil.
func (r *Runner) Current() *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Start launches the reconstruction script on input. Output is parsed for
// progress in the background; use the returned Task to observe it.
func (r *Runner) Start(ctx context.Context, input string) (*Task, error) {
	if _, err := os.Stat(input); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, input)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && !r.current.Poll() {
		return nil, ErrBusy
	}

	ctx, cancel := r.withTimeout(ctx)
	layout := r.LayoutFor(input)
	args := []string{r.cfg.Script, "-i", input, "-s", r.cfg.OutputRoot}
	cmd := r.command(ctx, r.cfg.Python, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = 2 * time.Second

	task := newTask(input, layout, cancel)
	if err := cmd.Start(); err != nil {
		cancel()
		pw.Close()
		return nil, fmt.Errorf("starting %s: %w", r.cfg.Python, err)
	}

	r.log.Info("reconstruction started",
		zap.String("task", task.ID.String()),
		zap.String("input", input),
		zap.String("output", layout.Dir))

	consumed := make(chan struct{})
	go func() {
		task.consume(pr)
		close(consumed)
	}()
	go func() {
		err := cmd.Wait()
		pw.Close()
		<-consumed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.cfg.Timeout, ctx.Err())
		}
		cancel()
		task.finish(err)
		r.log.Info("reconstruction finished",
			zap.String("task", task.ID.String()),
			zap.Stringer("state", task.State()),
			zap.Duration("elapsed", time.Since(task.Started)),
			zap.Error(err))
	}()

	r.current = task
	return task, nil
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, r.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// ExportRequest exports a frame range of a reconstruction as an animated glb.
type ExportRequest struct {
	FrameDir   string
	Output     string
	FPS        float32
	StartFrame int
	EndFrame   int // exclusive
}

// CustomExportRequest exports a fixed expression held for a number of frames.
type CustomExportRequest struct {
	FrameDir    string
	Output      string
	FPS         float32
	Frames      int
	Expressions []float32
}

// Export runs the exporter over a frame range and waits for it.
func (r *Runner) Export(ctx context.Context, req ExportRequest) error {
	if req.StartFrame < 0 || req.EndFrame <= req.StartFrame {
		return fmt.Errorf("%w: [%d, %d)", ErrExportRange, req.StartFrame, req.EndFrame)
	}
	return r.runExporter(ctx, req.Output,
		"export",
		"--frame_dir", req.FrameDir,
		"--output_glb", req.Output,
		"--FPS", formatFloat(req.FPS),
		"--start_frame", strconv.Itoa(req.StartFrame),
		"--end_frame", strconv.Itoa(req.EndFrame))
}

// ExportCustomized runs the exporter with manual expression weights.
func (r *Runner) ExportCustomized(ctx context.Context, req CustomExportRequest) error {
	if req.Frames <= 0 {
		return fmt.Errorf("%w: %d frames", ErrExportRange, req.Frames)
	}
	weights := make([]string, len(req.Expressions))
	for i, w := range req.Expressions {
		weights[i] = formatFloat(w)
	}
	return r.runExporter(ctx, req.Output,
		"export-custom",
		"--frame_dir", req.FrameDir,
		"--output_glb", req.Output,
		"--FPS", formatFloat(req.FPS),
		"--frames", strconv.Itoa(req.Frames),
		"--expressions", strings.Join(weights, ","))
}

func (r *Runner) runExporter(ctx context.Context, output string, args ...string) error {
	if output == "" {
		return errors.New("export: no output path")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out bytes.Buffer
	cmd := r.command(ctx, r.cfg.Python, append([]string{r.cfg.ExporterScript}, args...)...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	if err := cmd.Run(); err != nil {
		r.log.Error("export failed", zap.String("output", output), zap.Error(err), zap.String("log", lastLines(out.String(), 10)))
		return fmt.Errorf("export %s: %w", output, err)
	}
	r.log.Info("export finished", zap.String("output", output), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
