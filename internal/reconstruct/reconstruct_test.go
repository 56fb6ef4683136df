package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/facemorph/internal/config"
)

// TestHelperProcess stands in for the Python scripts. It only runs when
// started by helperCommand.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv("FACEMORPH_HELPER")
	if mode == "" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}
	if f := os.Getenv("FACEMORPH_ARGS_FILE"); f != "" {
		_ = os.WriteFile(f, []byte(strings.Join(args, " ")), 0644)
	}

	switch mode {
	case "progress":
		fmt.Println("loading model")
		fmt.Println("Python Progress: 0 / 3")
		fmt.Fprint(os.Stderr, "Python Progress: 1 / 3\r")
		fmt.Fprint(os.Stderr, "Python Progress: 2 / 3\r\n")
		fmt.Println("-- please check the results")
	case "fail":
		fmt.Fprintln(os.Stderr, "Traceback: boom")
		os.Exit(3)
	case "hang":
		fmt.Println("Python Progress: 1 / 10")
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

func helperCommand(mode, argsFile string) commandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "FACEMORPH_HELPER="+mode, "FACEMORPH_ARGS_FILE="+argsFile)
		return cmd
	}
}

func newTestRunner(t *testing.T, mode string) (*Runner, string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default().Reconstruction
	cfg.Python = "python3"
	cfg.Script = "reconstruct.py"
	cfg.ExporterScript = "obj2glb.py"
	cfg.OutputRoot = filepath.Join(dir, "output")

	argsFile := filepath.Join(dir, "args.txt")
	r := NewRunner(cfg)
	r.command = helperCommand(mode, argsFile)

	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, nil, 0644))
	return r, input, argsFile
}

func readArgs(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestLayoutFor(t *testing.T) {
	l := LayoutFor("out", filepath.Join("videos", "IMG_0392.mp4"))

	assert.Equal(t, "IMG_0392", l.Name)
	assert.Equal(t, filepath.Join("out", "IMG_0392"), l.Dir)
	assert.Equal(t, filepath.Join("out", "IMG_0392", "animation", "dynamic_animation.glb"), l.Model)
	assert.Equal(t, filepath.Join("out", "IMG_0392", "animation", "manual_animation.glb"), l.ManualModel)
	assert.Equal(t, filepath.Join("out", "IMG_0392", "frames_model"), l.Frames)
	assert.Equal(t, filepath.Join("out", "IMG_0392", "landmarks2d"), l.Landmarks)
	assert.Equal(t, filepath.Join("out", "IMG_0392", "inputs"), l.Inputs)

	assert.Equal(t, "frames", LayoutFor("out", "frames/").Name)
	assert.Equal(t, l.ManualModel, ManualModelFor(l.Model))
	assert.Equal(t, l.Frames, FramesFor(l.Model))
}

func TestParseProgress(t *testing.T) {
	p, ok := parseProgress("Python Progress: 4 / 12")
	require.True(t, ok)
	assert.Equal(t, Progress{Done: 4, Total: 12}, p)
	assert.InDelta(t, 1.0/3, p.Fraction(), 1e-6)

	_, ok = parseProgress("Updating progress: 4 / 12")
	assert.False(t, ok)

	assert.Zero(t, Progress{}.Fraction())
	assert.Equal(t, float32(1), Progress{Done: 9, Total: 3}.Fraction())
}

func TestScanLinesOrCR(t *testing.T) {
	adv, tok, err := scanLinesOrCR([]byte("a\rb\n"), false)
	require.NoError(t, err)
	assert.Equal(t, 2, adv)
	assert.Equal(t, "a", string(tok))

	adv, tok, _ = scanLinesOrCR([]byte("tail"), true)
	assert.Equal(t, 4, adv)
	assert.Equal(t, "tail", string(tok))

	adv, tok, _ = scanLinesOrCR([]byte("partial"), false)
	assert.Zero(t, adv)
	assert.Nil(t, tok)
}

func TestStartReportsProgress(t *testing.T) {
	r, input, argsFile := newTestRunner(t, "progress")

	task, err := r.Start(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(task.ID))
	assert.Same(t, task, r.Current())
	assert.Equal(t, "clip", task.Layout.Name)

	require.NoError(t, task.Wait())
	assert.True(t, task.Poll())
	assert.Equal(t, StateSucceeded, task.State())
	assert.Equal(t, Progress{Done: 3, Total: 3}, task.Progress())
	assert.Contains(t, task.Output(), "loading model")
	assert.Contains(t, task.Output(), "Python Progress: 1 / 3")

	assert.Equal(t, "python3 reconstruct.py -i "+input+" -s "+r.cfg.OutputRoot, readArgs(t, argsFile))
}

func TestStartFailure(t *testing.T) {
	r, input, _ := newTestRunner(t, "fail")

	task, err := r.Start(context.Background(), input)
	require.NoError(t, err)

	err = task.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, StateFailed, task.State())
	assert.Contains(t, task.Output(), "Traceback: boom")
}

func TestStartMissingInput(t *testing.T) {
	r, _, _ := newTestRunner(t, "progress")
	_, err := r.Start(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Nil(t, r.Current())
}

func TestCancelAndBusy(t *testing.T) {
	r, input, _ := newTestRunner(t, "hang")

	task, err := r.Start(context.Background(), input)
	require.NoError(t, err)

	_, err = r.Start(context.Background(), input)
	assert.ErrorIs(t, err, ErrBusy)

	task.Cancel()
	assert.ErrorIs(t, task.Wait(), ErrCanceled)
	assert.Equal(t, StateCanceled, task.State())

	// A finished task frees the runner.
	next, err := r.Start(context.Background(), input)
	require.NoError(t, err)
	next.Cancel()
	_ = next.Wait()
}

func TestStartTimeout(t *testing.T) {
	r, input, _ := newTestRunner(t, "hang")
	r.cfg.Timeout = 200 * time.Millisecond

	task, err := r.Start(context.Background(), input)
	require.NoError(t, err)

	select {
	case <-task.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("task did not time out")
	}
	err = task.Wait()
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Equal(t, StateFailed, task.State())
}

func TestExport(t *testing.T) {
	r, _, argsFile := newTestRunner(t, "ok")

	err := r.Export(context.Background(), ExportRequest{
		FrameDir: "frames", Output: "out.glb", FPS: 29.97, StartFrame: 2, EndFrame: 10,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"python3 obj2glb.py export --frame_dir frames --output_glb out.glb --FPS 29.97 --start_frame 2 --end_frame 10",
		readArgs(t, argsFile))

	err = r.ExportCustomized(context.Background(), CustomExportRequest{
		FrameDir: "frames", Output: "custom.glb", FPS: 30, Frames: 60, Expressions: []float32{0.5, -1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"python3 obj2glb.py export-custom --frame_dir frames --output_glb custom.glb --FPS 30 --frames 60 --expressions 0.5,-1,0",
		readArgs(t, argsFile))
}

func TestExportValidation(t *testing.T) {
	r, _, _ := newTestRunner(t, "ok")
	ctx := context.Background()

	assert.ErrorIs(t, r.Export(ctx, ExportRequest{Output: "o.glb", StartFrame: 5, EndFrame: 5}), ErrExportRange)
	assert.ErrorIs(t, r.Export(ctx, ExportRequest{Output: "o.glb", StartFrame: -1, EndFrame: 5}), ErrExportRange)
	assert.ErrorIs(t, r.ExportCustomized(ctx, CustomExportRequest{Output: "o.glb"}), ErrExportRange)
	assert.Error(t, r.Export(ctx, ExportRequest{StartFrame: 0, EndFrame: 5}))
}

func TestExportFailure(t *testing.T) {
	r, _, _ := newTestRunner(t, "fail")
	err := r.Export(context.Background(), ExportRequest{Output: "o.glb", StartFrame: 0, EndFrame: 5})
	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr)
}

func TestWatcherReportsModels(t *testing.T) {
	root := filepath.Join(t.TempDir(), "output")
	existing := filepath.Join(root, "old", "animation", ModelFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0755))
	require.NoError(t, os.WriteFile(existing, []byte("glb"), 0644))

	w, err := Watch(root)
	require.NoError(t, err)
	defer w.Close()

	waitFor(t, w, existing)

	l := LayoutFor(root, "clip.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(l.Model), 0755))
	require.NoError(t, os.WriteFile(l.Model, []byte("glb"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(l.Model), "notes.txt"), nil, 0644))

	waitFor(t, w, l.Model)
}

func TestWatcherClose(t *testing.T) {
	w, err := Watch(filepath.Join(t.TempDir(), "output"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Models:
		for ok {
			_, ok = <-w.Models
		}
	case <-time.After(5 * time.Second):
		t.Fatal("models channel not closed")
	}
}

func waitFor(t *testing.T, w *Watcher, path string) {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case got := <-w.Models:
			assert.True(t, isModel(got), got)
			if got == path {
				return
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}
