package reconstruct

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle of a Task.
type State int

const (
	StateRunning State = iota
	StateSucceeded
	StateFailed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ErrCanceled is returned by Task.Wait after Cancel.
var ErrCanceled = errors.New("reconstruction canceled")

// Progress is the last "done / total" pair reported by the pipeline.
type Progress struct {
	Done  int
	Total int
}

// Fraction returns Done/Total in [0, 1], 0 when nothing is known yet.
func (p Progress) Fraction() float32 {
	if p.Total <= 0 {
		return 0
	}
	return min(float32(p.Done)/float32(p.Total), 1)
}

var progressLine = regexp.MustCompile(`Python Progress:\s*(\d+)\s*/\s*(\d+)`)

// parseProgress extracts a progress report from one output line.
func parseProgress(line string) (Progress, bool) {
	m := progressLine.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	done, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return Progress{}, false
	}
	return Progress{Done: done, Total: total}, true
}

// outputTail is how many output lines a Task keeps for display.
const outputTail = 200

// Task is one running reconstruction. All methods are safe to call from the
// render loop while the process runs.
type Task struct {
	ID      uuid.UUID
	Input   string
	Layout  Layout
	Started time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	progress Progress
	err      error
	output   []string
	canceled bool
}

func newTask(input string, layout Layout, cancel context.CancelFunc) *Task {
	return &Task{
		ID:      uuid.New(),
		Input:   input,
		Layout:  layout,
		Started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Progress returns the latest progress report.
func (t *Task) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// State returns the task state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Output returns the most recent output lines.
func (t *Task) Output() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.output...)
}

// Done is closed when the process has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Poll reports whether the task finished, without blocking.
func (t *Task) Poll() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits and returns its error.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel kills the process. It is a no-op once the task finished.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.state == StateRunning {
		t.canceled = true
	}
	t.mu.Unlock()
	t.cancel()
}

// consume reads merged process output until EOF, tracking progress.
func (t *Task) consume(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(scanLinesOrCR)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		t.mu.Lock()
		if p, ok := parseProgress(line); ok {
			t.progress = p
		}
		t.output = append(t.output, line)
		if len(t.output) > outputTail {
			t.output = t.output[len(t.output)-outputTail:]
		}
		t.mu.Unlock()
	}
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	switch {
	case t.canceled:
		t.state = StateCanceled
		t.err = ErrCanceled
	case err != nil:
		t.state = StateFailed
		t.err = err
	default:
		t.state = StateSucceeded
		if t.progress.Total > 0 {
			t.progress.Done = t.progress.Total
		}
	}
	t.mu.Unlock()
	close(t.done)
}

// scanLinesOrCR splits on \n or \r so carriage-return progress bars show up
// as separate lines.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
