package timeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayheadAdvance(t *testing.T) {
	p := NewPlayhead(10, 4)

	f, a := p.Advance(0.05)
	assert.Equal(t, 0, f)
	assert.Zero(t, a, "paused playhead does not move")

	p.Play()
	f, a = p.Advance(0.05)
	assert.Equal(t, 0, f)
	assert.InDelta(t, 0.5, a, 1e-5)

	f, a = p.Advance(0.1)
	assert.Equal(t, 1, f)
	assert.InDelta(t, 0.5, a, 1e-4)
}

func TestPlayheadLoops(t *testing.T) {
	p := NewPlayhead(10, 3)
	p.Play()

	f, _ := p.Advance(0.31)
	assert.Equal(t, 0, f)
	assert.True(t, p.Playing())
}

func TestPlayheadStopsAtEndWithoutLoop(t *testing.T) {
	p := NewPlayhead(10, 3)
	p.Loop = false
	p.Play()

	f, a := p.Advance(5)
	assert.Equal(t, 2, f)
	assert.Zero(t, a)
	assert.False(t, p.Playing())
}

func TestPlayheadSpeed(t *testing.T) {
	p := NewPlayhead(10, 10)
	p.Speed = 2
	p.Play()

	f, _ := p.Advance(0.26)
	assert.Equal(t, 5, f)

	p.Speed = 0
	f, _ = p.Advance(1)
	assert.Equal(t, 5, f)
}

func TestPlayheadSeekStepScrub(t *testing.T) {
	p := NewPlayhead(30, 5)

	p.Seek(99)
	assert.Equal(t, 4, p.Frame())
	p.Seek(-2)
	assert.Equal(t, 0, p.Frame())

	p.Step(-1)
	assert.Equal(t, 4, p.Frame())
	p.Step(2)
	assert.Equal(t, 1, p.Frame())

	p.Loop = false
	p.Step(-5)
	assert.Equal(t, 0, p.Frame())

	p.Scrub(0.5)
	assert.Equal(t, 2, p.Frame())
	p.Scrub(1)
	assert.Equal(t, 4, p.Frame())
	assert.Zero(t, p.Alpha())
}

func TestPlayheadEmpty(t *testing.T) {
	p := NewPlayhead(30, 0)
	p.Play()
	f, a := p.Advance(1)
	assert.Zero(t, f)
	assert.Zero(t, a)
	p.Step(1)
	p.Scrub(0.7)
	assert.Zero(t, p.Frame())
}

func TestPlayheadSetFramesKeepsPosition(t *testing.T) {
	p := NewPlayhead(30, 10)
	p.Seek(3)
	p.SetFrames(20)
	assert.Equal(t, 3, p.Frame())
	p.SetFrames(2)
	assert.Equal(t, 1, p.Frame())
}

func TestCompareFrames(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"frame_9.jpg", "frame_10.jpg", -1},
		{"frame_10.jpg", "frame_9.jpg", 1},
		{"frame_19.jpg", "frame_110.jpg", -1},
		{filepath.Join("x", "a.jpg"), filepath.Join("y", "a.jpg"), 0},
		{"img2b", "img2a", 1},
		{"x", "x1", -1},
	}
	for _, tt := range tests {
		got := compareFrames(tt.a, tt.b)
		switch {
		case tt.want < 0:
			assert.Negative(t, got, "%s vs %s", tt.a, tt.b)
		case tt.want > 0:
			assert.Positive(t, got, "%s vs %s", tt.a, tt.b)
		default:
			assert.Zero(t, got, "%s vs %s", tt.a, tt.b)
		}
	}
}

func TestSequenceRefresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "landmarks2d")
	s := NewSequence(dir)

	changed, err := s.Refresh()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, s.Len())

	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range []string{"10.jpg", "2.jpg", "1.PNG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "3.jpg"), 0755))

	changed, err = s.Refresh()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{
		filepath.Join(dir, "1.PNG"),
		filepath.Join(dir, "2.jpg"),
		filepath.Join(dir, "10.jpg"),
	}, s.Frames())
	assert.Equal(t, filepath.Join(dir, "10.jpg"), s.At(2))
	assert.Empty(t, s.At(3))
	assert.Empty(t, s.At(-1))

	changed, err = s.Refresh()
	require.NoError(t, err)
	assert.False(t, changed)

	s.Clear()
	assert.Zero(t, s.Len())
}
