package morph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink stands in for the device weight buffer.
type recordingSink struct {
	size    int
	writes  int
	content []float32
	err     error
}

func (s *recordingSink) Write(data []float32) error {
	if s.err != nil {
		return s.err
	}
	if len(data) != s.size {
		return errors.New("size mismatch")
	}
	s.writes++
	s.content = append(s.content[:0], data...)
	return nil
}

func threeTargetTrack() *Track {
	return BuildTrack("talk", []Keyframe{
		{Time: 0, Weights: []float32{0, 0, 0}},
		{Time: 100, Weights: []float32{1, 1, 0}},
	}, 3)
}

func fourKeyTrack() *Track {
	return BuildTrack("talk", []Keyframe{
		{Time: 0, Weights: []float32{0, 0}},
		{Time: 100, Weights: []float32{0.2, 0.4}},
		{Time: 200, Weights: []float32{0.6, 0.8}},
		{Time: 300, Weights: []float32{1, -1}},
	}, 2)
}

func TestAdvanceToTimeMidpoint(t *testing.T) {
	sink := &recordingSink{size: 3}
	a := NewAnimator([]float32{0, 0, 0}, threeTargetTrack(), sink)

	// 1.05s wraps to 50ms on a 100ms loop.
	require.True(t, a.AdvanceToTime(1.05))

	w := a.Weights()
	assert.InDelta(t, 0.5, w[0], 1e-4)
	assert.InDelta(t, 0.5, w[1], 1e-4)
	assert.Equal(t, float32(0), w[2])
	assert.Equal(t, w, sink.content)
	assert.Equal(t, 1, sink.writes)
}

func TestAdvanceToTimeOnKeys(t *testing.T) {
	a := NewAnimator([]float32{0, 0}, fourKeyTrack(), nil)

	require.True(t, a.AdvanceToTime(0.2))
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, a.Weights(), 1e-5)

	// A whole number of loops lands back on the first key.
	require.True(t, a.AdvanceToTime(3))
	assert.InDeltaSlice(t, []float32{0, 0}, a.Weights(), 1e-5)

	require.True(t, a.AdvanceToTime(-0.05))
	assert.InDeltaSlice(t, []float32{0.8, -0.1}, a.Weights(), 1e-4)
}

func TestAdvanceToTimeBeforeFirstKeyWrapsFromLast(t *testing.T) {
	tr := BuildTrack("late", []Keyframe{
		{Time: 100, Weights: []float32{1}},
		{Time: 200, Weights: []float32{0}},
		{Time: 400, Weights: []float32{0.5}},
	}, 1)
	a := NewAnimator([]float32{0}, tr, nil)

	// 50ms is halfway between the loop start (the last key) and the first key.
	require.True(t, a.AdvanceToTime(0.05))
	assert.InDelta(t, 0.75, a.Weights()[0], 1e-5)

	require.True(t, a.AdvanceToTime(0.15))
	assert.InDelta(t, 0.5, a.Weights()[0], 1e-5)
}

func TestAdvanceToTimeAllKeysAtZero(t *testing.T) {
	tr := BuildTrack("flat", []Keyframe{
		{Time: 0, Weights: []float32{0.3}},
		{Time: 0, Weights: []float32{0.9}},
	}, 1)
	a := NewAnimator([]float32{0}, tr, nil)

	require.True(t, a.AdvanceToTime(12.5))
	assert.Equal(t, []float32{0.9}, a.Weights())
}

func TestSetFrameBoundaries(t *testing.T) {
	tr := fourKeyTrack()
	a := NewAnimator([]float32{0, 0}, tr, &recordingSink{size: 2})

	for f := 0; f < tr.KeyCount(); f++ {
		_, cur := tr.KeyAt(f)
		_, next := tr.KeyAt((f + 1) % tr.KeyCount())

		require.True(t, a.SetFrame(f, 0))
		assert.Equal(t, cur, a.Weights(), "frame %d alpha 0", f)

		require.True(t, a.SetFrame(f, 1))
		assert.Equal(t, next, a.Weights(), "frame %d alpha 1", f)
	}
}

func TestSetFrameWrapsToFirstKey(t *testing.T) {
	tr := fourKeyTrack()
	a := NewAnimator([]float32{0, 0}, tr, nil)

	require.True(t, a.SetFrame(tr.KeyCount()-1, 0.5))
	assert.InDeltaSlice(t, []float32{0.5, -0.5}, a.Weights(), 1e-6)
}

func TestSetFrameIndexAndAlphaNormalization(t *testing.T) {
	tr := fourKeyTrack()
	a := NewAnimator([]float32{0, 0}, tr, nil)
	b := NewAnimator([]float32{0, 0}, tr, nil)

	a.SetFrame(5, 0.25)
	b.SetFrame(1, 0.25)
	assert.Equal(t, b.Weights(), a.Weights())

	a.SetFrame(-1, 0)
	_, last := tr.KeyAt(3)
	assert.Equal(t, last, a.Weights())

	a.SetFrame(1, 7)
	_, k2 := tr.KeyAt(2)
	assert.Equal(t, k2, a.Weights())

	a.SetFrame(1, -3)
	_, k1 := tr.KeyAt(1)
	assert.Equal(t, k1, a.Weights())
}

func TestUpdatesAreIdempotent(t *testing.T) {
	sink := &recordingSink{size: 2}
	a := NewAnimator([]float32{0, 0}, fourKeyTrack(), sink)

	a.SetFrame(2, 0.3)
	w1, buf1 := a.Weights(), append([]float32(nil), sink.content...)
	a.SetFrame(2, 0.3)
	assert.Equal(t, w1, a.Weights())
	assert.Equal(t, buf1, sink.content)

	a.AdvanceToTime(0.123)
	w1, buf1 = a.Weights(), append([]float32(nil), sink.content...)
	a.AdvanceToTime(0.123)
	assert.Equal(t, w1, a.Weights())
	assert.Equal(t, buf1, sink.content)
}

func TestSetWeightsClamps(t *testing.T) {
	sink := &recordingSink{size: 3}
	a := NewAnimator([]float32{0, 0, 0}, nil, sink)

	require.True(t, a.SetWeights([]float32{2.0, -3.0, 0.5}))
	assert.Equal(t, []float32{1, -1, 0.5}, a.Weights())
	assert.Equal(t, []float32{1, -1, 0.5}, sink.content)
}

func TestEmptyTrackIsNoOp(t *testing.T) {
	rest := []float32{0.1, 0.2}
	sink := &recordingSink{size: 2}

	for name, tr := range map[string]*Track{
		"nil":     nil,
		"empty":   BuildTrack("empty", nil, 2),
		"one key": BuildTrack("one", []Keyframe{{Time: 0, Weights: []float32{1, 1}}}, 2),
		"all bad": BuildTrack("bad", []Keyframe{{Time: 0, Weights: []float32{1}}, {Time: 5, Weights: []float32{1}}}, 2),
	} {
		t.Run(name, func(t *testing.T) {
			a := NewAnimator(rest, tr, sink)
			assert.False(t, a.AdvanceToTime(1))
			assert.False(t, a.SetFrame(3, 0.5))
			assert.Equal(t, rest, a.Weights())
		})
	}
	assert.Zero(t, sink.writes)
}

func TestWeightCountViolation(t *testing.T) {
	sink := &recordingSink{size: 2}

	lenient := NewAnimator([]float32{0.1, 0.2}, nil, sink)
	assert.False(t, lenient.SetWeights([]float32{1}))
	assert.Equal(t, []float32{0.1, 0.2}, lenient.Weights())
	assert.Zero(t, sink.writes)

	strict := NewAnimator([]float32{0, 0}, nil, sink, WithStrict(true))
	assert.PanicsWithError(t, "weight vector length mismatch: got 3 weights, mesh has 2 targets", func() {
		strict.SetWeights([]float32{1, 1, 1})
	})
}

func TestTrackAnimatorSizeMismatchAborts(t *testing.T) {
	// Track built for two targets driving a three target mesh.
	a := NewAnimator([]float32{0, 0, 0}, fourKeyTrack(), nil)
	assert.False(t, a.SetFrame(0, 0.5))
	assert.Equal(t, []float32{0, 0, 0}, a.Weights())
}

func TestSinkErrorHandling(t *testing.T) {
	sinkErr := errors.New("device lost")

	lenient := NewAnimator([]float32{0}, nil, &recordingSink{size: 1, err: sinkErr})
	assert.False(t, lenient.SetWeights([]float32{0.5}))

	strict := NewAnimator([]float32{0}, nil, &recordingSink{size: 1, err: sinkErr}, WithStrict(true))
	assert.PanicsWithError(t, "device lost", func() {
		strict.SetWeights([]float32{0.5})
	})
}

func TestResetRestoresRest(t *testing.T) {
	sink := &recordingSink{size: 2}
	a := NewAnimator([]float32{0.25, 0}, fourKeyTrack(), sink)

	a.SetFrame(2, 0)
	require.True(t, a.Reset())
	assert.Equal(t, []float32{0.25, 0}, a.Weights())
	assert.Equal(t, []float32{0.25, 0}, sink.content)
}
