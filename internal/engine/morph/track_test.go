package morph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTrackSortsByTime(t *testing.T) {
	tr := BuildTrack("talk", []Keyframe{
		{Time: 200, Weights: []float32{2}},
		{Time: 0, Weights: []float32{0}},
		{Time: 100, Weights: []float32{1}},
	}, 1)

	require.Equal(t, 3, tr.KeyCount())
	for i, want := range []float32{0, 100, 200} {
		at, w := tr.KeyAt(i)
		assert.Equal(t, want, at)
		assert.Equal(t, []float32{want / 100}, w)
	}
	assert.Equal(t, float32(200), tr.Duration())
	assert.Equal(t, "talk", tr.Name())
}

func TestBuildTrackKeepsOrderOfEqualTimes(t *testing.T) {
	tr := BuildTrack("talk", []Keyframe{
		{Time: 100, Weights: []float32{0.3}},
		{Time: 0, Weights: []float32{0}},
		{Time: 100, Weights: []float32{0.7}},
	}, 1)

	require.Equal(t, 3, tr.KeyCount())
	_, w := tr.KeyAt(1)
	assert.Equal(t, []float32{0.3}, w)
	_, w = tr.KeyAt(2)
	assert.Equal(t, []float32{0.7}, w)
}

func TestBuildTrackSkipsMismatchedKeys(t *testing.T) {
	tr := BuildTrack("talk", []Keyframe{
		{Time: 0, Weights: []float32{0, 0}},
		{Time: 50, Weights: []float32{1}},
		{Time: 100, Weights: []float32{1, 1}},
		{Time: 150, Weights: []float32{1, 1, 1}},
	}, 2)

	assert.Equal(t, 2, tr.KeyCount())
	for i := 0; i < tr.KeyCount(); i++ {
		_, w := tr.KeyAt(i)
		assert.Len(t, w, 2)
	}

	skipped := tr.Skipped()
	require.Len(t, skipped, 2)
	for _, err := range skipped {
		assert.True(t, errors.Is(err, ErrKeyWeightCount))
	}
}

func TestBuildTrackAllKeysInvalid(t *testing.T) {
	tr := BuildTrack("broken", []Keyframe{{Time: 0, Weights: []float32{1}}}, 3)
	assert.Zero(t, tr.KeyCount())
	assert.False(t, tr.Playable())
	assert.Zero(t, tr.Duration())
}

func TestBuildTrackCopiesInput(t *testing.T) {
	keys := []Keyframe{{Time: 0, Weights: []float32{0.5}}, {Time: 10, Weights: []float32{1}}}
	tr := BuildTrack("copy", keys, 1)

	keys[0].Weights[0] = 99
	_, w := tr.KeyAt(0)
	assert.Equal(t, []float32{0.5}, w)

	w[0] = 42
	_, again := tr.KeyAt(0)
	assert.Equal(t, []float32{0.5}, again)
}

func TestNilTrack(t *testing.T) {
	var tr *Track
	assert.Zero(t, tr.KeyCount())
	assert.False(t, tr.Playable())
	assert.Zero(t, tr.Duration())
	assert.Empty(t, tr.Name())
	assert.Nil(t, tr.Skipped())
}
