package morph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/logger"
)

// ErrKeyWeightCount marks a keyframe whose weight vector does not match the target count.
var ErrKeyWeightCount = errors.New("keyframe weight count mismatch")

// Keyframe is a weight vector sampled at Time milliseconds.
type Keyframe struct {
	Time    float32
	Weights []float32
}

// Track is an immutable, time-ordered list of keyframes for one mesh.
type Track struct {
	name    string
	targets int
	keys    []Keyframe
	skipped []error
}

// BuildTrack copies keys, sorts them by time and drops any key whose weight
// count differs from targets. Dropped keys are logged and kept in Skipped.
func BuildTrack(name string, keys []Keyframe, targets int) *Track {
	tr := &Track{name: name, targets: targets}

	for i, k := range keys {
		if len(k.Weights) != targets {
			err := fmt.Errorf("%w: track %q key %d at %gms has %d weights, want %d",
				ErrKeyWeightCount, name, i, k.Time, len(k.Weights), targets)
			tr.skipped = append(tr.skipped, err)
			logger.Named("morph").Warn("skipping keyframe", zap.Error(err))
			continue
		}
		w := make([]float32, targets)
		copy(w, k.Weights)
		tr.keys = append(tr.keys, Keyframe{Time: k.Time, Weights: w})
	}

	slices.SortStableFunc(tr.keys, func(a, b Keyframe) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return tr
}

// Name returns the track name.
func (t *Track) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// TargetCount returns the weight vector length of every key.
func (t *Track) TargetCount() int {
	if t == nil {
		return 0
	}
	return t.targets
}

// KeyCount returns the number of retained keys. A nil track has none.
func (t *Track) KeyCount() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// KeyAt returns the time and a copy of the weights of key i.
func (t *Track) KeyAt(i int) (float32, []float32) {
	k := t.keys[i]
	w := make([]float32, len(k.Weights))
	copy(w, k.Weights)
	return k.Time, w
}

// Duration returns the time of the last key, or 0 for an empty track.
func (t *Track) Duration() float32 {
	if t.KeyCount() == 0 {
		return 0
	}
	return t.keys[len(t.keys)-1].Time
}

// Skipped returns one error per key rejected at build time.
func (t *Track) Skipped() []error {
	if t == nil {
		return nil
	}
	return t.skipped
}

// Playable reports whether the track can drive interpolation.
func (t *Track) Playable() bool {
	return t.KeyCount() >= 2
}
