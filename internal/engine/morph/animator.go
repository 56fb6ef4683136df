package morph

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/logger"
)

// ErrWeightCount is a contract violation: a weight vector of the wrong length
// was handed to the animator.
var ErrWeightCount = errors.New("weight vector length mismatch")

// WeightSink receives the full weight vector after every change.
// gpu.TextureBuffer implements it.
type WeightSink interface {
	Write(data []float32) error
}

// Animator owns the live weight vector of one mesh.
type Animator struct {
	track   *Track
	weights []float32
	rest    []float32
	sink    WeightSink
	strict  bool
	log     *zap.Logger
}

// Option configures an Animator.
type Option func(*Animator)

// WithStrict makes contract violations panic instead of being logged and skipped.
func WithStrict(strict bool) Option {
	return func(a *Animator) {
		a.strict = strict
	}
}

// NewAnimator creates an animator starting at the rest weights. track may be
// nil for meshes without animation. sink may be nil for headless sampling.
func NewAnimator(rest []float32, track *Track, sink WeightSink, opts ...Option) *Animator {
	a := &Animator{
		track:   track,
		weights: make([]float32, len(rest)),
		rest:    make([]float32, len(rest)),
		sink:    sink,
		log:     logger.Named("morph"),
	}
	copy(a.weights, rest)
	copy(a.rest, rest)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TargetCount returns the weight vector length.
func (a *Animator) TargetCount() int {
	return len(a.weights)
}

// Track returns the keyframe track, possibly nil.
func (a *Animator) Track() *Track {
	return a.track
}

// Weights returns a copy of the current weights.
func (a *Animator) Weights() []float32 {
	out := make([]float32, len(a.weights))
	copy(out, a.weights)
	return out
}

// AdvanceToTime samples the track at a clock time in seconds. The track loops
// over [0, last key time). Before the first key the weights blend from the
// last key into the first. It returns false when nothing was written.
func (a *Animator) AdvanceToTime(seconds float64) bool {
	if !a.track.Playable() {
		return false
	}
	keys := a.track.keys
	first, last := keys[0], keys[len(keys)-1]

	var animTime float32
	if maxTime := float64(last.Time); maxTime > 0 {
		t := math.Mod(seconds*1000, maxTime)
		if t < 0 {
			t += maxTime
		}
		animTime = float32(t)
	}

	k1, k2, alpha := last, first, float32(0)
	switch {
	case animTime < first.Time:
		alpha = animTime / first.Time
	default:
		for i := 1; i < len(keys); i++ {
			if keys[i].Time > animTime {
				k1, k2 = keys[i-1], keys[i]
				if span := k2.Time - k1.Time; span != 0 {
					alpha = (animTime - k1.Time) / span
				}
				break
			}
		}
	}

	return a.blend(k1, k2, alpha)
}

// SetFrame blends key frame toward key frame+1, both wrapped modulo the key
// count. alpha is clamped to [0, 1].
func (a *Animator) SetFrame(frame int, alpha float32) bool {
	if !a.track.Playable() {
		return false
	}
	n := len(a.track.keys)
	f := ((frame % n) + n) % n
	next := (f + 1) % n

	return a.blend(a.track.keys[f], a.track.keys[next], clamp(alpha, 0, 1))
}

// SetWeights assigns weights directly, clamping each to [-1, 1].
func (a *Animator) SetWeights(weights []float32) bool {
	if len(weights) != len(a.weights) {
		a.violation(fmt.Errorf("%w: got %d weights, mesh has %d targets", ErrWeightCount, len(weights), len(a.weights)))
		return false
	}
	for i, w := range weights {
		a.weights[i] = clamp(w, -1, 1)
	}
	return a.commit()
}

// Reset restores the rest weights.
func (a *Animator) Reset() bool {
	copy(a.weights, a.rest)
	return a.commit()
}

// Sync re-uploads the current weights without changing them.
func (a *Animator) Sync() bool {
	return a.commit()
}

func (a *Animator) blend(k1, k2 Keyframe, alpha float32) bool {
	// Guard against a partial write; BuildTrack already enforces this.
	if len(k1.Weights) != len(a.weights) || len(k2.Weights) != len(a.weights) {
		a.violation(fmt.Errorf("%w: keys carry %d and %d weights, mesh has %d targets",
			ErrWeightCount, len(k1.Weights), len(k2.Weights), len(a.weights)))
		return false
	}
	for j := range a.weights {
		a.weights[j] = lerp(k1.Weights[j], k2.Weights[j], alpha)
	}
	return a.commit()
}

func (a *Animator) commit() bool {
	if a.sink == nil {
		return true
	}
	if err := a.sink.Write(a.weights); err != nil {
		a.violation(err)
		return false
	}
	return true
}

func (a *Animator) violation(err error) {
	if a.strict {
		panic(err)
	}
	a.log.Error("morph weight update skipped", zap.Error(err))
}

// lerp is exact at both ends: alpha 0 yields a, alpha 1 yields b.
func lerp(a, b, alpha float32) float32 {
	return (1-alpha)*a + alpha*b
}

// clamp maps NaN to 0 so a bad input never reaches the device.
func clamp(v, lo, hi float32) float32 {
	if math32.IsNaN(v) {
		v = 0
	}
	return math32.Max(lo, math32.Min(hi, v))
}
