// Package timeline holds the external playback clock and the frame image
// sequences it scrubs through.
package timeline

import "github.com/chewxy/math32"

// Playhead steps through a fixed number of frames at a frame rate. Between
// frames it reports how far the next frame is, so a morph animator can blend
// key f toward key f+1 in lockstep with image sequences.
type Playhead struct {
	FPS   float32
	Speed float32
	Loop  bool

	frames  int
	frame   int
	elapsed float32 // seconds into the current frame
	playing bool
}

// NewPlayhead creates a paused playhead at frame 0.
func NewPlayhead(fps float32, frames int) *Playhead {
	p := &Playhead{FPS: fps, Speed: 1, Loop: true}
	p.SetFrames(frames)
	return p
}

// SetFrames changes the frame count, keeping the current frame when it still
// exists.
func (p *Playhead) SetFrames(n int) {
	p.frames = max(n, 0)
	if p.frame >= p.frames {
		p.frame = max(p.frames-1, 0)
		p.elapsed = 0
	}
}

// Frames returns the frame count.
func (p *Playhead) Frames() int { return p.frames }

// Frame returns the current frame index.
func (p *Playhead) Frame() int { return p.frame }

// Playing reports whether Advance moves the playhead.
func (p *Playhead) Playing() bool { return p.playing }

// Play starts playback.
func (p *Playhead) Play() { p.playing = true }

// Pause stops playback, keeping the current position.
func (p *Playhead) Pause() { p.playing = false }

// Toggle flips between playing and paused.
func (p *Playhead) Toggle() { p.playing = !p.playing }

// Alpha returns the blend factor toward the next frame in [0, 1].
func (p *Playhead) Alpha() float32 {
	d := p.frameDuration()
	if d <= 0 {
		return 0
	}
	return math32.Min(p.elapsed/d, 1)
}

// Seek jumps to frame, clamped to the valid range, and resets the blend.
func (p *Playhead) Seek(frame int) {
	if p.frames == 0 {
		p.frame = 0
	} else {
		p.frame = min(max(frame, 0), p.frames-1)
	}
	p.elapsed = 0
}

// Step moves by delta frames, wrapping when looping.
func (p *Playhead) Step(delta int) {
	if p.frames == 0 {
		return
	}
	f := p.frame + delta
	if p.Loop {
		f = ((f % p.frames) + p.frames) % p.frames
	}
	p.Seek(f)
}

// Scrub seeks to the frame under a normalized position along the timeline,
// 0 at the start and 1 at the end.
func (p *Playhead) Scrub(pos float32) {
	if p.frames == 0 {
		return
	}
	p.Seek(int(math32.Floor(pos * float32(p.frames))))
}

// Advance moves the playhead by dt seconds of wall time and returns the
// current frame and the blend toward the next one. A paused playhead only
// reports its position.
func (p *Playhead) Advance(dt float32) (frame int, alpha float32) {
	d := p.frameDuration()
	if !p.playing || p.frames == 0 || d <= 0 || dt <= 0 {
		return p.frame, p.Alpha()
	}

	p.elapsed += dt * p.Speed
	for p.elapsed >= d {
		p.elapsed -= d
		next := p.frame + 1
		if next >= p.frames {
			if !p.Loop {
				p.frame = p.frames - 1
				p.elapsed = 0
				p.playing = false
				break
			}
			next = 0
		}
		p.frame = next
	}
	return p.frame, p.Alpha()
}

func (p *Playhead) frameDuration() float32 {
	if p.FPS <= 0 {
		return 0
	}
	return 1 / p.FPS
}
