package timeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// ImageExtensions are the frame formats a Sequence picks up.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// Sequence is the ordered list of frame images in one folder, for example
// the tracked landmark renders a reconstruction writes.
type Sequence struct {
	Dir    string
	frames []string
}

// NewSequence creates an empty sequence over dir. Call Refresh to scan it.
func NewSequence(dir string) *Sequence {
	return &Sequence{Dir: dir}
}

// Refresh rescans the folder and reports whether the frame list changed.
// A folder that does not exist yet is an empty sequence.
func (s *Sequence) Refresh() (bool, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		entries, err = nil, nil
	}
	if err != nil {
		return false, err
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		frames = append(frames, filepath.Join(s.Dir, e.Name()))
	}
	slices.SortFunc(frames, compareFrames)

	if slices.Equal(frames, s.frames) {
		return false, nil
	}
	s.frames = frames
	return true, nil
}

// Len returns the frame count.
func (s *Sequence) Len() int { return len(s.frames) }

// At returns frame i, or "" when out of range.
func (s *Sequence) At(i int) string {
	if i < 0 || i >= len(s.frames) {
		return ""
	}
	return s.frames[i]
}

// Frames returns a copy of the ordered frame paths.
func (s *Sequence) Frames() []string {
	return slices.Clone(s.frames)
}

// Clear forgets every frame.
func (s *Sequence) Clear() { s.frames = nil }

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(ImageExtensions, ext)
}

// compareFrames orders frame paths by file name with embedded numbers
// compared by value, so "frame_9" sorts before "frame_10".
func compareFrames(a, b string) int {
	a, b = filepath.Base(a), filepath.Base(b)
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}
