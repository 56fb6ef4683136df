// Package snapshot saves rendered viewports as PNG files.
package snapshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Writer names and writes snapshots into a folder.
type Writer struct {
	Dir    string
	Prefix string

	now func() time.Time
}

// NewWriter creates a writer saving into dir with names starting with prefix.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{Dir: dir, Prefix: prefix, now: time.Now}
}

// Filename returns the path the next snapshot would be written to.
func (w *Writer) Filename() string {
	name := fmt.Sprintf("%s_%s.png", w.Prefix, w.now().Format("2006-01-02_15-04-05.000"))
	if w.Dir == "" {
		return name
	}
	return filepath.Join(w.Dir, name)
}

// Save encodes img as PNG and returns the written path.
func (w *Writer) Save(img image.Image) (string, error) {
	if w.Dir != "" {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := w.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, file.Close()
}
