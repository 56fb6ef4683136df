// Package reconstruct drives the external face reconstruction and export
// pipeline and knows where its outputs land.
package reconstruct

import (
	"path/filepath"
	"strings"
)

// File and folder names written by the reconstruction pipeline.
const (
	AnimationDir    = "animation"
	ModelFile       = "dynamic_animation.glb"
	ManualModelFile = "manual_animation.glb"
	FramesDir       = "frames_model"
	InputsDir       = "inputs"
	LandmarksDir    = "landmarks2d"
)

// Layout lists the outputs for one input under an output root.
type Layout struct {
	Name        string // input name without extension
	Dir         string // <root>/<name>
	Model       string // animated reconstruction
	ManualModel string // blend-shape rig driven by expression sliders
	Frames      string // per-frame meshes consumed by the exporter
	Inputs      string // cropped input frames
	Landmarks   string // tracked landmark renders
}

// LayoutFor returns where the pipeline writes results for input.
func LayoutFor(root, input string) Layout {
	base := filepath.Base(filepath.Clean(input))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Join(root, name)
	return Layout{
		Name:        name,
		Dir:         dir,
		Model:       filepath.Join(dir, AnimationDir, ModelFile),
		ManualModel: filepath.Join(dir, AnimationDir, ManualModelFile),
		Frames:      filepath.Join(dir, FramesDir),
		Inputs:      filepath.Join(dir, InputsDir),
		Landmarks:   filepath.Join(dir, LandmarksDir),
	}
}

// ManualModelFor returns the manual-expression model that sits next to an
// animated model.
func ManualModelFor(modelPath string) string {
	return filepath.Join(filepath.Dir(modelPath), ManualModelFile)
}

// FramesFor returns the per-frame mesh folder for an animated model.
func FramesFor(modelPath string) string {
	return filepath.Join(filepath.Dir(filepath.Dir(modelPath)), FramesDir)
}
