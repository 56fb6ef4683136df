// Package model turns imported scenes into drawable, morph-animated meshes.
package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/engine/morph"
	"github.com/Faultbox/facemorph/internal/engine/texture"
	"github.com/Faultbox/facemorph/internal/logger"
	"github.com/Faultbox/facemorph/internal/scene"
)

// Options controls model assembly.
type Options struct {
	// Strict turns buffer contract violations into panics.
	Strict bool
	// Animation selects a weights animation by name. Empty picks the first one
	// found for each node.
	Animation string
}

// Model owns every mesh, buffer and texture built from one file.
type Model struct {
	Path   string
	Meshes []*Mesh
	Bounds Bounds

	textures []gpu.Texture
}

// Load imports path and builds its meshes on dev. Import failures are
// returned as *scene.ImportError.
func Load(path string, dev gpu.Device, opts Options) (*Model, error) {
	g, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	return Build(g, dev, opts)
}

// Build creates device resources for an imported scene. On error everything
// created so far is released.
func Build(g *scene.Graph, dev gpu.Device, opts Options) (*Model, error) {
	log := logger.Named("model")
	m := &Model{Path: g.Path}
	textures := map[string]gpu.Texture{}

	for i, src := range g.Meshes {
		mesh, err := m.buildMesh(src, g, dev, opts, textures)
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("mesh %d (%s): %w", i, src.Node, err)
		}
		if i == 0 {
			m.Bounds = mesh.Bounds
		} else {
			m.Bounds = m.Bounds.union(mesh.Bounds)
		}
		m.Meshes = append(m.Meshes, mesh)
	}

	log.Info("model loaded",
		zap.String("path", g.Path),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("textures", len(m.textures)),
		zap.Int("keys", m.KeyCount()))
	return m, nil
}

func (m *Model) buildMesh(src *scene.Mesh, g *scene.Graph, dev gpu.Device, opts Options, textures map[string]gpu.Texture) (*Mesh, error) {
	normals := src.Normals
	generated := needsNormals(normals)
	if generated {
		normals = smoothNormals(src.Positions, src.Indices)
	}

	variants := make([]morph.Variant, len(src.Targets))
	for i, t := range src.Targets {
		variants[i] = morph.Variant{Name: t.Name, Positions: t.Positions, Normals: t.Normals}
		if generated && t.Normals != nil {
			variants[i].Normals = rebaseNormals(t.Normals, src.Normals, normals)
		}
		if i < len(src.DefaultWeights) {
			variants[i].Default = src.DefaultWeights[i]
		}
	}
	set, err := morph.Extract(src.Positions, normals, variants)
	if err != nil {
		return nil, err
	}

	mesh := &Mesh{
		Name:        src.Name,
		Node:        src.Node,
		VertexCount: src.VertexCount(),
		Bounds:      boundsOf(src.Positions),
		Morph:       set,
	}

	mesh.geometry, err = dev.NewGeometry(gpu.Interleave(src.Positions, normals, src.TexCoords), src.Indices)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	mesh.deltas, err = dev.NewBuffer(src.Node+"/deltas", gpu.RGBA32F, set.Flat(), false)
	if err != nil {
		mesh.release()
		return nil, fmt.Errorf("delta buffer: %w", err)
	}
	mesh.weights, err = dev.NewBuffer(src.Node+"/weights", gpu.R32F, set.Defaults, true)
	if err != nil {
		mesh.release()
		return nil, fmt.Errorf("weight buffer: %w", err)
	}

	var track *morph.Track
	if ch := g.ChannelFor(src.Node, opts.Animation); ch != nil {
		keys := make([]morph.Keyframe, len(ch.Keys))
		for i, k := range ch.Keys {
			keys[i] = morph.Keyframe{Time: k.Time, Weights: k.Weights}
		}
		track = morph.BuildTrack(ch.Animation, keys, set.TargetCount())
	}
	mesh.Animator = morph.NewAnimator(set.Defaults, track, mesh.weights, morph.WithStrict(opts.Strict))

	if src.Texture != nil {
		mesh.texture = m.loadTexture(src.Texture, dev, textures)
	}
	return mesh, nil
}

// loadTexture decodes and uploads ref once per model. Failures are logged and
// leave the mesh untextured.
func (m *Model) loadTexture(ref *scene.TextureRef, dev gpu.Device, cache map[string]gpu.Texture) gpu.Texture {
	key := ref.Path
	if ref.Embedded() {
		key = fmt.Sprintf("embedded:%p:%d", &ref.Data[0], len(ref.Data))
	}
	if t, ok := cache[key]; ok {
		return t
	}

	log := logger.Named("model")
	var (
		t   gpu.Texture
		err error
	)
	if ref.Embedded() {
		img, derr := texture.Decode(ref.Data)
		if derr == nil {
			t, err = dev.NewTexture(img)
		} else {
			err = derr
		}
	} else {
		img, lerr := texture.Load(ref.Path)
		if lerr == nil {
			t, err = dev.NewTexture(img)
		} else {
			err = lerr
		}
	}
	if err != nil {
		log.Warn("texture unavailable, drawing untextured", zap.String("texture", key), zap.Error(err))
		t = nil
	} else {
		m.textures = append(m.textures, t)
	}
	cache[key] = t
	return t
}

// AdvanceToTime samples every animated mesh at seconds. It reports whether any
// mesh was updated.
func (m *Model) AdvanceToTime(seconds float64) bool {
	updated := false
	for _, mesh := range m.Meshes {
		if mesh.Animator.AdvanceToTime(seconds) {
			updated = true
		}
	}
	return updated
}

// SetFrame blends every animated mesh between key frame and frame+1.
func (m *Model) SetFrame(frame int, alpha float32) bool {
	updated := false
	for _, mesh := range m.Meshes {
		if mesh.Animator.SetFrame(frame, alpha) {
			updated = true
		}
	}
	return updated
}

// SetWeights assigns weights to every mesh with exactly len(weights) blend
// shapes. When no mesh matches, the vector goes to the first mesh with blend
// shapes so its animator reports the violation.
func (m *Model) SetWeights(weights []float32) bool {
	updated, matched := false, false
	for _, mesh := range m.Meshes {
		if mesh.TargetCount() == 0 || mesh.TargetCount() != len(weights) {
			continue
		}
		matched = true
		if mesh.Animator.SetWeights(weights) {
			updated = true
		}
	}
	if !matched {
		for _, mesh := range m.Meshes {
			if mesh.TargetCount() > 0 {
				return mesh.Animator.SetWeights(weights)
			}
		}
	}
	return updated
}

// ResetWeights returns every mesh to its rest pose.
func (m *Model) ResetWeights() {
	for _, mesh := range m.Meshes {
		mesh.Animator.Reset()
	}
}

// KeyCount returns the largest key count across meshes.
func (m *Model) KeyCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n = max(n, mesh.Animator.Track().KeyCount())
	}
	return n
}

// Duration returns the longest track duration in milliseconds.
func (m *Model) Duration() float32 {
	var d float32
	for _, mesh := range m.Meshes {
		d = max(d, mesh.Animator.Track().Duration())
	}
	return d
}

// Animated reports whether any mesh has a playable track.
func (m *Model) Animated() bool {
	for _, mesh := range m.Meshes {
		if mesh.Animator.Track().Playable() {
			return true
		}
	}
	return false
}

// TargetNames returns the blend-shape names of the first mesh that has any.
func (m *Model) TargetNames() []string {
	for _, mesh := range m.Meshes {
		if mesh.TargetCount() > 0 {
			return mesh.Morph.Names
		}
	}
	return nil
}

// Weights returns the current weights of the first mesh with blend shapes.
func (m *Model) Weights() []float32 {
	for _, mesh := range m.Meshes {
		if mesh.TargetCount() > 0 {
			return mesh.Animator.Weights()
		}
	}
	return nil
}

// Draw draws every mesh with the program state in b already bound.
func (m *Model) Draw(b Binder) {
	for _, mesh := range m.Meshes {
		mesh.Draw(b)
	}
}

// Release frees all device resources. The model must not be drawn afterwards.
func (m *Model) Release() {
	for _, mesh := range m.Meshes {
		mesh.release()
	}
	for _, t := range m.textures {
		t.Release()
	}
	m.Meshes = nil
	m.textures = nil
}
