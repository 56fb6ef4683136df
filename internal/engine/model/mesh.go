package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/engine/morph"
)

// Binder receives per-mesh program state right before a draw call.
// shader.MorphProgram implements it.
type Binder interface {
	SetMorph(targets, vertices int32)
	SetTextured(on bool)
}

// Mesh is one drawable primitive with its three device buffers.
type Mesh struct {
	Name        string
	Node        string
	VertexCount int
	Bounds      Bounds

	Morph    *morph.Set
	Animator *morph.Animator

	geometry gpu.Geometry
	deltas   gpu.Buffer
	weights  gpu.Buffer
	texture  gpu.Texture // shared with other meshes, owned by Model
}

// TargetCount returns the number of blend shapes on the mesh.
func (m *Mesh) TargetCount() int {
	return m.Morph.TargetCount()
}

// TextureID returns the diffuse texture handle, 0 when untextured.
func (m *Mesh) TextureID() uint32 {
	if m.texture == nil {
		return 0
	}
	return m.texture.ID()
}

// Draw binds the mesh buffers and issues the draw call.
func (m *Mesh) Draw(b Binder) {
	b.SetMorph(int32(m.TargetCount()), int32(m.VertexCount))
	m.deltas.Bind(gpu.UnitDeltas)
	m.weights.Bind(gpu.UnitWeights)
	if m.texture != nil {
		m.texture.Bind(gpu.UnitDiffuse)
	}
	b.SetTextured(m.texture != nil)
	m.geometry.Draw()
}

func (m *Mesh) release() {
	for _, r := range []interface{ Release() }{m.geometry, m.deltas, m.weights} {
		if r != nil {
			r.Release()
		}
	}
	m.geometry, m.deltas, m.weights, m.texture = nil, nil, nil, nil
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the box midpoint.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func boundsOf(positions [][3]float32) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		b = b.extend(p)
	}
	return b
}

func (b Bounds) extend(p mgl32.Vec3) Bounds {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func (b Bounds) union(o Bounds) Bounds {
	return b.extend(o.Min).extend(o.Max)
}
