// Package morph implements blend-shape (morph target) data and playback.
//
// A Set holds per-vertex deltas for every blend shape of one mesh, laid out the
// way the vertex shader reads them: target-major, then vertex, then two vec4s
// (position delta, normal delta) with w = 0. A Track holds time-sorted weight
// keyframes, and an Animator turns either a clock time or a frame/alpha pair
// into the live weight vector and pushes it to a device buffer.
package morph

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// TexelsPerVertex is the number of vec4 entries each vertex occupies per target.
const TexelsPerVertex = 2

// ErrVertexCount is returned when a variant does not match the base vertex count.
var ErrVertexCount = errors.New("blend shape vertex count mismatch")

// Variant is a blend-shape target expressed as absolute attributes.
// Normals may be nil when the source only changes positions.
type Variant struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Default   float32
}

// BlendShape is one target's deltas split by attribute.
type BlendShape struct {
	Name           string
	PositionDeltas []mgl32.Vec4
	NormalDeltas   []mgl32.Vec4
}

// Set is the packed blend-shape data of a mesh.
type Set struct {
	VertexCount int
	Names       []string
	Defaults    []float32

	// Deltas is [target][vertex][pos, normal]; len == targets*vertices*2.
	Deltas []mgl32.Vec4
}

// Extract computes per-vertex deltas of every variant against the base mesh.
// A component pair that is exactly equal yields an exact zero, so untouched
// vertices carry no floating point noise.
func Extract(positions, normals [][3]float32, variants []Variant) (*Set, error) {
	n := len(positions)
	if normals != nil && len(normals) != n {
		return nil, fmt.Errorf("%w: %d normals for %d positions", ErrVertexCount, len(normals), n)
	}

	s := &Set{
		VertexCount: n,
		Names:       make([]string, len(variants)),
		Defaults:    make([]float32, len(variants)),
		Deltas:      make([]mgl32.Vec4, len(variants)*n*TexelsPerVertex),
	}

	for t, v := range variants {
		if len(v.Positions) != n {
			return nil, fmt.Errorf("%w: target %d (%s) has %d positions, base has %d",
				ErrVertexCount, t, v.Name, len(v.Positions), n)
		}
		if v.Normals != nil && len(v.Normals) != n {
			return nil, fmt.Errorf("%w: target %d (%s) has %d normals, base has %d",
				ErrVertexCount, t, v.Name, len(v.Normals), n)
		}
		s.Names[t] = v.Name
		s.Defaults[t] = v.Default

		base := t * n * TexelsPerVertex
		for i := 0; i < n; i++ {
			s.Deltas[base+i*TexelsPerVertex] = delta(positions[i], v.Positions[i])
			if v.Normals != nil && normals != nil {
				s.Deltas[base+i*TexelsPerVertex+1] = delta(normals[i], v.Normals[i])
			}
		}
	}
	return s, nil
}

func delta(base, variant [3]float32) mgl32.Vec4 {
	if base == variant {
		return mgl32.Vec4{}
	}
	return mgl32.Vec4{variant[0] - base[0], variant[1] - base[1], variant[2] - base[2], 0}
}

// TargetCount returns the number of blend shapes.
func (s *Set) TargetCount() int {
	return len(s.Names)
}

// Shape returns a copy of one target's deltas.
func (s *Set) Shape(target int) BlendShape {
	b := BlendShape{
		Name:           s.Names[target],
		PositionDeltas: make([]mgl32.Vec4, s.VertexCount),
		NormalDeltas:   make([]mgl32.Vec4, s.VertexCount),
	}
	base := target * s.VertexCount * TexelsPerVertex
	for i := 0; i < s.VertexCount; i++ {
		b.PositionDeltas[i] = s.Deltas[base+i*TexelsPerVertex]
		b.NormalDeltas[i] = s.Deltas[base+i*TexelsPerVertex+1]
	}
	return b
}

// Flat returns the delta buffer as tightly packed float32s for upload.
func (s *Set) Flat() []float32 {
	out := make([]float32, 0, len(s.Deltas)*4)
	for _, v := range s.Deltas {
		out = append(out, v[0], v[1], v[2], v[3])
	}
	return out
}
