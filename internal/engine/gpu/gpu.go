// Package gpu owns the device buffers a morphing mesh draws from.
//
// Every handle is wrapped in a type with Release so buffer lifetime follows
// the mesh that owns it. Device abstracts creation so mesh assembly can be
// exercised without a GL context.
package gpu

import (
	"fmt"
	"image"
)

// Vertex is the interleaved layout uploaded to the geometry buffer.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// VertexStride is the byte size of Vertex.
const VertexStride = 32

// Attribute byte offsets within Vertex.
const (
	OffsetPosition = 0
	OffsetNormal   = 12
	OffsetTexCoord = 24
)

// Format is the texel format of a texture buffer.
type Format int

const (
	// R32F holds one float per texel. Used for weights.
	R32F Format = iota
	// RGBA32F holds four floats per texel. Used for deltas.
	RGBA32F
)

// Components returns floats per texel.
func (f Format) Components() int {
	if f == RGBA32F {
		return 4
	}
	return 1
}

func (f Format) String() string {
	if f == RGBA32F {
		return "RGBA32F"
	}
	return "R32F"
}

// Texture units used by the morph program.
const (
	UnitDiffuse uint32 = 0
	UnitDeltas  uint32 = 1
	UnitWeights uint32 = 2
)

// ContractError reports a write whose size does not match the buffer allocation.
// Callers treat it as a programming error.
type ContractError struct {
	Buffer string
	Want   int
	Got    int
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("buffer %s: write of %d floats into allocation of %d", e.Buffer, e.Got, e.Want)
}

// checkWrite validates a full-overwrite write against the allocation size.
func checkWrite(name string, want int, data []float32) error {
	if len(data) != want {
		return &ContractError{Buffer: name, Want: want, Got: len(data)}
	}
	return nil
}

// Geometry is a static vertex/index buffer pair.
type Geometry interface {
	Draw()
	IndexCount() int32
	Release()
}

// Buffer is a float buffer sampled by shaders. Write always overwrites the
// whole allocation; the size is fixed at creation.
type Buffer interface {
	Write(data []float32) error
	Len() int
	Bind(unit uint32)
	Release()
}

// Texture is a 2D image on the device.
type Texture interface {
	ID() uint32
	Bind(unit uint32)
	Release()
}

// Device creates device resources.
type Device interface {
	NewGeometry(vertices []Vertex, indices []uint32) (Geometry, error)
	NewBuffer(name string, format Format, data []float32, dynamic bool) (Buffer, error)
	NewTexture(img *image.RGBA) (Texture, error)
}

// Interleave packs parallel attribute arrays into vertices. normals and uvs
// may be shorter than positions; missing entries are zero.
func Interleave(positions, normals [][3]float32, uvs [][2]float32) []Vertex {
	out := make([]Vertex, len(positions))
	for i := range positions {
		out[i].Position = positions[i]
		if i < len(normals) {
			out[i].Normal = normals[i]
		}
		if i < len(uvs) {
			out[i].TexCoord = uvs[i]
		}
	}
	return out
}
