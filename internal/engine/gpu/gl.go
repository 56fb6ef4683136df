package gpu

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GL is the OpenGL 4.1 core Device. All calls must come from the thread that
// owns the context.
type GL struct{}

// NewGeometry uploads vertices and indices into a VAO with attributes at
// locations 0 (position), 1 (normal) and 2 (texcoord).
func (GL) NewGeometry(vertices []Vertex, indices []uint32) (Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, errors.New("empty geometry")
	}

	g := &glGeometry{count: int32(len(indices))}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*VertexStride, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, VertexStride, OffsetPosition)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, VertexStride, OffsetNormal)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, VertexStride, OffsetTexCoord)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return g, nil
}

type glGeometry struct {
	vao, vbo, ebo uint32
	count         int32
}

func (g *glGeometry) Draw() {
	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (g *glGeometry) IndexCount() int32 {
	return g.count
}

func (g *glGeometry) Release() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
		g.vao = 0
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
		g.vbo = 0
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
		g.ebo = 0
	}
}

// TextureBuffer is a buffer object exposed to shaders as a samplerBuffer.
type TextureBuffer struct {
	name   string
	format Format
	n      int // floats
	buf    uint32
	tex    uint32
}

// NewBuffer allocates a texture buffer holding data. Dynamic buffers are
// expected to be rewritten every frame.
func (GL) NewBuffer(name string, format Format, data []float32, dynamic bool) (Buffer, error) {
	if len(data)%format.Components() != 0 {
		return nil, fmt.Errorf("buffer %s: %d floats is not a whole number of %s texels", name, len(data), format)
	}

	b := &TextureBuffer{name: name, format: format, n: len(data)}

	usage := uint32(gl.STATIC_DRAW)
	if dynamic {
		usage = gl.DYNAMIC_DRAW
	}

	gl.GenBuffers(1, &b.buf)
	gl.BindBuffer(gl.TEXTURE_BUFFER, b.buf)
	gl.BufferData(gl.TEXTURE_BUFFER, len(data)*4, floatPtr(data), usage)

	internal := uint32(gl.R32F)
	if format == RGBA32F {
		internal = gl.RGBA32F
	}
	gl.GenTextures(1, &b.tex)
	gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
	gl.TexBuffer(gl.TEXTURE_BUFFER, internal, b.buf)

	gl.BindTexture(gl.TEXTURE_BUFFER, 0)
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)
	return b, nil
}

// Write replaces the whole buffer. A size mismatch returns *ContractError and
// leaves the device copy untouched.
func (b *TextureBuffer) Write(data []float32) error {
	if err := checkWrite(b.name, b.n, data); err != nil {
		return err
	}
	if b.n == 0 {
		return nil
	}
	gl.BindBuffer(gl.TEXTURE_BUFFER, b.buf)
	gl.BufferSubData(gl.TEXTURE_BUFFER, 0, len(data)*4, unsafe.Pointer(&data[0]))
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)
	return nil
}

// Len returns the allocation size in floats.
func (b *TextureBuffer) Len() int {
	return b.n
}

// Bind attaches the buffer texture to a texture unit.
func (b *TextureBuffer) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
}

// Release deletes the texture and buffer objects.
func (b *TextureBuffer) Release() {
	if b.tex != 0 {
		gl.DeleteTextures(1, &b.tex)
		b.tex = 0
	}
	if b.buf != 0 {
		gl.DeleteBuffers(1, &b.buf)
		b.buf = 0
	}
}

// NewTexture uploads an RGBA image with mipmaps.
func (GL) NewTexture(img *image.RGBA) (Texture, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty image")
	}

	t := &glTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t, nil
}

type glTexture struct {
	id uint32
}

func (t *glTexture) ID() uint32 {
	return t.id
}

func (t *glTexture) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

func (t *glTexture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// floatPtr returns nil for empty slices so zero-sized allocations are legal.
func floatPtr(data []float32) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}
