package shader

import (
	_ "embed"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/facemorph/internal/engine/gpu"
)

//go:embed glsl/morph.vert
var MorphVertex string

//go:embed glsl/morph.frag
var MorphFragment string

// MorphProgram is the linked blend-shape program with its uniform locations.
type MorphProgram struct {
	ID uint32

	model, view, projection int32
	deltas, weights         int32
	targetCount, vertCount  int32
	diffuse, hasTexture     int32
	lightDir, baseColor     int32
}

// NewMorphProgram compiles the embedded morph shaders.
func NewMorphProgram() (*MorphProgram, error) {
	id, err := CompileProgram(MorphVertex, MorphFragment)
	if err != nil {
		return nil, err
	}
	p := &MorphProgram{
		ID:          id,
		model:       MustUniform(id, "uModel"),
		view:        MustUniform(id, "uView"),
		projection:  MustUniform(id, "uProjection"),
		deltas:      Uniform(id, "uDeltas"),
		weights:     Uniform(id, "uWeights"),
		targetCount: Uniform(id, "uTargetCount"),
		vertCount:   Uniform(id, "uVertexCount"),
		diffuse:     Uniform(id, "uDiffuse"),
		hasTexture:  Uniform(id, "uHasTexture"),
		lightDir:    Uniform(id, "uLightDir"),
		baseColor:   Uniform(id, "uBaseColor"),
	}

	gl.UseProgram(id)
	gl.Uniform1i(p.diffuse, int32(gpu.UnitDiffuse))
	gl.Uniform1i(p.deltas, int32(gpu.UnitDeltas))
	gl.Uniform1i(p.weights, int32(gpu.UnitWeights))
	gl.Uniform3f(p.lightDir, -0.3, -0.5, -1.0)
	gl.Uniform3f(p.baseColor, 0.82, 0.72, 0.66)
	gl.UseProgram(0)
	return p, nil
}

// Use binds the program and sets the per-frame camera matrices.
func (p *MorphProgram) Use(model, view, projection mgl32.Mat4) {
	gl.UseProgram(p.ID)
	gl.UniformMatrix4fv(p.model, 1, false, &model[0])
	gl.UniformMatrix4fv(p.view, 1, false, &view[0])
	gl.UniformMatrix4fv(p.projection, 1, false, &projection[0])
}

// SetMorph sets the buffer dimensions of the mesh about to be drawn.
func (p *MorphProgram) SetMorph(targets, vertices int32) {
	gl.Uniform1i(p.targetCount, targets)
	gl.Uniform1i(p.vertCount, vertices)
}

// SetTextured toggles sampling the diffuse texture.
func (p *MorphProgram) SetTextured(on bool) {
	v := int32(0)
	if on {
		v = 1
	}
	gl.Uniform1i(p.hasTexture, v)
}

// SetLight sets the direction light travels in, in world space. The program
// must be in use.
func (p *MorphProgram) SetLight(dir mgl32.Vec3) {
	gl.Uniform3f(p.lightDir, dir[0], dir[1], dir[2])
}

// SetBaseColor sets the color of untextured meshes. The program must be in use.
func (p *MorphProgram) SetBaseColor(c mgl32.Vec3) {
	gl.Uniform3f(p.baseColor, c[0], c[1], c[2])
}

// Release deletes the program.
func (p *MorphProgram) Release() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}
