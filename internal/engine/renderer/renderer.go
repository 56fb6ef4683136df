// Package renderer draws morph-animated models with the blend-shape program.
package renderer

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/engine/camera"
	"github.com/Faultbox/facemorph/internal/engine/model"
	"github.com/Faultbox/facemorph/internal/engine/shader"
	"github.com/Faultbox/facemorph/internal/logger"
)

// Renderer owns the morph program and the scene light.
type Renderer struct {
	program *shader.MorphProgram
	log     *zap.Logger

	// Light is the direction light travels in.
	Light mgl32.Vec3
	// BaseColor shades untextured meshes.
	BaseColor mgl32.Vec3
}

// New compiles the program. It must be called after the GL context exists.
func New() (*Renderer, error) {
	p, err := shader.NewMorphProgram()
	if err != nil {
		return nil, fmt.Errorf("morph program: %w", err)
	}
	r := &Renderer{
		program:   p,
		log:       logger.Named("renderer"),
		Light:     LightDirection(30, 25),
		BaseColor: mgl32.Vec3{0.82, 0.72, 0.66},
	}
	r.log.Debug("renderer ready", zap.Uint32("program", p.ID))
	return r, nil
}

// LightDirection returns the direction of light coming from a source at
// azimuth degrees around the vertical axis (0 is in front of the face) and
// elevation degrees above the horizon.
func LightDirection(azimuth, elevation float32) mgl32.Vec3 {
	az, el := mgl32.DegToRad(azimuth), mgl32.DegToRad(elevation)
	toLight := mgl32.Vec3{
		math32.Cos(el) * math32.Sin(az),
		math32.Sin(el),
		math32.Cos(el) * math32.Cos(az),
	}
	return toLight.Mul(-1)
}

// Draw renders m into the currently bound target of size width x height.
func (r *Renderer) Draw(m *model.Model, cam *camera.OrbitCamera, width, height int) {
	if m == nil {
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)

	r.program.Use(mgl32.Ident4(), cam.ViewMatrix(), cam.Projection(width, height))
	r.program.SetLight(r.Light)
	r.program.SetBaseColor(r.BaseColor)
	m.Draw(r.program)

	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// Close releases the program.
func (r *Renderer) Close() {
	r.program.Release()
}
