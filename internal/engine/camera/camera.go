// Package camera provides the orbit camera used by the face viewports.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/facemorph/internal/engine/model"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians, positive looks down
	Yaw      float32 // radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	FOV  float32 // vertical, radians
	Near float32
	Far  float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a camera facing the origin head-on.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        3,
		MinDistance:     0.01,
		MaxDistance:     1000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FOV:             mgl32.DegToRad(35),
		Near:            0.01,
		Far:             100,
		DragSensitivity: 0.01,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp, sp := math32.Cos(c.Pitch), math32.Sin(c.Pitch)
	offset := mgl32.Vec3{
		c.Distance * cp * math32.Sin(c.Yaw),
		c.Distance * sp,
		c.Distance * cp * math32.Cos(c.Yaw),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// Projection returns a perspective matrix for a viewport of the given size.
func (c *OrbitCamera) Projection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom moves the camera in for positive wheel deltas.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// Reset faces the model head-on without changing the framing distance.
func (c *OrbitCamera) Reset() {
	c.Pitch, c.Yaw = 0, 0
}

// FitToBounds frames b so its largest extent fills the vertical field of view
// with a small margin. Near and far planes follow the distance.
func (c *OrbitCamera) FitToBounds(b model.Bounds) {
	c.Center = b.Center()

	size := b.Size()
	radius := 0.5 * math32.Max(size[0], math32.Max(size[1], size[2]))
	if radius <= 0 {
		radius = 0.5
	}

	c.Distance = 1.2 * radius / math32.Tan(c.FOV/2)
	c.MinDistance = radius * 0.1
	c.MaxDistance = c.Distance * 20
	c.Near = c.Distance / 100
	c.Far = c.Distance * 40
	c.Reset()
}
