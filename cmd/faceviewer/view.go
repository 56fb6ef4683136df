package main

import (
	"image"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/facemorph/internal/engine/camera"
	"github.com/Faultbox/facemorph/internal/engine/framebuffer"
	"github.com/Faultbox/facemorph/internal/engine/gpu"
	"github.com/Faultbox/facemorph/internal/engine/model"
	"github.com/Faultbox/facemorph/internal/engine/renderer"
	"github.com/Faultbox/facemorph/internal/engine/ui"
)

// faceView is one model slot rendered offscreen and shown as an image.
type faceView struct {
	name      string
	slot      *model.Slot
	fb        *framebuffer.Framebuffer
	cam       *camera.OrbitCamera
	lastMouse imgui.Vec2
}

func newFaceView(name string, dev gpu.Device, opts model.Options, size int) (*faceView, error) {
	fb, err := framebuffer.New(size, size)
	if err != nil {
		return nil, err
	}
	return &faceView{
		name: name,
		slot: model.NewSlot(dev, opts),
		fb:   fb,
		cam:  camera.NewOrbitCamera(),
	}, nil
}

// Load swaps in the model at path and frames it.
func (v *faceView) Load(path string) error {
	if err := v.slot.Load(path); err != nil {
		return err
	}
	v.cam.FitToBounds(v.slot.Model().Bounds)
	return nil
}

func (v *faceView) Model() *model.Model {
	return v.slot.Model()
}

// RenderModel draws the current model into the offscreen target.
func (v *faceView) RenderModel(r *renderer.Renderer) {
	m := v.slot.Model()
	if m == nil {
		return
	}
	size := v.fb.Size()
	v.fb.Render(func() {
		r.Draw(m, v.cam, size.X, size.Y)
	})
}

// Show draws the viewport image at most maxH tall and applies orbit input
// while it is hovered.
func (v *faceView) Show(maxH float32) {
	if v.slot.Model() == nil {
		avail := imgui.ContentRegionAvail()
		imgui.Dummy(imgui.NewVec2(avail.X, min(avail.Y, maxH)))
		return
	}

	size := v.fb.Size()
	if !ui.Image(v.fb.TextureID(), float32(size.X), float32(size.Y), maxH, true) {
		return
	}

	mousePos := imgui.MousePos()
	if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
		v.cam.HandleDrag(mousePos.X-v.lastMouse.X, mousePos.Y-v.lastMouse.Y)
	}
	v.lastMouse = mousePos

	if wheel := imgui.CurrentIO().MouseWheel(); wheel != 0 {
		v.cam.HandleZoom(wheel)
	}
}

// ResetCamera frames the current model again.
func (v *faceView) ResetCamera() {
	if m := v.slot.Model(); m != nil {
		v.cam.FitToBounds(m.Bounds)
	}
}

func (v *faceView) Snapshot() *image.RGBA {
	return v.fb.Snapshot()
}

func (v *faceView) Release() {
	v.slot.Release()
	v.fb.Release()
}
