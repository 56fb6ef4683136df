package ui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
)

// Timeline colors.
var (
	colHeader   = imgui.NewVec4(0.24, 0.24, 0.24, 1)
	colTrack    = imgui.NewVec4(0.13, 0.13, 0.13, 1)
	colBorder   = imgui.NewVec4(0.35, 0.35, 0.35, 1)
	colTickMaj  = imgui.NewVec4(0.55, 0.55, 0.55, 0.7)
	colTickMin  = imgui.NewVec4(0.35, 0.35, 0.35, 0.55)
	colKey      = imgui.NewVec4(1, 0.59, 0.08, 1)
	colPlayhead = imgui.NewVec4(0.2, 1, 0.2, 1)
)

const (
	timelineHeaderH = 18
	timelineTrackH  = 44
	majorTickEvery  = 10
	minorTickEvery  = 5
)

// FitSize scales src to fit inside avail, keeping its aspect ratio.
func FitSize(srcW, srcH, availW, availH float32) (w, h float32) {
	if srcW <= 0 || srcH <= 0 || availW <= 0 || availH <= 0 {
		return 0, 0
	}
	scale := min(availW/srcW, availH/srcH)
	return srcW * scale, srcH * scale
}

// Image draws a texture fitted to the available width and at most maxH
// tall, centered horizontally. flipV is needed for framebuffer textures.
// It reports whether the image is hovered.
func Image(texID uint32, srcW, srcH, maxH float32, flipV bool) bool {
	avail := imgui.ContentRegionAvail()
	w, h := FitSize(srcW, srcH, avail.X, min(avail.Y, maxH))
	if w == 0 || texID == 0 {
		imgui.Dummy(imgui.NewVec2(avail.X, maxH))
		return false
	}
	if w < avail.X {
		imgui.SetCursorPosX(imgui.CursorPosX() + (avail.X-w)/2)
	}

	uv0, uv1 := imgui.NewVec2(0, 0), imgui.NewVec2(1, 1)
	if flipV {
		uv0, uv1 = imgui.NewVec2(0, 1), imgui.NewVec2(1, 0)
	}
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(texID))
	imgui.ImageWithBgV(*texRef, imgui.NewVec2(w, h), uv0, uv1,
		imgui.NewVec4(0.15, 0.15, 0.15, 1), imgui.NewVec4(1, 1, 1, 1))
	return imgui.IsItemHovered()
}

// tickKind classifies a frame for the ruler: 2 major, 1 minor, 0 none.
func tickKind(frame int) int {
	switch {
	case frame%majorTickEvery == 0:
		return 2
	case frame%minorTickEvery == 0:
		return 1
	default:
		return 0
	}
}

// frameAt maps an x offset along a timeline of width w to a frame index,
// or -1 when outside.
func frameAt(x, w float32, frames int) int {
	if frames <= 0 || w <= 0 || x < 0 || x >= w {
		return -1
	}
	f := int(x / (w / float32(frames)))
	return min(f, frames-1)
}

// Timeline draws a frame ruler with key markers every keyEvery frames and a
// playhead at frame. Dragging on it scrubs; the new frame is returned with
// true when it changed.
func Timeline(id string, frame, frames, keyEvery int) (int, bool) {
	dl := imgui.WindowDrawList()
	origin := imgui.CursorScreenPos()
	width := imgui.ContentRegionAvail().X
	height := float32(timelineHeaderH + timelineTrackH)
	n := max(frames, 1)
	px := width / float32(n)

	bottom := imgui.NewVec2(origin.X+width, origin.Y+height)
	dl.AddRectFilledV(origin, imgui.NewVec2(origin.X+width, origin.Y+timelineHeaderH), imgui.ColorU32Vec4(colHeader), 4, imgui.DrawFlagsRoundCornersTop)
	dl.AddRectFilledV(imgui.NewVec2(origin.X, origin.Y+timelineHeaderH), bottom, imgui.ColorU32Vec4(colTrack), 0, 0)
	dl.AddRectV(origin, bottom, imgui.ColorU32Vec4(colBorder), 4, 0, 1.5)

	base := origin.Y + timelineHeaderH
	for f := 0; f < frames; f++ {
		kind := tickKind(f)
		if kind == 0 {
			continue
		}
		x := origin.X + float32(f)*px
		h, col := float32(6), colTickMin
		if kind == 2 {
			h, col = 12, colTickMaj
		}
		dl.AddLine(imgui.NewVec2(x, base-h), imgui.NewVec2(x, base), imgui.ColorU32Vec4(col))
	}

	if keyEvery > 0 {
		const r = 5
		cy := base + timelineTrackH/2
		for f := 0; f < frames; f += keyEvery {
			cx := origin.X + float32(f)*px
			dl.AddQuadFilled(
				imgui.NewVec2(cx, cy-r),
				imgui.NewVec2(cx+r, cy),
				imgui.NewVec2(cx, cy+r),
				imgui.NewVec2(cx-r, cy),
				imgui.ColorU32Vec4(colKey))
		}
	}

	headX := origin.X + float32(frame)*px
	dl.AddLineV(imgui.NewVec2(headX, origin.Y), imgui.NewVec2(headX, bottom.Y), imgui.ColorU32Vec4(colPlayhead), 2)
	dl.AddTriangleFilled(
		imgui.NewVec2(headX, origin.Y+6),
		imgui.NewVec2(headX-5, origin.Y),
		imgui.NewVec2(headX+5, origin.Y),
		imgui.ColorU32Vec4(colPlayhead))

	imgui.InvisibleButton(id, imgui.NewVec2(width, height))
	if imgui.IsItemHovered() {
		imgui.SetTooltip(fmt.Sprintf("Frame %d / %d, drag to scrub", frame, max(frames-1, 0)))
	}
	if imgui.IsItemActive() {
		if f := frameAt(imgui.MousePos().X-origin.X, width, frames); f >= 0 && f != frame {
			return f, true
		}
	}
	return frame, false
}

// Progress draws a labelled progress bar for done out of total.
func Progress(done, total int) {
	fraction := float32(0)
	if total > 0 {
		fraction = min(float32(done)/float32(total), 1)
	}
	imgui.ProgressBarV(fraction, imgui.NewVec2(-1, 20), fmt.Sprintf("%d / %d (%.0f%%)", done, total, fraction*100))
}
