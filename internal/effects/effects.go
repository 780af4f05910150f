// Package effects computes the per-frame crop window for Ken Burns style
// pan/zoom animation over an oversized still image. All motion is linear
// in scene progress, no easing curve, so a frame is a pure function of
// (effect, t) and renders are reproducible.
package effects

import (
	"image"
	"math"
	"math/rand"
)

type Effect string

const (
	ZoomIn         Effect = "zoom_in"
	ZoomOut        Effect = "zoom_out"
	PanLeft        Effect = "pan_left"
	PanRight       Effect = "pan_right"
	PanUp          Effect = "pan_up"
	PanDown        Effect = "pan_down"
	ZoomInPanRight Effect = "zoom_in_pan_right" // push in + pan right
	ZoomOutPanLeft Effect = "zoom_out_pan_left" // pull out + pan left
)

// All lists every effect the director may assign to a scene.
var All = []Effect{
	ZoomIn, ZoomOut,
	PanLeft, PanRight, PanUp, PanDown,
	ZoomInPanRight, ZoomOutPanLeft,
}

// comboDamp softens the zoom ramp of the combined effects so the pan
// component stays visible.
const comboDamp = 0.6

// Valid reports whether e names a known effect.
func (e Effect) Valid() bool {
	for _, known := range All {
		if e == known {
			return true
		}
	}
	return false
}

// Pick returns a random effect from the injected source.
func Pick(r *rand.Rand) Effect {
	return All[r.Intn(len(All))]
}

// Params describes the geometry a crop window is computed against.
type Params struct {
	ImageWidth  int     // oversized source width
	ImageHeight int     // oversized source height
	ViewWidth   int     // output viewport width
	ViewHeight  int     // output viewport height
	ZoomFactor  float64 // crop shrinks to this fraction of the image at full zoom
}

// Scale returns the crop-window scale (fraction of the source image) for
// effect e at linear progress t in [0,1]. Pans hold the viewport scale;
// zooms ramp between 1.0 and the zoom factor.
func (p Params) Scale(e Effect, t float64) float64 {
	t = clamp01(t)
	zf := p.ZoomFactor
	switch e {
	case ZoomIn:
		return 1.0 - t*(1.0-zf)
	case ZoomOut:
		return zf + t*(1.0-zf)
	case ZoomInPanRight:
		return 1.0 - t*(1.0-zf)*comboDamp
	case ZoomOutPanLeft:
		return zf + t*(1.0-zf)*comboDamp
	default:
		// pans crop at viewport size, constant zoom
		return float64(p.ViewWidth) / float64(p.ImageWidth)
	}
}

// CropWindow computes the source crop rectangle for effect e at linear
// progress t. The window is always clamped inside the image bounds, so
// the caller can crop without further checks.
func (p Params) CropWindow(e Effect, t float64) image.Rectangle {
	t = clamp01(t)
	iw, ih := p.ImageWidth, p.ImageHeight
	vw, vh := p.ViewWidth, p.ViewHeight
	maxDX := iw - vw
	maxDY := ih - vh

	// default: centered viewport-size crop
	cx, cy := maxDX/2, maxDY/2
	cw, ch := vw, vh

	switch e {
	case ZoomIn, ZoomOut:
		scale := p.Scale(e, t)
		cw = int(float64(iw) * scale)
		ch = int(float64(ih) * scale)
		cx = (iw - cw) / 2
		cy = (ih - ch) / 2

	case PanLeft:
		cx = int(float64(maxDX) * (1.0 - t))
		cy = maxDY / 2

	case PanRight:
		cx = int(float64(maxDX) * t)
		cy = maxDY / 2

	case PanUp:
		cx = maxDX / 2
		cy = int(float64(maxDY) * (1.0 - t))

	case PanDown:
		cx = maxDX / 2
		cy = int(float64(maxDY) * t)

	case ZoomInPanRight:
		scale := p.Scale(e, t)
		cw = int(float64(iw) * scale)
		ch = int(float64(ih) * scale)
		cx = int(float64(iw-cw) * t)
		cy = (ih - ch) / 2

	case ZoomOutPanLeft:
		scale := p.Scale(e, t)
		cw = int(float64(iw) * scale)
		ch = int(float64(ih) * scale)
		cx = int(float64(iw-cw) * (1.0 - t))
		cy = (ih - ch) / 2
	}

	// clamp to image bounds
	cw = clampInt(cw, 1, iw)
	ch = clampInt(ch, 1, ih)
	cx = clampInt(cx, 0, iw-cw)
	cy = clampInt(cy, 0, ih-ch)

	return image.Rect(cx, cy, cx+cw, cy+ch)
}

// VisibleZoom reports the on-screen magnification for effect e at t:
// 1.0 when the full image fills the viewport, 1/zoom_factor fully pushed in.
func (p Params) VisibleZoom(e Effect, t float64) float64 {
	s := p.Scale(e, t)
	if s <= 0 {
		return math.Inf(1)
	}
	return 1.0 / s
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
