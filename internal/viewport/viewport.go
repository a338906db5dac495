// Package viewport implements the coordinate transform between source-pixel
// space and the fixed output frame. A Transform is pure data: zoom, pan, and
// the greyscale flag. It never clamps pan — the viewport may overlap the
// source image partially or not at all, and the rasterizer resolves that.
package viewport

// Output frame dimensions in pixels. Every committed crop is exactly this size.
const (
	FrameWidth  = 300
	FrameHeight = 400
)

// Zoom bounds in percent. Values outside this range are silently clamped.
const (
	MinZoom = 10
	MaxZoom = 200
)

// Rect is an axis-aligned rectangle in source-pixel space, in float
// coordinates so sub-pixel viewport positions survive the mapping.
type Rect struct {
	X0, Y0 float64
	X1, Y1 float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle has zero or negative area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Intersect returns the overlap of two rectangles. The result may be empty.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X0: maxf(r.X0, o.X0),
		Y0: maxf(r.Y0, o.Y0),
		X1: minf(r.X1, o.X1),
		Y1: minf(r.Y1, o.Y1),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Transform holds the per-image framing state: zoom percentage, pan offset
// in output-frame pixel units, and the greyscale flag. Zoom is kept inside
// [MinZoom, MaxZoom]; pan is unbounded by design.
type Transform struct {
	ZoomPercent int     `json:"zoom_percent"`
	PanX        float64 `json:"pan_x"`
	PanY        float64 `json:"pan_y"`
	Greyscale   bool    `json:"greyscale"`
}

// ClampZoom forces a zoom percentage into the valid range. Idempotent.
func ClampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// Scale returns the zoom as a scale factor (100% → 1.0), clamping first so
// a Transform built from raw values still maps sanely.
func (t Transform) Scale() float64 {
	return float64(ClampZoom(t.ZoomPercent)) / 100
}

// Normalized returns a copy with the zoom clamped into range.
func (t Transform) Normalized() Transform {
	t.ZoomPercent = ClampZoom(t.ZoomPercent)
	return t
}

// SetZoom stores an absolute zoom percentage, clamped.
func (t *Transform) SetZoom(zoom int) {
	t.ZoomPercent = ClampZoom(zoom)
}

// AdjustZoom applies a relative zoom change, clamped.
func (t *Transform) AdjustZoom(delta int) {
	t.ZoomPercent = ClampZoom(t.ZoomPercent + delta)
}

// AdjustPan applies a relative pan change in output-frame pixel units.
func (t *Transform) AdjustPan(dx, dy float64) {
	t.PanX += dx
	t.PanY += dy
}

// SourceToFrame maps a source-pixel coordinate into output-frame space:
// frame = source·(zoom/100) + pan.
func (t Transform) SourceToFrame(x, y float64) (float64, float64) {
	s := t.Scale()
	return x*s + t.PanX, y*s + t.PanY
}

// FrameToSource is the exact inverse of SourceToFrame:
// source = (frame − pan) / (zoom/100).
func (t Transform) FrameToSource(x, y float64) (float64, float64) {
	s := t.Scale()
	return (x - t.PanX) / s, (y - t.PanY) / s
}

// VisibleSourceRect inverse-maps the output frame into source-pixel space.
// The result is unclamped: it may lie partially or entirely outside the
// source image.
func (t Transform) VisibleSourceRect() Rect {
	x0, y0 := t.FrameToSource(0, 0)
	x1, y1 := t.FrameToSource(FrameWidth, FrameHeight)
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
