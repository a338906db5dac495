package viewport

import (
	"math"
	"testing"
)

// TestClampZoom verifies zoom clamping at and around the bounds, and that
// clamping an already-clamped value is a no-op.
func TestClampZoom(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "far below minimum", in: -500, want: MinZoom},
		{name: "just below minimum", in: 9, want: MinZoom},
		{name: "at minimum", in: 10, want: 10},
		{name: "default", in: 100, want: 100},
		{name: "at maximum", in: 200, want: 200},
		{name: "just above maximum", in: 201, want: MaxZoom},
		{name: "far above maximum", in: 100000, want: MaxZoom},
		{name: "zero", in: 0, want: MinZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampZoom(tt.in)
			if got != tt.want {
				t.Errorf("ClampZoom(%d) = %d, want %d", tt.in, got, tt.want)
			}
			// Idempotence: clamping the result changes nothing.
			if again := ClampZoom(got); again != got {
				t.Errorf("ClampZoom(ClampZoom(%d)) = %d, want %d", tt.in, again, got)
			}
		})
	}
}

// TestForwardInverseRoundTrip checks that SourceToFrame and FrameToSource
// are exact inverses within floating-point tolerance for a spread of
// zoom/pan pairs, including extreme pans.
func TestForwardInverseRoundTrip(t *testing.T) {
	transforms := []Transform{
		{ZoomPercent: 100},
		{ZoomPercent: 10, PanX: -2000, PanY: 3000},
		{ZoomPercent: 200, PanX: 0.5, PanY: -0.25},
		{ZoomPercent: 37, PanX: 123.456, PanY: -654.321},
		{ZoomPercent: 200, PanX: 1e6, PanY: -1e6},
	}
	points := [][2]float64{
		{0, 0}, {1, 1}, {299.5, 399.5}, {-50, 1000}, {0.001, 0.001},
	}

	const tol = 1e-9
	for _, tr := range transforms {
		for _, p := range points {
			fx, fy := tr.SourceToFrame(p[0], p[1])
			bx, by := tr.FrameToSource(fx, fy)
			if math.Abs(bx-p[0]) > tol*math.Max(1, math.Abs(p[0])) ||
				math.Abs(by-p[1]) > tol*math.Max(1, math.Abs(p[1])) {
				t.Errorf("round trip %+v on (%g,%g) = (%g,%g)", tr, p[0], p[1], bx, by)
			}
		}
	}
}

// TestVisibleSourceRect covers the identity case and an off-image pan.
func TestVisibleSourceRect(t *testing.T) {
	t.Run("zoom 100 no pan is a top-left frame-sized window", func(t *testing.T) {
		tr := Transform{ZoomPercent: 100}
		r := tr.VisibleSourceRect()
		if r.X0 != 0 || r.Y0 != 0 || r.X1 != FrameWidth || r.Y1 != FrameHeight {
			t.Errorf("VisibleSourceRect() = %+v, want [0,%d]x[0,%d]", r, FrameWidth, FrameHeight)
		}
	})

	t.Run("pan far left puts the window outside a 1000px image", func(t *testing.T) {
		tr := Transform{ZoomPercent: 100, PanX: -2000}
		r := tr.VisibleSourceRect()
		if r.X0 < 1000 {
			t.Errorf("window starts at x=%g, expected entirely beyond x=1000", r.X0)
		}
		clamped := r.Intersect(Rect{X0: 0, Y0: 0, X1: 1000, Y1: 1000})
		if !clamped.Empty() {
			t.Errorf("clamped rect %+v should be empty", clamped)
		}
	})

	t.Run("zoom 200 halves the visible window", func(t *testing.T) {
		tr := Transform{ZoomPercent: 200}
		r := tr.VisibleSourceRect()
		if r.Width() != FrameWidth/2 || r.Height() != FrameHeight/2 {
			t.Errorf("visible window %gx%g, want %dx%d", r.Width(), r.Height(), FrameWidth/2, FrameHeight/2)
		}
	})
}

// TestAdjustments verifies relative zoom/pan updates and clamping on write.
func TestAdjustments(t *testing.T) {
	tr := Transform{ZoomPercent: 100}

	tr.AdjustZoom(150)
	if tr.ZoomPercent != MaxZoom {
		t.Errorf("AdjustZoom beyond max: got %d, want %d", tr.ZoomPercent, MaxZoom)
	}

	tr.AdjustZoom(-500)
	if tr.ZoomPercent != MinZoom {
		t.Errorf("AdjustZoom below min: got %d, want %d", tr.ZoomPercent, MinZoom)
	}

	tr.SetZoom(75)
	if tr.ZoomPercent != 75 {
		t.Errorf("SetZoom(75): got %d", tr.ZoomPercent)
	}

	tr.AdjustPan(-10.5, 20.25)
	tr.AdjustPan(-10.5, 20.25)
	if tr.PanX != -21 || tr.PanY != 40.5 {
		t.Errorf("AdjustPan accumulated to (%g,%g), want (-21,40.5)", tr.PanX, tr.PanY)
	}
}

// TestRectIntersect exercises overlap, containment, and disjoint cases.
func TestRectIntersect(t *testing.T) {
	base := Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}

	tests := []struct {
		name  string
		other Rect
		want  Rect
	}{
		{name: "full overlap", other: Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}, want: base},
		{name: "partial overlap", other: Rect{X0: 50, Y0: 50, X1: 150, Y1: 150}, want: Rect{X0: 50, Y0: 50, X1: 100, Y1: 100}},
		{name: "contained", other: Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}, want: Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}},
		{name: "disjoint", other: Rect{X0: 200, Y0: 200, X1: 300, Y1: 300}, want: Rect{}},
		{name: "touching edge", other: Rect{X0: 100, Y0: 0, X1: 200, Y1: 100}, want: Rect{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Intersect(tt.other)
			if got != tt.want {
				t.Errorf("Intersect = %+v, want %+v", got, tt.want)
			}
		})
	}
}
