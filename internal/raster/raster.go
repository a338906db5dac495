// Copyright (c) 2026 CropDesk Authors <dev@cropdesk.app>
// All rights reserved. See LICENSE for details.

// Package raster turns a source image plus a viewport transform into the
// fixed-size output buffer. It is a pure buffer-to-buffer compositor with no
// rendering-surface dependency, so commits run headless and deterministically.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"cropdesk/internal/viewport"
)

// Quality selects the resampling kernel used when scaling source pixels
// into the output frame. All kernels are deterministic for identical inputs.
type Quality int

const (
	// Nearest is nearest-neighbor sampling: fastest, blocky under zoom.
	Nearest Quality = iota
	// Bilinear is an approximate bilinear kernel, the default trade-off.
	Bilinear
	// CatmullRom is a higher-quality bicubic kernel for final exports.
	CatmullRom
)

// ParseQuality maps a configuration string to a Quality. Empty input selects
// Bilinear.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "nearest":
		return Nearest, nil
	case "", "bilinear":
		return Bilinear, nil
	case "catmullrom":
		return CatmullRom, nil
	}
	return 0, fmt.Errorf("raster: unknown resampling quality %q", s)
}

func (q Quality) scaler() draw.Scaler {
	switch q {
	case Nearest:
		return draw.NearestNeighbor
	case CatmullRom:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

// String returns the configuration name of the quality.
func (q Quality) String() string {
	switch q {
	case Nearest:
		return "nearest"
	case CatmullRom:
		return "catmullrom"
	default:
		return "bilinear"
	}
}

// background is the opaque fill behind any part of the frame the viewport
// does not cover.
var background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Compose rasterizes the viewport over src into a new FrameWidth×FrameHeight
// buffer. Output pixels the source does not reach keep the white background;
// a viewport entirely off the image yields a pure background buffer, which
// is valid output, not an error.
func Compose(src image.Image, t viewport.Transform, q Quality) *image.RGBA {
	t = t.Normalized()

	dst := image.NewRGBA(image.Rect(0, 0, viewport.FrameWidth, viewport.FrameHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if src == nil {
		return dst
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return dst
	}

	// Visible window in source space, clamped to the image. The window is
	// computed in the image's own coordinate space so sources with non-zero
	// bounds still land correctly.
	visible := t.VisibleSourceRect()
	clamped := visible.Intersect(viewport.Rect{
		X0: 0, Y0: 0, X1: float64(b.Dx()), Y1: float64(b.Dy()),
	})
	if clamped.Empty() {
		return dst
	}

	// Forward-map the clamped window back to frame space so content shifted
	// by the clamp lands at its true position instead of being stretched to
	// fill the frame.
	dx0, dy0 := t.SourceToFrame(clamped.X0, clamped.Y0)
	dx1, dy1 := t.SourceToFrame(clamped.X1, clamped.Y1)
	dstRect := image.Rect(
		int(math.Round(dx0)), int(math.Round(dy0)),
		int(math.Round(dx1)), int(math.Round(dy1)),
	).Intersect(dst.Bounds())

	srcRect := image.Rect(
		b.Min.X+int(math.Floor(clamped.X0)), b.Min.Y+int(math.Floor(clamped.Y0)),
		b.Min.X+int(math.Ceil(clamped.X1)), b.Min.Y+int(math.Ceil(clamped.Y1)),
	).Intersect(b)

	if dstRect.Empty() || srcRect.Empty() {
		return dst
	}

	// draw.Over composites translucent sources onto the opaque background,
	// so the result is always fully opaque.
	q.scaler().Scale(dst, dstRect, src, srcRect, draw.Over, nil)
	return dst
}

// Greyscale converts the buffer to luma-weighted greyscale in place:
// grey = 0.299R + 0.587G + 0.114B per pixel, alpha untouched. Applying it to
// an already-grey buffer is a no-op.
func Greyscale(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			grey := uint8((299*uint32(p[0]) + 587*uint32(p[1]) + 114*uint32(p[2]) + 500) / 1000)
			p[0], p[1], p[2] = grey, grey, grey
		}
	}
}
