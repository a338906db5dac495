// Package framing proposes an initial viewport for a freshly uploaded image.
// The estimate is a deterministic geometric heuristic driven only by the
// source dimensions: it guesses where a subject sits based on the aspect
// ratio, then picks zoom and pan so that region fills the output frame.
// It never inspects pixel content.
package framing

import (
	"math"

	"cropdesk/internal/viewport"
)

// Aspect ratio bands. Portraits and near-square shots get a high, centered
// subject box; landscapes assume an off-center subject; very tall images a
// larger box near the top.
const (
	tallBand = 0.6
	wideBand = 1.5
)

// Estimate computes the initial transform for a source of w×h pixels.
// Identical dimensions always yield an identical transform. Degenerate
// dimensions fall back to zoom 100 with no pan.
func Estimate(w, h int) viewport.Transform {
	if w <= 0 || h <= 0 {
		return viewport.Transform{ZoomPercent: 100}
	}

	fw := float64(w)
	fh := float64(h)
	ratio := fw / fh

	var subjX, subjY, subjW, subjH float64
	switch {
	case ratio >= wideBand:
		// Landscape: subject assumed left of center, vertically centered.
		subjW = math.Min(0.25*fw, 0.6*fh)
		subjH = 1.2 * subjW
		subjX = 0.3 * fw
		subjY = (fh - subjH) / 2
	case ratio < tallBand:
		// Very tall: bigger box, close to the top.
		subjW = math.Min(0.6*fw, 0.45*fh)
		subjH = 1.33 * subjW
		subjX = (fw - subjW) / 2
		subjY = 0.1 * fh
	default:
		// Near-square and portrait: centered, upper third.
		subjW = math.Min(0.4*fw, 0.3*fh)
		subjH = 1.2 * subjW
		subjX = (fw - subjW) / 2
		subjY = 0.15 * fh
	}

	// Keep the subject box inside the image: shrink first, then translate.
	if subjW > fw {
		subjW = fw
	}
	if subjH > fh {
		subjH = fh
	}
	subjX = clamp(subjX, 0, fw-subjW)
	subjY = clamp(subjY, 0, fh-subjH)

	// Fit the limiting dimension of the subject box to the frame. If the box
	// is relatively wider than the frame, height limits; otherwise width.
	frameAspect := float64(viewport.FrameWidth) / float64(viewport.FrameHeight)
	var zoom float64
	if subjW/subjH > frameAspect {
		zoom = float64(viewport.FrameHeight) / subjH * 100
	} else {
		zoom = float64(viewport.FrameWidth) / subjW * 100
	}

	t := viewport.Transform{ZoomPercent: viewport.ClampZoom(int(math.Round(zoom)))}

	// Pan so the subject center lands at the frame center under the zoom
	// that actually got stored (clamping may have changed it).
	s := t.Scale()
	cx := subjX + subjW/2
	cy := subjY + subjH/2
	t.PanX = float64(viewport.FrameWidth)/2 - cx*s
	t.PanY = float64(viewport.FrameHeight)/2 - cy*s
	return t
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
