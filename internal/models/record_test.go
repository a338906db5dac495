package models

import (
	"image"
	"testing"

	"cropdesk/internal/viewport"
)

// TestNewSourceImage derives natural dimensions from the decoded buffer.
func TestNewSourceImage(t *testing.T) {
	src := NewSourceImage(image.NewRGBA(image.Rect(0, 0, 640, 480)))
	if src.Width != 640 || src.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", src.Width, src.Height)
	}

	empty := NewSourceImage(nil)
	if empty.Width != 0 || empty.Height != 0 || empty.Image != nil {
		t.Errorf("nil buffer should yield zero-value source, got %+v", empty)
	}
}

// TestExportable: accepted state alone is not enough — a committed crop
// must be present too.
func TestExportable(t *testing.T) {
	crop := &CropResult{Version: 1}

	tests := []struct {
		name  string
		state State
		crop  *CropResult
		want  bool
	}{
		{name: "accepted with crop", state: StateAccepted, crop: crop, want: true},
		{name: "accepted without crop", state: StateAccepted, crop: nil, want: false},
		{name: "saved with crop", state: StateSaved, crop: crop, want: false},
		{name: "rejected with crop", state: StateRejected, crop: crop, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &EditRecord{State: tt.state, Crop: tt.crop}
			if got := r.Exportable(); got != tt.want {
				t.Errorf("Exportable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSnapshotIsolation: mutating the snapshot's crop must not touch the
// original record.
func TestSnapshotIsolation(t *testing.T) {
	r := &EditRecord{
		State:     StateSaved,
		Transform: viewport.Transform{ZoomPercent: 120, PanX: -3},
		Crop:      &CropResult{Version: 7, ContentType: "image/png"},
	}

	snap := r.Snapshot()
	snap.Crop.Version = 99
	snap.Transform.ZoomPercent = 10

	if r.Crop.Version != 7 {
		t.Errorf("snapshot mutation leaked into record crop: version %d", r.Crop.Version)
	}
	if r.Transform.ZoomPercent != 120 {
		t.Errorf("snapshot mutation leaked into record transform: zoom %d", r.Transform.ZoomPercent)
	}
}
