// Copyright (c) 2026 CropDesk Authors <dev@cropdesk.app>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedCrop is the persisted history row for one committed crop. The pixel
// data itself lives in the preview store (and optionally S3); PostgreSQL
// keeps the metadata so a session's output survives restarts.
type SavedCrop struct {
	ID          uuid.UUID `json:"id"`
	RecordID    uuid.UUID `json:"record_id"`
	Filename    string    `json:"filename"`
	ZoomPercent int       `json:"zoom_percent"`
	PanX        float64   `json:"pan_x"`
	PanY        float64   `json:"pan_y"`
	Greyscale   bool      `json:"greyscale"`
	Version     int64     `json:"version"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	S3Key       *string   `json:"s3_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
