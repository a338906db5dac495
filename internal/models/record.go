// Copyright (c) 2026 CropDesk Authors <dev@cropdesk.app>
// All rights reserved. See LICENSE for details.

// Package models defines the edit-session data model: source images, edit
// records, committed crop results, and the lifecycle state machine.
package models

import (
	"image"
	"time"

	"github.com/google/uuid"

	"cropdesk/internal/viewport"
)

// SourceImage is an immutable decoded pixel buffer plus its natural
// dimensions. It is owned by the record that loaded it and never mutated;
// greyscale and cropping always operate on rasterized output copies.
type SourceImage struct {
	Image  *image.RGBA
	Width  int
	Height int
}

// NewSourceImage wraps a decoded buffer, deriving the natural dimensions.
func NewSourceImage(img *image.RGBA) *SourceImage {
	if img == nil {
		return &SourceImage{}
	}
	return &SourceImage{
		Image:  img,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
}

// CropResult is one committed rasterization: the exact frame-sized buffer,
// the transform frozen at commit time, and the save version that produced
// it. A record holds at most one result; each save replaces it wholesale.
type CropResult struct {
	Image         *image.RGBA
	Transform     viewport.Transform
	Version       uint64
	ContentType   string
	SizeBytes     int64
	PreviewHandle string
	// S3Key addresses the durably archived bytes; empty when no object
	// storage is configured.
	S3Key     string
	CreatedAt time.Time
}

// EditRecord is the per-image aggregate: source reference, current
// transform, optional committed crop, and lifecycle state. It is the unit
// of ownership — removing it releases the source buffer and any result.
type EditRecord struct {
	ID           uuid.UUID
	OriginalName string
	ContentType  string
	SizeBytes    int64
	Source       *SourceImage
	Transform    viewport.Transform
	Crop         *CropResult
	State        State
	CreatedAt    time.Time
}

// Exportable reports whether the record participates in export: it must be
// accepted and carry a committed crop.
func (r *EditRecord) Exportable() bool {
	return r.State == StateAccepted && r.Crop != nil
}

// Snapshot returns a shallow copy safe to hand to readers: scalar fields
// and the transform are copied, the crop result struct is copied by value,
// and the immutable pixel buffers are shared.
func (r *EditRecord) Snapshot() EditRecord {
	out := *r
	if r.Crop != nil {
		crop := *r.Crop
		out.Crop = &crop
	}
	return out
}
