// Copyright (c) 2026 CropDesk Authors <dev@cropdesk.app>
// All rights reserved. See LICENSE for details.

// Package store provides the PostgreSQL-backed crop history. Pixel data
// never lands here — the table records what was committed, with which
// transform, so a session's output is auditable after the process exits.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cropdesk/internal/models"
)

// SavedCropStore handles database operations for the crop history.
type SavedCropStore struct {
	db *sql.DB
}

// NewSavedCropStore creates a new SavedCropStore with the given database connection.
func NewSavedCropStore(db *sql.DB) *SavedCropStore {
	return &SavedCropStore{db: db}
}

const savedCropColumns = `id, record_id, filename, zoom_percent, pan_x, pan_y,
	greyscale, version, content_type, size_bytes, s3_key, created_at`

func scanSavedCrop(scanner interface{ Scan(...any) error }) (*models.SavedCrop, error) {
	var c models.SavedCrop
	err := scanner.Scan(
		&c.ID, &c.RecordID, &c.Filename, &c.ZoomPercent, &c.PanX, &c.PanY,
		&c.Greyscale, &c.Version, &c.ContentType, &c.SizeBytes, &c.S3Key, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Record inserts a history row for a committed crop. It implements the
// editor's History collaborator.
func (s *SavedCropStore) Record(ctx context.Context, c *models.SavedCrop) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO saved_crops (record_id, filename, zoom_percent, pan_x, pan_y,
			greyscale, version, content_type, size_bytes, s3_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+savedCropColumns,
		c.RecordID, c.Filename, c.ZoomPercent, c.PanX, c.PanY,
		c.Greyscale, c.Version, c.ContentType, c.SizeBytes, c.S3Key,
	).Scan(
		&c.ID, &c.RecordID, &c.Filename, &c.ZoomPercent, &c.PanX, &c.PanY,
		&c.Greyscale, &c.Version, &c.ContentType, &c.SizeBytes, &c.S3Key, &c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record saved crop: %w", err)
	}
	return nil
}

// FindByRecordID returns the history for one edit record, newest first.
func (s *SavedCropStore) FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]models.SavedCrop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+savedCropColumns+`
		FROM saved_crops
		WHERE record_id = $1
		ORDER BY created_at DESC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("find saved crops by record: %w", err)
	}
	defer rows.Close()

	var crops []models.SavedCrop
	for rows.Next() {
		c, err := scanSavedCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved crop: %w", err)
		}
		crops = append(crops, *c)
	}
	return crops, rows.Err()
}

// ListRecent returns the newest history rows across all records.
func (s *SavedCropStore) ListRecent(ctx context.Context, limit int) ([]models.SavedCrop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+savedCropColumns+`
		FROM saved_crops
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent saved crops: %w", err)
	}
	defer rows.Close()

	var crops []models.SavedCrop
	for rows.Next() {
		c, err := scanSavedCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved crop: %w", err)
		}
		crops = append(crops, *c)
	}
	return crops, rows.Err()
}

// DeleteByRecordID removes the history for an edit record. Returns the
// deleted rows so the caller can clean up S3 objects.
func (s *SavedCropStore) DeleteByRecordID(ctx context.Context, recordID uuid.UUID) ([]models.SavedCrop, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM saved_crops
		WHERE record_id = $1
		RETURNING `+savedCropColumns, recordID)
	if err != nil {
		return nil, fmt.Errorf("delete saved crops: %w", err)
	}
	defer rows.Close()

	var crops []models.SavedCrop
	for rows.Next() {
		c, err := scanSavedCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deleted saved crop: %w", err)
		}
		crops = append(crops, *c)
	}
	return crops, rows.Err()
}
