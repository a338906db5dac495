// Package editor is the crop compositing engine. It owns the collection of
// edit records keyed by id, serializes all mutation of a record behind a
// per-record lock, and runs the commit pipeline: snapshot the transform,
// rasterize, optionally greyscale, encode, and attach the result — unless a
// newer save superseded it in the meantime.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cropdesk/internal/codec"
	"cropdesk/internal/framing"
	"cropdesk/internal/models"
	"cropdesk/internal/raster"
	"cropdesk/internal/viewport"
)

// ErrUnknownRecord is returned for operations on an id that is not in the
// session.
var ErrUnknownRecord = errors.New("unknown record")

// ErrSuperseded marks a commit whose result was discarded because a newer
// save on the same record started before it finished. It is not a failure
// the user sees: the newer result wins.
var ErrSuperseded = errors.New("commit superseded by a newer save")

// Previews stores encoded crop bytes under an addressable handle, serving
// preview display and export bundling.
type Previews interface {
	Put(ctx context.Context, handle, contentType string, data []byte) error
	Get(ctx context.Context, handle string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, handle string)
}

// History receives metadata for every committed crop. Implementations are
// best-effort collaborators; commit does not fail when history does.
type History interface {
	Record(ctx context.Context, crop *models.SavedCrop) error
}

// Archiver persists encoded crop bytes durably, outliving the preview
// store's TTL. Like History it is best-effort: a failed archive write is
// logged and the commit still succeeds, just without an S3 key.
type Archiver interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// record pairs the model with its lock and the monotonically increasing
// save version that orders overlapping commits.
type record struct {
	mu          sync.Mutex
	data        models.EditRecord
	saveVersion uint64
}

// Editor manages one editing session's records. Distinct records are fully
// independent and may be processed in parallel; within a record, the mutex
// enforces the single-writer discipline.
type Editor struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*record

	quality  raster.Quality
	enc      codec.Encoder
	previews Previews
	history  History
	archive  Archiver
}

// New creates an editor. previews is required; history and archive may be
// nil.
func New(enc codec.Encoder, quality raster.Quality, previews Previews, history History, archive Archiver) *Editor {
	return &Editor{
		records:  make(map[uuid.UUID]*record),
		quality:  quality,
		enc:      enc,
		previews: previews,
		history:  history,
		archive:  archive,
	}
}

// Add ingests a decoded source image as a new record and runs the framing
// estimator synchronously. The returned snapshot is already in the
// estimated state with the initial transform applied.
func (e *Editor) Add(src *models.SourceImage, originalName, contentType string, sizeBytes int64) models.EditRecord {
	rec := &record{
		data: models.EditRecord{
			ID:           uuid.New(),
			OriginalName: originalName,
			ContentType:  contentType,
			SizeBytes:    sizeBytes,
			Source:       src,
			State:        models.StateUploaded,
			CreatedAt:    time.Now(),
		},
	}

	// Estimation is pure and fast, so it completes before the record is
	// published; no other writer can race the initial transform.
	rec.data.State = models.StateEstimating
	rec.data.Transform = framing.Estimate(src.Width, src.Height)
	rec.data.State = models.StateEstimated

	e.mu.Lock()
	e.records[rec.data.ID] = rec
	e.mu.Unlock()

	slog.Info("record added",
		"id", rec.data.ID,
		"name", originalName,
		"size", fmt.Sprintf("%dx%d", src.Width, src.Height),
		"zoom", rec.data.Transform.ZoomPercent,
	)
	return rec.data.Snapshot()
}

// EstimateInitialFraming recomputes the heuristic framing for a record and
// stores it as the current transform, returning the result. Last write wins
// against concurrent edits; the record lock serializes them.
func (e *Editor) EstimateInitialFraming(id uuid.UUID) (viewport.Transform, error) {
	rec, err := e.lookup(id)
	if err != nil {
		return viewport.Transform{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.data.Transform = framing.Estimate(rec.data.Source.Width, rec.data.Source.Height)
	return rec.data.Transform, nil
}

// ViewportUpdate describes one interactive adjustment. Nil fields leave the
// corresponding parameter untouched.
type ViewportUpdate struct {
	Zoom      *int     `json:"zoom,omitempty"`       // absolute percentage, clamped
	ZoomDelta *int     `json:"zoom_delta,omitempty"` // relative change, clamped
	PanDX     *float64 `json:"pan_dx,omitempty"`
	PanDY     *float64 `json:"pan_dy,omitempty"`
	Greyscale *bool    `json:"greyscale,omitempty"`
}

// UpdateViewport applies an interactive adjustment and moves the record
// into the editing state. Zoom writes are clamped, never rejected; pan is
// unbounded by design. No mutation happens if the id is unknown or the
// record cannot enter editing.
func (e *Editor) UpdateViewport(id uuid.UUID, upd ViewportUpdate) (viewport.Transform, error) {
	rec, err := e.lookup(id)
	if err != nil {
		return viewport.Transform{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	next, err := rec.data.State.Transition(models.StateEditing)
	if err != nil {
		return viewport.Transform{}, fmt.Errorf("update viewport: %w", err)
	}

	t := &rec.data.Transform
	if upd.Zoom != nil {
		t.SetZoom(*upd.Zoom)
	}
	if upd.ZoomDelta != nil {
		t.AdjustZoom(*upd.ZoomDelta)
	}
	if upd.PanDX != nil || upd.PanDY != nil {
		var dx, dy float64
		if upd.PanDX != nil {
			dx = *upd.PanDX
		}
		if upd.PanDY != nil {
			dy = *upd.PanDY
		}
		t.AdjustPan(dx, dy)
	}
	if upd.Greyscale != nil {
		t.Greyscale = *upd.Greyscale
	}

	rec.data.State = next
	return rec.data.Transform, nil
}

// CommitCrop rasterizes the record's current viewport into a frame-sized
// result and attaches it. The transform is frozen under the record lock
// before the heavy work runs off-lock, so interactive panning elsewhere in
// the session is never blocked. If a newer save starts on the same record
// before this one finishes, the stale result is discarded and ErrSuperseded
// returned. Encoder or preview-store failure leaves the record untouched.
func (e *Editor) CommitCrop(ctx context.Context, id uuid.UUID) (models.CropResult, error) {
	rec, err := e.lookup(id)
	if err != nil {
		return models.CropResult{}, err
	}

	rec.mu.Lock()
	if rec.data.Source == nil || rec.data.Source.Image == nil {
		rec.mu.Unlock()
		return models.CropResult{}, fmt.Errorf("commit crop %s: source image unavailable", id)
	}
	if !rec.data.State.CanTransition(models.StateSaved) {
		state := rec.data.State
		rec.mu.Unlock()
		return models.CropResult{}, fmt.Errorf("commit crop %s in state %s: %w", id, state, models.ErrInvalidTransition)
	}
	snapshot := rec.data.Transform
	src := rec.data.Source
	rec.saveVersion++
	version := rec.saveVersion
	rec.mu.Unlock()

	// Pure, synchronous pipeline over in-memory buffers.
	out := raster.Compose(src.Image, snapshot, e.quality)
	if snapshot.Greyscale {
		raster.Greyscale(out)
	}
	encoded, err := e.enc.Encode(out)
	if err != nil {
		return models.CropResult{}, fmt.Errorf("commit crop %s: %w", id, err)
	}

	handle := uuid.NewString()
	if err := e.previews.Put(ctx, handle, e.enc.ContentType(), encoded); err != nil {
		return models.CropResult{}, fmt.Errorf("commit crop %s: store preview: %w", id, err)
	}

	// Archive the encoded bytes durably; previews expire, archived crops
	// do not. Keyed by version so history rows stay resolvable after a
	// re-commit.
	var s3Key string
	if e.archive != nil {
		key := fmt.Sprintf("crops/%s/%d%s", id, version, e.enc.Ext())
		if err := e.archive.Upload(ctx, key, e.enc.ContentType(), bytes.NewReader(encoded), int64(len(encoded))); err != nil {
			slog.Warn("crop archive failed", "id", id, "key", key, "error", err)
		} else {
			s3Key = key
		}
	}

	result := models.CropResult{
		Image:         out,
		Transform:     snapshot,
		Version:       version,
		ContentType:   e.enc.ContentType(),
		SizeBytes:     int64(len(encoded)),
		PreviewHandle: handle,
		S3Key:         s3Key,
		CreatedAt:     time.Now(),
	}

	rec.mu.Lock()
	if version != rec.saveVersion {
		rec.mu.Unlock()
		e.discardBlobs(ctx, handle, s3Key)
		slog.Debug("stale commit discarded", "id", id, "version", version)
		return models.CropResult{}, ErrSuperseded
	}
	next, err := rec.data.State.Transition(models.StateSaved)
	if err != nil {
		rec.mu.Unlock()
		e.discardBlobs(ctx, handle, s3Key)
		return models.CropResult{}, fmt.Errorf("commit crop %s: %w", id, err)
	}
	var stale string
	if rec.data.Crop != nil {
		stale = rec.data.Crop.PreviewHandle
	}
	rec.data.State = next
	rec.data.Crop = &result
	name := rec.data.OriginalName
	rec.mu.Unlock()

	// Only the preview of the replaced crop is released here. Its archived
	// object stays: the history row for that version still points at it.
	if stale != "" && stale != handle {
		e.previews.Delete(ctx, stale)
	}

	if e.history != nil {
		entry := &models.SavedCrop{
			RecordID:    id,
			Filename:    name,
			ZoomPercent: snapshot.ZoomPercent,
			PanX:        snapshot.PanX,
			PanY:        snapshot.PanY,
			Greyscale:   snapshot.Greyscale,
			Version:     int64(version),
			ContentType: result.ContentType,
			SizeBytes:   result.SizeBytes,
		}
		if s3Key != "" {
			entry.S3Key = &s3Key
		}
		if err := e.history.Record(ctx, entry); err != nil {
			slog.Warn("crop history write failed", "id", id, "error", err)
		}
	}

	slog.Info("crop committed", "id", id, "version", version, "bytes", result.SizeBytes)
	return result, nil
}

// Accept marks a record's crop as accepted for export. A record with no
// committed crop gets a synchronous save of its current transform first, so
// an accepted record always has export content.
func (e *Editor) Accept(ctx context.Context, id uuid.UUID) (models.EditRecord, error) {
	rec, err := e.lookup(id)
	if err != nil {
		return models.EditRecord{}, err
	}

	rec.mu.Lock()
	hasCrop := rec.data.Crop != nil
	rec.mu.Unlock()

	if !hasCrop {
		if _, err := e.CommitCrop(ctx, id); err != nil && !errors.Is(err, ErrSuperseded) {
			return models.EditRecord{}, fmt.Errorf("accept %s: implicit save: %w", id, err)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.data.Crop == nil {
		return models.EditRecord{}, fmt.Errorf("accept %s: no crop result after save", id)
	}
	next, err := rec.data.State.Transition(models.StateAccepted)
	if err != nil {
		return models.EditRecord{}, fmt.Errorf("accept %s: %w", id, err)
	}
	rec.data.State = next
	return rec.data.Snapshot(), nil
}

// Reject marks a record as excluded from export. The record and its source
// stay addressable and can be accepted again later.
func (e *Editor) Reject(id uuid.UUID) (models.EditRecord, error) {
	rec, err := e.lookup(id)
	if err != nil {
		return models.EditRecord{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	next, err := rec.data.State.Transition(models.StateRejected)
	if err != nil {
		return models.EditRecord{}, fmt.Errorf("reject %s: %w", id, err)
	}
	rec.data.State = next
	return rec.data.Snapshot(), nil
}

// Get returns a read-only snapshot of one record.
func (e *Editor) Get(id uuid.UUID) (models.EditRecord, error) {
	rec, err := e.lookup(id)
	if err != nil {
		return models.EditRecord{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.data.Snapshot(), nil
}

// Remove deletes a record, releasing its source buffer, crop result, and
// stored preview.
func (e *Editor) Remove(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	rec, ok := e.records[id]
	if ok {
		delete(e.records, id)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrUnknownRecord)
	}

	rec.mu.Lock()
	var handle, s3Key string
	if rec.data.Crop != nil {
		handle = rec.data.Crop.PreviewHandle
		s3Key = rec.data.Crop.S3Key
	}
	rec.data.Source = nil
	rec.data.Crop = nil
	rec.mu.Unlock()

	e.discardBlobs(ctx, handle, s3Key)
	slog.Info("record removed", "id", id)
	return nil
}

// discardBlobs releases the preview and archived object of a crop result
// that is being thrown away. Both deletes are best-effort.
func (e *Editor) discardBlobs(ctx context.Context, handle, s3Key string) {
	if handle != "" {
		e.previews.Delete(ctx, handle)
	}
	if s3Key != "" && e.archive != nil {
		if err := e.archive.Delete(ctx, s3Key); err != nil {
			slog.Warn("archived crop delete failed", "key", s3Key, "error", err)
		}
	}
}

// List returns snapshots of every record, oldest first, for gallery views.
func (e *Editor) List() []models.EditRecord {
	e.mu.RLock()
	recs := make([]*record, 0, len(e.records))
	for _, r := range e.records {
		recs = append(recs, r)
	}
	e.mu.RUnlock()

	out := make([]models.EditRecord, 0, len(recs))
	for _, r := range recs {
		r.mu.Lock()
		out = append(out, r.data.Snapshot())
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Exportable returns snapshots of records eligible for export: accepted and
// carrying a committed crop.
func (e *Editor) Exportable() []models.EditRecord {
	all := e.List()
	out := all[:0]
	for _, r := range all {
		if r.Exportable() {
			out = append(out, r)
		}
	}
	return out
}

func (e *Editor) lookup(id uuid.UUID) (*record, error) {
	e.mu.RLock()
	rec, ok := e.records[id]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, ErrUnknownRecord)
	}
	return rec, nil
}
