package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cropdesk/internal/export"
	"cropdesk/internal/models"
)

// presignExpiry is how long a presigned URL for an uploaded bundle is valid.
const presignExpiry = 1 * time.Hour

// exportItems translates exportable records into bundle items.
func exportItems(records []models.EditRecord) []export.Item {
	items := make([]export.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, export.Item{
			Name:   rec.OriginalName,
			Handle: rec.Crop.PreviewHandle,
		})
	}
	return items
}

// Export streams a ZIP of every accepted crop.
func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	records := a.editor.Exportable()
	if len(records) == 0 {
		writeError(w, "No accepted crops to export.", http.StatusBadRequest)
		return
	}

	// Bundle into memory first: a fetch failure halfway through a streamed
	// response could not report an error status anymore.
	var buf bytes.Buffer
	n, err := export.Bundle(r.Context(), &buf, a.exportPrefix, exportItems(records), a.previews.Get)
	if err != nil {
		slog.Error("export bundle failed", "error", err)
		writeError(w, "Failed to build export archive.", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("cropdesk_export_%s.zip", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("export stream interrupted", "error", err)
		return
	}
	slog.Info("export downloaded", "crops", n, "bytes", buf.Len())
}

// ExportToStorage builds the bundle and uploads it to S3, responding with a
// presigned download URL. 503 when object storage is not configured.
func (a *API) ExportToStorage(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}

	records := a.editor.Exportable()
	if len(records) == 0 {
		writeError(w, "No accepted crops to export.", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	n, err := export.Bundle(r.Context(), &buf, a.exportPrefix, exportItems(records), a.previews.Get)
	if err != nil {
		slog.Error("export bundle failed", "error", err)
		writeError(w, "Failed to build export archive.", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	key := fmt.Sprintf("exports/%d/%02d/%s.zip", now.Year(), now.Month(), uuid.NewString())
	ctx := r.Context()
	if err := a.storage.Upload(ctx, key, "application/zip", bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		slog.Error("export upload failed", "key", key, "error", err)
		writeError(w, "Failed to upload export archive.", http.StatusInternalServerError)
		return
	}

	url, err := a.storage.PresignedURL(ctx, key, presignExpiry)
	if err != nil {
		slog.Error("export presign failed", "key", key, "error", err)
		writeError(w, "Failed to sign download URL.", http.StatusInternalServerError)
		return
	}

	slog.Info("export uploaded", "key", key, "crops", n, "bytes", buf.Len())
	writeJSON(w, http.StatusCreated, map[string]any{
		"key":        key,
		"url":        url,
		"crops":      n,
		"size_bytes": buf.Len(),
		"expires_in": int(presignExpiry.Seconds()),
	})
}
