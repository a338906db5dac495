// Package handlers implements the JSON API consumed by the gallery UI:
// upload, viewport adjustment, crop commits, accept/reject, previews, and
// export bundling.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"cropdesk/internal/editor"
	"cropdesk/internal/models"
	"cropdesk/internal/storage"
	"cropdesk/internal/store"
	"cropdesk/internal/viewport"
)

// API holds the handler dependencies. storage and history are optional
// collaborators; nil disables the endpoints that need them.
type API struct {
	editor       *editor.Editor
	previews     editor.Previews
	storage      *storage.Client
	history      *store.SavedCropStore
	exportPrefix string
}

// NewAPI creates the handler group.
func NewAPI(ed *editor.Editor, previews editor.Previews, storageClient *storage.Client, history *store.SavedCropStore, exportPrefix string) *API {
	return &API{
		editor:       ed,
		previews:     previews,
		storage:      storageClient,
		history:      history,
		exportPrefix: exportPrefix,
	}
}

// cropView is the JSON shape of a committed crop.
type cropView struct {
	Version     uint64             `json:"version"`
	ContentType string             `json:"content_type"`
	SizeBytes   int64              `json:"size_bytes"`
	PreviewURL  string             `json:"preview_url"`
	S3Key       string             `json:"s3_key,omitempty"`
	Transform   viewport.Transform `json:"transform"`
	CreatedAt   time.Time          `json:"created_at"`
}

// recordView is the JSON shape of an edit record.
type recordView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	ContentType string             `json:"content_type"`
	SizeBytes   int64              `json:"size_bytes"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	State       models.State       `json:"state"`
	Transform   viewport.Transform `json:"transform"`
	Crop        *cropView          `json:"crop,omitempty"`
	Exportable  bool               `json:"exportable"`
	CreatedAt   time.Time          `json:"created_at"`
}

func viewCrop(c *models.CropResult) *cropView {
	if c == nil {
		return nil
	}
	return &cropView{
		Version:     c.Version,
		ContentType: c.ContentType,
		SizeBytes:   c.SizeBytes,
		PreviewURL:  "/api/previews/" + c.PreviewHandle,
		S3Key:       c.S3Key,
		Transform:   c.Transform,
		CreatedAt:   c.CreatedAt,
	}
}

func viewRecord(r models.EditRecord) recordView {
	v := recordView{
		ID:          r.ID.String(),
		Name:        r.OriginalName,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
		State:       r.State,
		Transform:   r.Transform,
		Crop:        viewCrop(r.Crop),
		Exportable:  r.Exportable(),
		CreatedAt:   r.CreatedAt,
	}
	if r.Source != nil {
		v.Width = r.Source.Width
		v.Height = r.Source.Height
	}
	return v
}

// writeJSON serializes a payload with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
