package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	stddraw "image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder

	"cropdesk/internal/cache"
	"cropdesk/internal/editor"
	"cropdesk/internal/models"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	maxUploadSize = 50 << 20

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000
)

// allowedImageTypes defines MIME types accepted for upload. Only raster
// formats the crop pipeline can decode are allowed.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload ingests a photograph: sniff the content type, decode, convert to
// RGBA, and hand it to the editor, which runs the framing estimate before
// the record is returned.
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, "File too large. Maximum size is 50 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file provided.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, "File too large. Maximum size is 50 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	// Detect content type by sniffing the first 512 bytes.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		writeError(w, "Failed to read file.", http.StatusInternalServerError)
		return
	}
	contentType := http.DetectContentType(sniffBuf[:n])
	if !allowedImageTypes[contentType] {
		writeError(w, fmt.Sprintf("File type %q is not allowed.", contentType), http.StatusBadRequest)
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, "Failed to process file.", http.StatusInternalServerError)
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Failed to read file.", http.StatusInternalServerError)
		return
	}

	src, err := decodeSource(fileBytes)
	if err != nil {
		slog.Warn("upload decode failed", "name", header.Filename, "error", err)
		writeError(w, "Could not decode image.", http.StatusBadRequest)
		return
	}

	rec := a.editor.Add(src, header.Filename, contentType, int64(len(fileBytes)))
	writeJSON(w, http.StatusCreated, viewRecord(rec))
}

// decodeSource decodes an uploaded image and converts it to RGBA. The
// dimensions are checked before the full decode so a tiny file cannot
// balloon into gigabytes of pixels.
func decodeSource(data []byte) (*models.SourceImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		stddraw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, stddraw.Src)
	}
	return models.NewSourceImage(rgba), nil
}

// List returns every record in the session, oldest first.
func (a *API) List(w http.ResponseWriter, r *http.Request) {
	records := a.editor.List()
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewRecord(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views})
}

// Get returns one record.
func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	rec, err := a.editor.Get(id)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecord(rec))
}

// Estimate re-runs the framing heuristic on a record, replacing whatever
// transform is current. Runs under the record lock like any other edit, so
// it and concurrent viewport updates land whole — last write wins.
func (a *API) Estimate(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	transform, err := a.editor.EstimateInitialFraming(id)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transform": transform})
}

// UpdateViewport applies zoom/pan/greyscale adjustments from a JSON body.
func (a *API) UpdateViewport(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var upd editor.ViewportUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}

	transform, err := a.editor.UpdateViewport(id, upd)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transform": transform})
}

// CommitCrop rasterizes the current viewport into a crop result. A commit
// superseded by a newer save on the same record returns 204: the caller's
// result was discarded in favor of the newer one, which is not a failure.
func (a *API) CommitCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	result, err := a.editor.CommitCrop(r.Context(), id)
	if err != nil {
		if errors.Is(err, editor.ErrSuperseded) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewCrop(&result))
}

// Accept marks a record for export, committing the current transform first
// if it was never saved.
func (a *API) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	rec, err := a.editor.Accept(r.Context(), id)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecord(rec))
}

// Reject excludes a record from export. It stays addressable and can be
// accepted again later.
func (a *API) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	rec, err := a.editor.Reject(id)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecord(rec))
}

// Delete removes a record, its source buffer, its stored preview, its
// history rows, and any archived crop objects the history referenced.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := a.editor.Remove(r.Context(), id); err != nil {
		writeEditorError(w, err)
		return
	}

	// History and storage cleanup is best-effort: the record is already
	// gone, a leftover row or object only wastes space.
	if a.history != nil {
		rows, err := a.history.DeleteByRecordID(r.Context(), id)
		if err != nil {
			slog.Warn("history cleanup failed", "id", id, "error", err)
		} else if a.storage != nil {
			for _, row := range rows {
				if row.S3Key == nil {
					continue
				}
				if err := a.storage.Delete(r.Context(), *row.S3Key); err != nil {
					slog.Warn("archived crop delete failed", "key", *row.S3Key, "error", err)
				}
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Archive serves the durably stored bytes of the latest committed crop.
// Unlike previews these never expire, so an old session's output stays
// downloadable as long as the record lives.
func (a *API) Archive(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	rec, err := a.editor.Get(id)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	if rec.Crop == nil || rec.Crop.S3Key == "" {
		writeError(w, "No archived crop for this record.", http.StatusNotFound)
		return
	}

	data, err := a.storage.Download(r.Context(), rec.Crop.S3Key)
	if err != nil {
		slog.Error("archived crop fetch failed", "key", rec.Crop.S3Key, "error", err)
		writeError(w, "Failed to load archived crop.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", rec.Crop.ContentType)
	w.Write(data)
}

// Preview serves the encoded bytes of a committed crop by content handle.
func (a *API) Preview(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	data, contentType, err := a.previews.Get(r.Context(), handle)
	if err != nil {
		if errors.Is(err, cache.ErrPreviewNotFound) {
			writeError(w, "Preview not found.", http.StatusNotFound)
			return
		}
		slog.Error("preview fetch failed", "handle", handle, "error", err)
		writeError(w, "Failed to load preview.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// savedCropView decorates a history row with the direct URL of its
// archived object, when one exists.
type savedCropView struct {
	models.SavedCrop
	S3URL string `json:"s3_url,omitempty"`
}

// History returns the persisted crop history for a record.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, "Crop history is not configured.", http.StatusServiceUnavailable)
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	crops, err := a.history.FindByRecordID(r.Context(), id)
	if err != nil {
		slog.Error("history lookup failed", "id", id, "error", err)
		writeError(w, "Failed to load history.", http.StatusInternalServerError)
		return
	}

	views := make([]savedCropView, 0, len(crops))
	for _, c := range crops {
		v := savedCropView{SavedCrop: c}
		if c.S3Key != nil && a.storage != nil {
			v.S3URL = a.storage.FileURL(*c.S3Key)
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"crops": views})
}

// recordID parses the {id} route parameter, writing a 400 on failure.
func recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Invalid record ID.", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeEditorError maps editor failures onto HTTP status codes.
func writeEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrUnknownRecord):
		writeError(w, "Record not found.", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidTransition):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("editor operation failed", "error", err)
		writeError(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
