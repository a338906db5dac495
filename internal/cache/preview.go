// preview.go stores encoded crop bytes in Valkey, keyed by the content
// handle issued at commit time. Previews expire on their own; the editor
// also deletes handles eagerly when a crop is replaced or removed.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// previewKeyPrefix namespaces preview blobs in Valkey.
	previewKeyPrefix = "preview:"

	// DefaultPreviewTTL is how long an encoded crop stays addressable. A
	// session that leaves a crop untouched this long re-commits on demand.
	DefaultPreviewTTL = 24 * time.Hour
)

// ErrPreviewNotFound is returned when a handle has expired or never existed.
var ErrPreviewNotFound = errors.New("preview not found")

// PreviewCache stores encoded crop blobs in Valkey.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPreviewCache creates a preview store backed by the given Valkey client.
func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	if ttl == 0 {
		ttl = DefaultPreviewTTL
	}
	return &PreviewCache{client: client, ttl: ttl}
}

// Put stores a blob and its content type under the handle. Both fields are
// written in one hash so a handle can never resolve to half a preview.
func (pc *PreviewCache) Put(ctx context.Context, handle, contentType string, data []byte) error {
	key := previewKeyPrefix + handle
	pipe := pc.client.TxPipeline()
	pipe.HSet(ctx, key, "content_type", contentType, "data", data)
	pipe.Expire(ctx, key, pc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("preview put %s: %w", handle, err)
	}
	return nil
}

// Get resolves a handle to its blob and content type.
func (pc *PreviewCache) Get(ctx context.Context, handle string) ([]byte, string, error) {
	vals, err := pc.client.HGetAll(ctx, previewKeyPrefix+handle).Result()
	if err != nil {
		return nil, "", fmt.Errorf("preview get %s: %w", handle, err)
	}
	if len(vals) == 0 {
		return nil, "", fmt.Errorf("preview %s: %w", handle, ErrPreviewNotFound)
	}
	return []byte(vals["data"]), vals["content_type"], nil
}

// Delete removes a preview. Best-effort: a failed delete only delays expiry.
func (pc *PreviewCache) Delete(ctx context.Context, handle string) {
	if err := pc.client.Del(ctx, previewKeyPrefix+handle).Err(); err != nil {
		slog.Warn("preview delete failed", "handle", handle, "error", err)
	}
}
