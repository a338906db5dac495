// Package export bundles accepted crops into a single ZIP archive for
// download. Encoded bytes are fetched from the preview store in parallel,
// then written sequentially — zip writers are not concurrency-safe.
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds parallel preview-store reads per bundle.
const fetchConcurrency = 4

// Item is one accepted crop to bundle.
type Item struct {
	// Name is the original upload filename; it seeds the archive entry name.
	Name string
	// Handle addresses the encoded bytes in the preview store.
	Handle string
}

// Fetch resolves a preview handle to its encoded bytes and content type.
type Fetch func(ctx context.Context, handle string) ([]byte, string, error)

var extByType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// entryName builds a collision-free archive entry: prefix, running number,
// and a sanitized stem of the original filename.
func entryName(prefix string, index int, item Item, contentType string) string {
	stem := strings.TrimSuffix(path.Base(item.Name), path.Ext(item.Name))
	stem = unsafeChars.ReplaceAllString(strings.ToLower(stem), "-")
	stem = strings.Trim(stem, "-")
	if stem == "" {
		stem = "image"
	}

	ext, ok := extByType[contentType]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("%s_%03d_%s%s", prefix, index+1, stem, ext)
}

// Bundle writes a ZIP of all items to w and returns the number of entries.
// Any missing or unreadable preview fails the whole bundle: a partial
// export archive would silently lose accepted work.
func Bundle(ctx context.Context, w io.Writer, prefix string, items []Item, fetch Fetch) (int, error) {
	type blob struct {
		data        []byte
		contentType string
	}
	blobs := make([]blob, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, item := range items {
		g.Go(func() error {
			data, contentType, err := fetch(gctx, item.Handle)
			if err != nil {
				return fmt.Errorf("export %q: %w", item.Name, err)
			}
			blobs[i] = blob{data: data, contentType: contentType}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	zw := zip.NewWriter(w)
	for i, item := range items {
		f, err := zw.Create(entryName(prefix, i, item, blobs[i].contentType))
		if err != nil {
			return 0, fmt.Errorf("export %q: create entry: %w", item.Name, err)
		}
		if _, err := f.Write(blobs[i].data); err != nil {
			return 0, fmt.Errorf("export %q: write entry: %w", item.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("export: close archive: %w", err)
	}
	return len(items), nil
}
