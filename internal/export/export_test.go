package export

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"cropdesk/internal/cache"
)

// TestBundle packs three stored blobs and verifies entry names, order, and
// content.
func TestBundle(t *testing.T) {
	ctx := context.Background()
	previews := cache.NewMemoryPreviews()

	payloads := map[string][]byte{
		"h1": []byte("png-one"),
		"h2": []byte("png-two"),
		"h3": []byte("jpg-three"),
	}
	previews.Put(ctx, "h1", "image/png", payloads["h1"])
	previews.Put(ctx, "h2", "image/png", payloads["h2"])
	previews.Put(ctx, "h3", "image/jpeg", payloads["h3"])

	items := []Item{
		{Name: "Holiday Photo.png", Handle: "h1"},
		{Name: "IMG_0042.png", Handle: "h2"},
		{Name: "", Handle: "h3"},
	}

	var buf bytes.Buffer
	n, err := Bundle(ctx, &buf, "batch", items, previews.Get)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if n != 3 {
		t.Errorf("Bundle wrote %d entries, want 3", n)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip open: %v", err)
	}

	wantNames := []string{
		"batch_001_holiday-photo.png",
		"batch_002_img_0042.png",
		"batch_003_image.jpg",
	}
	if len(zr.File) != len(wantNames) {
		t.Fatalf("archive has %d entries, want %d", len(zr.File), len(wantNames))
	}
	wantData := [][]byte{payloads["h1"], payloads["h2"], payloads["h3"]}
	for i, f := range zr.File {
		if f.Name != wantNames[i] {
			t.Errorf("entry %d = %q, want %q", i, f.Name, wantNames[i])
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %q: %v", f.Name, err)
		}
		var data bytes.Buffer
		if _, err := data.ReadFrom(rc); err != nil {
			t.Fatalf("read entry %q: %v", f.Name, err)
		}
		rc.Close()
		if !bytes.Equal(data.Bytes(), wantData[i]) {
			t.Errorf("entry %q content mismatch", f.Name)
		}
	}
}

// TestBundleMissingPreview: one unreadable blob fails the whole archive.
func TestBundleMissingPreview(t *testing.T) {
	ctx := context.Background()
	previews := cache.NewMemoryPreviews()
	previews.Put(ctx, "ok", "image/png", []byte("fine"))

	items := []Item{
		{Name: "a.png", Handle: "ok"},
		{Name: "b.png", Handle: "gone"},
	}

	var buf bytes.Buffer
	if _, err := Bundle(ctx, &buf, "batch", items, previews.Get); err == nil {
		t.Fatal("expected error for missing preview")
	}
}

// TestBundleEmpty produces a valid empty archive.
func TestBundleEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := Bundle(context.Background(), &buf, "batch", nil, nil)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d", n)
	}
	if _, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		t.Errorf("empty archive unreadable: %v", err)
	}
}
