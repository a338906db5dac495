package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a client on DB 15 or skips when Valkey is not
// reachable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, previewKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

// TestMemoryPreviews exercises the in-process store: put, get, miss, delete.
func TestMemoryPreviews(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryPreviews()

	if err := m.Put(ctx, "h1", "image/png", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, ct, err := m.Get(ctx, "h1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ct != "image/png" || len(data) != 3 || data[0] != 1 {
		t.Errorf("Get = %v %q", data, ct)
	}

	if _, _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrPreviewNotFound) {
		t.Errorf("miss: err = %v, want ErrPreviewNotFound", err)
	}

	m.Delete(ctx, "h1")
	if _, _, err := m.Get(ctx, "h1"); !errors.Is(err, ErrPreviewNotFound) {
		t.Errorf("after delete: err = %v, want ErrPreviewNotFound", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after delete", m.Len())
	}
}

// TestMemoryPreviewsCopies ensures the store is isolated from caller
// mutation of the original slice.
func TestMemoryPreviewsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryPreviews()

	blob := []byte{10, 20, 30}
	if err := m.Put(ctx, "h", "image/png", blob); err != nil {
		t.Fatalf("Put: %v", err)
	}
	blob[0] = 99

	data, _, err := m.Get(ctx, "h")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data[0] != 10 {
		t.Errorf("stored blob mutated through caller slice: %v", data)
	}
}

// TestPreviewCacheValkey is the integration test against a live Valkey,
// skipped when none is available.
func TestPreviewCacheValkey(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPreviewCache(client, time.Minute)
	ctx := context.Background()

	payload := []byte("not-really-a-png")
	if err := pc.Put(ctx, "itest", "image/png", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, ct, err := pc.Get(ctx, "itest")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ct != "image/png" || string(data) != string(payload) {
		t.Errorf("Get = %q %q", data, ct)
	}

	ttl, err := client.TTL(ctx, previewKeyPrefix+"itest").Result()
	if err != nil || ttl <= 0 {
		t.Errorf("expected a positive TTL, got %v (err %v)", ttl, err)
	}

	pc.Delete(ctx, "itest")
	if _, _, err := pc.Get(ctx, "itest"); !errors.Is(err, ErrPreviewNotFound) {
		t.Errorf("after delete: err = %v, want ErrPreviewNotFound", err)
	}
}
