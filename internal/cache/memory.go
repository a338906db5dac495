// memory.go is the in-process preview store used when Valkey is not
// configured, and by tests. Same contract as PreviewCache minus expiry.
package cache

import (
	"context"
	"fmt"
	"sync"
)

type memoryEntry struct {
	contentType string
	data        []byte
}

// MemoryPreviews holds preview blobs in a mutex-guarded map.
type MemoryPreviews struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryPreviews creates an empty in-memory preview store.
func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{entries: make(map[string]memoryEntry)}
}

// Put stores a copy of the blob under the handle.
func (m *MemoryPreviews) Put(_ context.Context, handle, contentType string, data []byte) error {
	blob := make([]byte, len(data))
	copy(blob, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[handle] = memoryEntry{contentType: contentType, data: blob}
	return nil
}

// Get resolves a handle to its blob and content type.
func (m *MemoryPreviews) Get(_ context.Context, handle string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[handle]
	if !ok {
		return nil, "", fmt.Errorf("preview %s: %w", handle, ErrPreviewNotFound)
	}
	return entry.data, entry.contentType, nil
}

// Delete removes a preview.
func (m *MemoryPreviews) Delete(_ context.Context, handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, handle)
}

// Len reports the number of stored previews. Used by tests.
func (m *MemoryPreviews) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
