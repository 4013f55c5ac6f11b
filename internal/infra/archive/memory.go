package archive

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

// MemoryArchive keeps raw payloads in memory. Useful for tests and local dev.
type MemoryArchive struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryArchive constructs the archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{blobs: make(map[string][]byte)}
}

// Put stores a copy of raw under key.
func (a *MemoryArchive) Put(_ context.Context, key string, raw []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[key] = append([]byte(nil), raw...)
	return nil
}

// Get returns the stored payload.
func (a *MemoryArchive) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	blob, ok := a.blobs[key]
	if !ok {
		return nil, fmt.Errorf("snapshot %s not found", key)
	}
	return append([]byte(nil), blob...), nil
}

// Len reports the number of stored payloads.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.blobs)
}

var _ watcher.Archive = (*MemoryArchive)(nil)
