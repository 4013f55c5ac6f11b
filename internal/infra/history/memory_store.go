package history

import (
	"context"
	"sync"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

const defaultLimit = 200

// MemoryStore keeps the most recent change events in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []watcher.ChangeEvent
	limit  int
}

// NewMemoryStore constructs a store capped at limit events.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &MemoryStore{limit: limit}
}

// Append implements watcher.HistoryStore.
func (s *MemoryStore) Append(_ context.Context, events []watcher.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	if overflow := len(s.events) - s.limit; overflow > 0 {
		s.events = append([]watcher.ChangeEvent(nil), s.events[overflow:]...)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]watcher.ChangeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]watcher.ChangeEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

var _ watcher.HistoryStore = (*MemoryStore)(nil)
