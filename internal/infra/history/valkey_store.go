package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

// ValkeyStore persists change events in a capped Valkey list.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	limit  int
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, limit int) *ValkeyStore {
	if prefix == "" {
		prefix = "stockwatch"
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &ValkeyStore{client: client, prefix: prefix, limit: limit}
}

// Append pushes events to the head of the list in slice order, so the last
// event of a batch is read first, then trims the list to the limit.
func (s *ValkeyStore) Append(ctx context.Context, events []watcher.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	encoded := make([]string, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		encoded = append(encoded, string(payload))
	}
	cmds := valkey.Commands{
		s.client.B().Lpush().Key(s.listKey()).Element(encoded...).Build(),
		s.client.B().Ltrim().Key(s.listKey()).Start(0).Stop(int64(s.limit - 1)).Build(),
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *ValkeyStore) Recent(ctx context.Context, limit int) ([]watcher.ChangeEvent, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	resp := s.client.Do(ctx, s.client.B().Lrange().Key(s.listKey()).Start(0).Stop(int64(limit-1)).Build())
	values, err := resp.AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return []watcher.ChangeEvent{}, nil
		}
		return nil, err
	}
	out := make([]watcher.ChangeEvent, 0, len(values))
	for _, raw := range values {
		var event watcher.ChangeEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("decode change event: %w", err)
		}
		out = append(out, event)
	}
	return out, nil
}

func (s *ValkeyStore) listKey() string {
	return fmt.Sprintf("%s:changes", s.prefix)
}

var _ watcher.HistoryStore = (*ValkeyStore)(nil)
