package history

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

// Schema creates the change history table.
const Schema = `
CREATE TABLE IF NOT EXISTS stock_changes (
	seq BIGSERIAL,
	id UUID PRIMARY KEY,
	category TEXT NOT NULL,
	item TEXT NOT NULL,
	previous INTEGER NOT NULL,
	quantity INTEGER NOT NULL,
	notified BOOLEAN NOT NULL DEFAULT FALSE,
	detected_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stock_changes_detected_at ON stock_changes (detected_at DESC, seq DESC);
`

// PostgresStore implements watcher.HistoryStore using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate ensures the table exists.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// Append inserts all events in one batch. seq follows slice order, so events
// of one cycle read back newest first like the other stores.
func (s *PostgresStore) Append(ctx context.Context, events []watcher.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO stock_changes (id, category, item, previous, quantity, notified, detected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, string(e.Category), e.Item, e.Previous, e.Quantity, e.Notified, e.DetectedAt)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// Recent returns the newest events first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]watcher.ChangeEvent, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, category, item, previous, quantity, notified, detected_at
		FROM stock_changes
		ORDER BY detected_at DESC, seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]watcher.ChangeEvent, 0, limit)
	for rows.Next() {
		var (
			event    watcher.ChangeEvent
			category string
		)
		if err := rows.Scan(&event.ID, &category, &event.Item, &event.Previous, &event.Quantity, &event.Notified, &event.DetectedAt); err != nil {
			return nil, err
		}
		event.Category = stock.Category(category)
		out = append(out, event)
	}
	return out, rows.Err()
}

var _ watcher.HistoryStore = (*PostgresStore)(nil)
