package watcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	"github.com/yanqian/stockwatch/pkg/metrics"
)

// Source provides AllData for one cycle.
type Source interface {
	FetchAllData(ctx context.Context) (stock.Payload, error)
}

// Notification is delivered for a detected stock increase.
type Notification struct {
	Title    string
	Body     string
	Change   stock.Change
	Detected time.Time
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Cue plays a short audible signal alongside a notification.
type Cue interface {
	Play(ctx context.Context) error
}

// Alerter reports a failed cycle to the user.
type Alerter interface {
	Alert(ctx context.Context, err error)
}

// ChangeEvent is a recorded stock increase.
type ChangeEvent struct {
	ID         uuid.UUID      `json:"id"`
	Category   stock.Category `json:"category"`
	Item       string         `json:"item"`
	Previous   int            `json:"previous"`
	Quantity   int            `json:"quantity"`
	Notified   bool           `json:"notified"`
	DetectedAt time.Time      `json:"detectedAt"`
}

// HistoryStore keeps recent change events, newest first on read.
type HistoryStore interface {
	Append(ctx context.Context, events []ChangeEvent) error
	Recent(ctx context.Context, limit int) ([]ChangeEvent, error)
}

// Archive keeps the raw upstream bytes of successful cycles.
type Archive interface {
	Put(ctx context.Context, key string, raw []byte) error
}

// Config drives the polling loop.
type Config struct {
	Interval time.Duration
	// BaselineFirstCycle records the first snapshot without notifying.
	// Off by default: every item of the first payload counts up from zero.
	BaselineFirstCycle bool
	SourceName         string
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	Changes  []stock.Change
	Notified int
	// Baseline is set when the cycle only recorded the snapshot.
	Baseline bool
}

// Status is the externally visible state of the watcher.
type Status struct {
	Dashboard   *stock.Dashboard   `json:"dashboard,omitempty"`
	LastSuccess time.Time          `json:"lastSuccess,omitempty"`
	LastError   string             `json:"lastError,omitempty"`
	LastErrorAt time.Time          `json:"lastErrorAt,omitempty"`
	Source      string             `json:"source"`
	Permission  PermissionState    `json:"permission"`
	Stats       metrics.CycleStats `json:"stats"`
}
