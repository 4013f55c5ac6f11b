package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	"github.com/yanqian/stockwatch/pkg/metrics"
	"github.com/yanqian/stockwatch/pkg/util"
)

const defaultInterval = 15 * time.Second

// ErrCycleInFlight is returned when a cycle starts while another is running.
var ErrCycleInFlight = errors.New("poll cycle already in flight")

// Watcher polls a Source, diffs successive snapshots and notifies on increases.
type Watcher struct {
	cfg        Config
	source     Source
	renderer   *stock.Renderer
	permission *Permission
	notifier   Notifier
	cue        Cue
	alerter    Alerter
	history    HistoryStore
	archive    Archive
	logger     *slog.Logger
	now        func() time.Time
	newID      func() uuid.UUID

	inFlight atomic.Bool
	counters metrics.CycleCounters
	wg       sync.WaitGroup

	mu          sync.RWMutex
	baseline    stock.Snapshot
	dashboard   *stock.Dashboard
	lastSuccess time.Time
	lastError   string
	lastErrorAt time.Time
}

// NewWatcher wires the polling renderer. The permission capability is
// obtained once by the caller and threaded through every cycle.
func NewWatcher(cfg Config, source Source, renderer *stock.Renderer, permission *Permission, notifier Notifier, cue Cue, history HistoryStore, archive Archive, logger *slog.Logger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	log := logger.With("component", "watcher")
	return &Watcher{
		cfg:        cfg,
		source:     source,
		renderer:   renderer,
		permission: permission,
		notifier:   notifier,
		cue:        cue,
		alerter:    logAlerter{logger: log},
		history:    history,
		archive:    archive,
		logger:     log,
		now:        util.NowUTC,
		newID:      uuid.New,
	}
}

// Permission exposes the notification capability.
func (w *Watcher) Permission() *Permission {
	return w.permission
}

// Run cycles once immediately and then on every interval until ctx is done.
// Ticks that land while a cycle is still running are skipped.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher starting", "interval", w.cfg.Interval.String(), "source", w.cfg.SourceName)
	w.spawn(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.spawn(ctx)
		}
	}
}

func (w *Watcher) spawn(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if _, err := w.RunCycle(ctx); errors.Is(err, ErrCycleInFlight) {
			w.logger.Debug("poll cycle skipped, previous cycle still running")
		}
	}()
}

// RunCycle performs fetch, diff, notify and render once.
func (w *Watcher) RunCycle(ctx context.Context) (CycleResult, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		w.counters.Skipped()
		return CycleResult{}, ErrCycleInFlight
	}
	defer w.inFlight.Store(false)

	payload, err := w.source.FetchAllData(ctx)
	if err != nil {
		w.counters.Failed()
		w.mu.Lock()
		w.lastError = err.Error()
		w.lastErrorAt = w.now()
		w.mu.Unlock()
		w.alerter.Alert(ctx, err)
		return CycleResult{}, fmt.Errorf("fetch all data: %w", err)
	}

	w.mu.RLock()
	prev := w.baseline
	w.mu.RUnlock()

	changes, next := stock.Diff(prev, payload.Data)
	now := w.now()
	result := CycleResult{Changes: changes}
	if prev.IsZero() && w.cfg.BaselineFirstCycle {
		result.Baseline = true
	} else {
		result.Notified = w.dispatch(ctx, changes, now)
	}

	dashboard := w.renderer.Render(payload.Data, now)
	w.store(ctx, payload.Raw, now)

	w.mu.Lock()
	w.baseline = next
	w.dashboard = &dashboard
	w.lastSuccess = now
	w.lastError = ""
	w.lastErrorAt = time.Time{}
	w.mu.Unlock()

	w.counters.Succeeded(len(changes))
	if len(changes) > 0 {
		w.logger.Info("stock increases detected", "changes", len(changes), "notified", result.Notified, "baseline", result.Baseline)
	}
	return result, nil
}

func (w *Watcher) dispatch(ctx context.Context, changes []stock.Change, now time.Time) int {
	if len(changes) == 0 {
		return 0
	}
	granted := w.permission != nil && w.permission.Granted()
	events := make([]ChangeEvent, 0, len(changes))
	notified := 0
	for _, change := range changes {
		sent := false
		if granted && w.notifier != nil {
			if err := w.notifier.Notify(ctx, newNotification(change, now)); err != nil {
				w.logger.Warn("notification failed", "category", change.Category, "item", change.Item, "error", err)
			} else {
				sent = true
				notified++
				w.playCue(ctx)
			}
		}
		events = append(events, ChangeEvent{
			ID:         w.newID(),
			Category:   change.Category,
			Item:       change.Item,
			Previous:   change.Previous,
			Quantity:   change.Quantity,
			Notified:   sent,
			DetectedAt: now,
		})
	}
	if w.history != nil {
		if err := w.history.Append(ctx, events); err != nil {
			w.logger.Warn("history append failed", "events", len(events), "error", err)
		}
	}
	return notified
}

func (w *Watcher) playCue(ctx context.Context) {
	if w.cue == nil {
		return
	}
	if err := w.cue.Play(ctx); err != nil {
		w.logger.Warn("audible cue failed", "error", err)
	}
}

func (w *Watcher) store(ctx context.Context, raw []byte, now time.Time) {
	if w.archive == nil || len(raw) == 0 {
		return
	}
	key := fmt.Sprintf("alldata/%s/%d.json", now.Format("2006-01-02"), now.UnixMilli())
	if err := w.archive.Put(ctx, key, raw); err != nil {
		w.logger.Warn("snapshot archive failed", "key", key, "error", err)
	}
}

// Status returns a copy of the current state.
func (w *Watcher) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	status := Status{
		LastSuccess: w.lastSuccess,
		LastError:   w.lastError,
		LastErrorAt: w.lastErrorAt,
		Source:      w.cfg.SourceName,
		Stats:       w.counters.Snapshot(),
	}
	if w.permission != nil {
		status.Permission = w.permission.State()
	}
	if w.dashboard != nil {
		dash := *w.dashboard
		status.Dashboard = &dash
	}
	return status
}

// RecentChanges reads the history store.
func (w *Watcher) RecentChanges(ctx context.Context, limit int) ([]ChangeEvent, error) {
	if w.history == nil {
		return []ChangeEvent{}, nil
	}
	return w.history.Recent(ctx, limit)
}

func newNotification(change stock.Change, now time.Time) Notification {
	return Notification{
		Title:    fmt.Sprintf("%s restocked", change.Category),
		Body:     fmt.Sprintf("%s: %d", change.Item, change.Quantity),
		Change:   change,
		Detected: now,
	}
}

type logAlerter struct {
	logger *slog.Logger
}

func (a logAlerter) Alert(_ context.Context, err error) {
	a.logger.Error("failed to fetch data from API", "error", err)
}
