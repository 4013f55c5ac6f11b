package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
)

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs the notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify.log")}
}

func (n *LogNotifier) Notify(_ context.Context, msg watcher.Notification) error {
	n.logger.Info("stock notification",
		"title", msg.Title,
		"body", msg.Body,
		"category", msg.Change.Category,
		"item", msg.Change.Item,
		"quantity", msg.Change.Quantity,
	)
	return nil
}

// MultiNotifier fans a notification out to every target and joins failures.
type MultiNotifier struct {
	targets []watcher.Notifier
}

// NewMultiNotifier skips nil targets.
func NewMultiNotifier(targets ...watcher.Notifier) *MultiNotifier {
	kept := make([]watcher.Notifier, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &MultiNotifier{targets: kept}
}

func (m *MultiNotifier) Notify(ctx context.Context, msg watcher.Notification) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ watcher.Notifier = (*LogNotifier)(nil)
	_ watcher.Notifier = (*MultiNotifier)(nil)
)
