package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/stockwatch/internal/domain/watcher"
	"github.com/yanqian/stockwatch/internal/infra/config"
)

// App encapsulates the HTTP server and watcher lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	watcher *watcher.Watcher
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, w *watcher.Watcher) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, watcher: w}
}

// Run starts the HTTP server and, when enabled, the polling watcher. It
// blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	watchCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()
	watchDone := make(chan struct{})
	if a.cfg.Watcher.Enabled {
		go func() {
			defer close(watchDone)
			_ = a.watcher.Run(watchCtx)
		}()
	} else {
		a.logger.Info("watcher disabled")
		close(watchDone)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		stopWatcher()
		err := a.server.Shutdown(shutdownCtx)
		<-watchDone
		return err
	case err := <-errCh:
		stopWatcher()
		<-watchDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
