package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	"github.com/yanqian/stockwatch/internal/domain/watcher"
	"github.com/yanqian/stockwatch/internal/infra/archive"
	"github.com/yanqian/stockwatch/internal/infra/config"
	"github.com/yanqian/stockwatch/internal/infra/history"
	"github.com/yanqian/stockwatch/internal/infra/notify"
	"github.com/yanqian/stockwatch/internal/infra/upstream/joshlei"
)

func provideUpstreamClient(cfg *config.Config) *joshlei.Client {
	return joshlei.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout)
}

// provideSource picks what the watcher polls: the upstream API directly or
// the local proxy route, mirroring the browser path.
func provideSource(cfg *config.Config, upstream *joshlei.Client) watcher.Source {
	if cfg.Watcher.Source == config.SourceProxy {
		return joshlei.NewClient(cfg.Watcher.ProxyURL, cfg.Upstream.Timeout)
	}
	return upstream
}

func provideWatcherConfig(cfg *config.Config) watcher.Config {
	return watcher.Config{
		Interval:           cfg.Watcher.Interval,
		BaselineFirstCycle: cfg.Watcher.BaselineFirstCycle,
		SourceName:         cfg.Watcher.Source,
	}
}

func provideRenderer(cfg *config.Config) *stock.Renderer {
	return stock.NewRenderer(cfg.Upstream.ImageBaseURL)
}

func providePermission(cfg *config.Config) (*watcher.Permission, error) {
	state, err := watcher.ParsePermissionState(cfg.Notifications.Permission)
	if err != nil {
		return nil, err
	}
	return watcher.NewPermission(state), nil
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) watcher.Notifier {
	targets := []watcher.Notifier{notify.NewLogNotifier(logger)}
	if url := strings.TrimSpace(cfg.Notifications.Webhook.URL); url != "" {
		logger.Info("webhook notifier enabled")
		targets = append(targets, notify.NewWebhookNotifier(url, cfg.Notifications.Webhook.Timeout))
	}
	return notify.NewMultiNotifier(targets...)
}

func provideCue(cfg *config.Config) watcher.Cue {
	if cfg.Notifications.Cue {
		return notify.NewBellCue(os.Stderr)
	}
	return notify.NopCue{}
}

func provideHistoryStore(cfg *config.Config, logger *slog.Logger) watcher.HistoryStore {
	fallback := history.NewMemoryStore(cfg.History.Limit)
	switch cfg.History.Backend {
	case config.BackendValkey:
		return provideValkeyHistory(cfg, logger, fallback)
	case config.BackendPostgres:
		return providePostgresHistory(cfg, logger, fallback)
	default:
		return fallback
	}
}

func provideValkeyHistory(cfg *config.Config, logger *slog.Logger, fallback watcher.HistoryStore) watcher.HistoryStore {
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory history", "error", err)
		return fallback
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory history", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory history", "error", err)
		client.Close()
		return fallback
	}
	logger.Info("valkey history enabled", "addr", cfg.History.Valkey.Addr)
	return history.NewValkeyStore(client, cfg.History.Valkey.Prefix, cfg.History.Limit)
}

func providePostgresHistory(cfg *config.Config, logger *slog.Logger, fallback watcher.HistoryStore) watcher.HistoryStore {
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory history")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory history", "error", err)
		return fallback
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory history", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory history", "error", err)
		pool.Close()
		return fallback
	}
	store := history.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("postgres migration failed, using memory history", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres history enabled")
	return store
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.History.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.History.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.History.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

// provideArchive returns nil when archiving is off so the watcher skips it.
func provideArchive(cfg *config.Config, logger *slog.Logger) (watcher.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	a := cfg.Archive
	store, err := archive.NewS3Archive(a.Endpoint, a.AccessKey, a.SecretKey, a.Bucket, a.Region, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("snapshot archive enabled", "bucket", a.Bucket)
	return store, nil
}
