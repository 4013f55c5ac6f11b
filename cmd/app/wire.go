//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/stockwatch/internal/bootstrap"
	"github.com/yanqian/stockwatch/internal/domain/watcher"
	"github.com/yanqian/stockwatch/internal/infra/config"
	"github.com/yanqian/stockwatch/internal/infra/upstream/joshlei"
	httpiface "github.com/yanqian/stockwatch/internal/interface/http"
	"github.com/yanqian/stockwatch/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideUpstreamClient,
		provideSource,
		provideWatcherConfig,
		provideRenderer,
		providePermission,
		provideNotifier,
		provideCue,
		provideHistoryStore,
		provideArchive,
		watcher.NewWatcher,
		wire.Bind(new(httpiface.Upstream), new(*joshlei.Client)),
		wire.Bind(new(httpiface.Monitor), new(*watcher.Watcher)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
