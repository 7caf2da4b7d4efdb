//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/precipitation-dashboard/internal/bootstrap"
	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
	"github.com/yanqian/precipitation-dashboard/internal/infra/cacheservice"
	"github.com/yanqian/precipitation-dashboard/internal/infra/config"
	httpiface "github.com/yanqian/precipitation-dashboard/internal/interface/http"
	"github.com/yanqian/precipitation-dashboard/pkg/logger"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.New,
		provideClock,
		provideCacheClient,
		provideDashboardConfig,
		provideRefreshScheduler,
		provideNotifyPublisher,
		provideNotifier,
		dashboard.NewService,
		wire.Bind(new(dashboard.Client), new(*cacheservice.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
