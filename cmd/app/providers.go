package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
	"github.com/yanqian/precipitation-dashboard/internal/infra/cacheservice"
	"github.com/yanqian/precipitation-dashboard/internal/infra/config"
	"github.com/yanqian/precipitation-dashboard/internal/infra/notify"
	"github.com/yanqian/precipitation-dashboard/internal/infra/refresh"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func provideCacheClient(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *cacheservice.Client {
	return cacheservice.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, m, logger)
}

func provideDashboardConfig(cfg *config.Config) dashboard.Config {
	return dashboard.Config{
		DefaultDate:   precipitation.DateKey(cfg.Dashboard.DefaultDate),
		SequenceGuard: cfg.Dashboard.SequenceGuard,
	}
}

func provideRefreshScheduler(cfg *config.Config, svc dashboard.Service, logger *slog.Logger) *refresh.Scheduler {
	return refresh.New(refresh.Config{
		AutoFetch:   cfg.Dashboard.AutoFetch,
		DefaultDate: cfg.Dashboard.DefaultDate,
		Interval:    cfg.Dashboard.RefreshInterval,
	}, svc, logger)
}

func provideNotifier(svc dashboard.Service, publisher notify.Publisher, m *metrics.Metrics, logger *slog.Logger) *notify.Notifier {
	return notify.NewNotifier(svc, publisher, m, logger)
}

func provideNotifyPublisher(cfg *config.Config, logger *slog.Logger) notify.Publisher {
	if !cfg.Notify.Enabled {
		return notify.NopPublisher{}
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, state notifications disabled", "error", err)
		return notify.NopPublisher{}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, state notifications disabled", "error", err)
		return notify.NopPublisher{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, state notifications disabled", "error", err)
		client.Close()
		return notify.NopPublisher{}
	}
	logger.Info("valkey state notifications enabled", "addr", cfg.Notify.Addr, "channel", cfg.Notify.Channel)
	return notify.NewValkeyPublisher(client, cfg.Notify.Channel)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Notify.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Notify.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Notify.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
