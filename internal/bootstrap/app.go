package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
	"github.com/yanqian/precipitation-dashboard/internal/infra/config"
	"github.com/yanqian/precipitation-dashboard/internal/infra/notify"
	"github.com/yanqian/precipitation-dashboard/internal/infra/refresh"
)

const shutdownTimeout = 10 * time.Second

// App owns the lifecycle of the HTTP server and the background workers.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	dashboard dashboard.Service
	scheduler *refresh.Scheduler
	notifier  *notify.Notifier
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, dashboardSvc dashboard.Service, scheduler *refresh.Scheduler, notifier *notify.Notifier) *App {
	return &App{
		cfg:       cfg,
		logger:    logger.With("component", "bootstrap"),
		server:    server,
		dashboard: dashboardSvc,
		scheduler: scheduler,
		notifier:  notifier,
	}
}

// Run starts the controller loop, the workers and the HTTP server, and
// blocks until ctx is done or the server fails.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		stopWorkers()
		wg.Wait()
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.dashboard.Run(workerCtx); err != nil {
			a.logger.Error("dashboard controller stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := a.notifier.Run(workerCtx); err != nil {
			a.logger.Error("state notifier stopped", "error", err)
		}
	}()

	if err := a.scheduler.Start(workerCtx); err != nil {
		return fmt.Errorf("start refresh scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "upstream", a.cfg.Upstream.BaseURL)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
