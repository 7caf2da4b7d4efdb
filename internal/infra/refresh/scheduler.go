package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
)

const jobTimeout = 5 * time.Second

// Requester is the part of the dashboard controller the scheduler drives.
type Requester interface {
	RequestPrecipitation(ctx context.Context, date string) (dashboard.Ticket, error)
}

// Config selects which jobs are scheduled.
type Config struct {
	AutoFetch   bool
	DefaultDate string
	// Interval of zero disables the periodic refresh.
	Interval time.Duration
}

// Scheduler issues precipitation requests on behalf of the user: once at
// startup and optionally on a fixed interval for the stored date.
type Scheduler struct {
	scheduler *gocron.Scheduler
	requester Requester
	cfg       Config
	logger    *slog.Logger
}

// New creates a Scheduler. Nothing runs until Start.
func New(cfg Config, requester Requester, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		requester: requester,
		cfg:       cfg,
		logger:    logger.With("component", "refresh.scheduler"),
	}
}

// Start registers the configured jobs and starts the scheduler. Jobs stop
// issuing requests once ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.AutoFetch {
		date := s.cfg.DefaultDate
		if _, err := s.scheduler.Every(1).Hour().LimitRunsTo(1).Do(func() {
			s.request(ctx, "startup", date)
		}); err != nil {
			return err
		}
	}

	if s.cfg.Interval > 0 {
		if _, err := s.scheduler.Every(s.cfg.Interval).WaitForSchedule().Do(func() {
			s.request(ctx, "interval", "")
		}); err != nil {
			return err
		}
	}

	if s.scheduler.Len() == 0 {
		s.logger.Info("no refresh jobs configured")
		return nil
	}
	s.logger.Info("refresh scheduler starting", "auto_fetch", s.cfg.AutoFetch, "interval", s.cfg.Interval.String())
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

// request issues one fetch. An empty date reuses the date stored in the controller.
func (s *Scheduler) request(ctx context.Context, trigger, date string) {
	if ctx.Err() != nil {
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	ticket, err := s.requester.RequestPrecipitation(reqCtx, date)
	if err != nil {
		s.logger.Warn("scheduled fetch not issued", "trigger", trigger, "date", date, "error", err)
		return
	}
	s.logger.Info("scheduled fetch issued", "trigger", trigger, "date", date, "seq", ticket.Seq)
}
