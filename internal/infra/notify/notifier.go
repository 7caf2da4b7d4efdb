package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// Source is the part of the dashboard controller the notifier observes.
type Source interface {
	Subscribe(ctx context.Context) (<-chan dashboard.State, func(), error)
}

// Notifier forwards every state snapshot to a Publisher. Publish failures
// are logged and counted and never reach the controller.
type Notifier struct {
	source    Source
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewNotifier builds a Notifier.
func NewNotifier(source Source, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{
		source:    source,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With("component", "notify.notifier"),
	}
}

// Run forwards snapshots until ctx is done or the source closes.
func (n *Notifier) Run(ctx context.Context) error {
	if _, ok := n.publisher.(NopPublisher); ok {
		return nil
	}
	updates, cancel, err := n.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	defer n.publisher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			n.forward(ctx, state)
		}
	}
}

func (n *Notifier) forward(ctx context.Context, state dashboard.State) {
	payload, err := json.Marshal(state)
	if err != nil {
		n.metrics.NotifyFailures.Inc()
		n.logger.Error("marshal state failed", "version", state.Version, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.publisher.Publish(pubCtx, payload); err != nil {
		n.metrics.NotifyFailures.Inc()
		n.logger.Warn("publish state failed", "version", state.Version, "error", err)
		return
	}
	n.metrics.NotifyPublished.Inc()
	n.logger.Debug("state published", "version", state.Version)
}
