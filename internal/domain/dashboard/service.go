package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
	apperrors "github.com/yanqian/precipitation-dashboard/pkg/errors"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

const defaultDate precipitation.DateKey = "2023-01-01"

// Service owns the dashboard state and the rules for changing it.
type Service interface {
	// Run processes events until ctx is done. All state changes happen here.
	Run(ctx context.Context) error
	// State returns the latest published snapshot without waiting for the loop.
	State() State
	SetDate(ctx context.Context, date string) (State, error)
	// RequestPrecipitation fetches the week for date, or for the stored date
	// when date is empty. It returns once the lane shows loading.
	RequestPrecipitation(ctx context.Context, date string) (Ticket, error)
	RequestDataset(ctx context.Context) (Ticket, error)
	// Subscribe delivers the current snapshot and every later one. Slow
	// readers only see the most recent snapshot.
	Subscribe(ctx context.Context) (<-chan State, func(), error)
	// WaitSettled blocks until no fetch is in flight.
	WaitSettled(ctx context.Context) (State, error)
}

// Client is the upstream the controller fetches from.
type Client interface {
	FetchPrecipitation(ctx context.Context, date precipitation.DateKey) (*precipitation.Result, error)
	FetchDataset(ctx context.Context) (precipitation.Dataset, error)
}

var errAlreadyRunning = errors.New("dashboard controller already running")

type laneTracker struct {
	issued   uint64
	inflight int
}

type service struct {
	cfg     Config
	client  Client
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger

	events   chan func()
	stopped  chan struct{}
	running  atomic.Bool
	snapshot atomic.Pointer[State]

	// Owned by the Run goroutine.
	runCtx      context.Context
	state       State
	lanes       map[Lane]*laneTracker
	subscribers map[uint64]chan State
	nextSubID   uint64
	waiters     []chan State
}

// NewService wires up the dashboard controller. Call Run before issuing requests.
func NewService(cfg Config, client Client, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) Service {
	return newService(cfg, client, clock, m, logger)
}

func newService(cfg Config, client Client, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) *service {
	if cfg.DefaultDate == "" {
		cfg.DefaultDate = defaultDate
	}
	s := &service{
		cfg:     cfg,
		client:  client,
		clock:   clock,
		metrics: m,
		logger:  logger.With("component", "dashboard.service"),
		events:  make(chan func()),
		stopped: make(chan struct{}),
		lanes: map[Lane]*laneTracker{
			LanePrecipitation: {},
			LaneDataset:       {},
		},
		subscribers: make(map[uint64]chan State),
		state: State{
			Date: cfg.DefaultDate,
			Lanes: Lanes{
				Precipitation: LaneState{Status: StatusIdle},
				Dataset:       LaneState{Status: StatusIdle},
			},
		},
	}
	initial := s.state.Clone()
	s.snapshot.Store(&initial)
	return s
}

func (s *service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	s.runCtx = ctx
	defer s.shutdown()

	s.logger.Info("dashboard controller started", "default_date", s.state.Date, "sequence_guard", s.cfg.SequenceGuard)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dashboard controller stopping")
			return nil
		case cmd := <-s.events:
			cmd()
		}
	}
}

func (s *service) State() State {
	return s.snapshot.Load().Clone()
}

func (s *service) SetDate(ctx context.Context, date string) (State, error) {
	key, err := precipitation.ParseDateKey(date)
	if err != nil {
		return State{}, invalidDate(err)
	}
	var snap State
	err = s.call(ctx, func() {
		s.state.Date = key
		s.publish()
		snap = s.state.Clone()
	})
	return snap, err
}

func (s *service) RequestPrecipitation(ctx context.Context, date string) (Ticket, error) {
	var explicit precipitation.DateKey
	if strings.TrimSpace(date) != "" {
		key, err := precipitation.ParseDateKey(date)
		if err != nil {
			return Ticket{}, invalidDate(err)
		}
		explicit = key
	}

	var ticket Ticket
	err := s.call(ctx, func() {
		if explicit != "" {
			s.state.Date = explicit
		}
		key := s.state.Date
		ticket = s.begin(LanePrecipitation)
		s.logger.Info("precipitation fetch issued", "date", key, "seq", ticket.Seq)

		go func(seq uint64) {
			result, err := s.client.FetchPrecipitation(s.runCtx, key)
			s.post(func() {
				s.complete(LanePrecipitation, seq, err, func(st *State) {
					st.Precipitation = result
				})
			})
		}(ticket.Seq)
	})
	return ticket, err
}

func (s *service) RequestDataset(ctx context.Context) (Ticket, error) {
	var ticket Ticket
	err := s.call(ctx, func() {
		ticket = s.begin(LaneDataset)
		s.logger.Info("dataset fetch issued", "seq", ticket.Seq)

		go func(seq uint64) {
			dataset, err := s.client.FetchDataset(s.runCtx)
			s.post(func() {
				s.complete(LaneDataset, seq, err, func(st *State) {
					st.Dataset = dataset
				})
			})
		}(ticket.Seq)
	})
	return ticket, err
}

func (s *service) Subscribe(ctx context.Context) (<-chan State, func(), error) {
	ch := make(chan State, 1)
	var id uint64
	err := s.call(ctx, func() {
		s.nextSubID++
		id = s.nextSubID
		s.subscribers[id] = ch
		ch <- s.state.Clone()
		s.metrics.Subscribers.Inc()
	})
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.post(func() { s.unsubscribe(id) })
		})
	}
	return ch, cancel, nil
}

func (s *service) WaitSettled(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	err := s.call(ctx, func() {
		if s.settled() {
			reply <- s.state.Clone()
			return
		}
		s.waiters = append(s.waiters, reply)
	})
	if err != nil {
		return State{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.stopped:
		return State{}, errUnavailable()
	}
}

// begin moves a lane to loading. Prior data stays visible.
func (s *service) begin(lane Lane) Ticket {
	tr := s.lanes[lane]
	tr.issued++
	tr.inflight++
	s.metrics.FetchesInFlight.WithLabelValues(string(lane)).Inc()

	ls := s.state.lane(lane)
	ls.Status = StatusLoading
	ls.Error = ""
	ls.Seq = tr.issued
	s.publish()
	return Ticket{Lane: lane, Seq: tr.issued}
}

func (s *service) complete(lane Lane, seq uint64, err error, store func(*State)) {
	tr := s.lanes[lane]
	tr.inflight--
	s.metrics.FetchesInFlight.WithLabelValues(string(lane)).Dec()

	if s.cfg.SequenceGuard && seq != tr.issued {
		s.metrics.StaleCompletions.WithLabelValues(string(lane)).Inc()
		s.logger.Debug("stale completion discarded", "lane", lane, "seq", seq, "latest", tr.issued)
		s.releaseWaiters()
		return
	}

	ls := s.state.lane(lane)
	ls.Seq = seq
	ls.UpdatedAt = s.clock.Now()
	if err != nil {
		// Prior successful data for the lane stays in place.
		ls.Status = StatusFailed
		ls.Error = failurePrefix[lane] + err.Error()
		s.logger.Warn("fetch failed", "lane", lane, "seq", seq, "error", err)
	} else {
		store(&s.state)
		ls.Status = StatusSuccess
		ls.Error = ""
		s.logger.Info("fetch succeeded", "lane", lane, "seq", seq)
	}
	s.publish()
}

func (s *service) publish() {
	s.state.Version++
	s.state.derive()
	snap := s.state.Clone()
	s.snapshot.Store(&snap)
	s.metrics.StateVersions.Inc()

	for _, ch := range s.subscribers {
		deliverLatest(ch, snap.Clone())
	}
	s.releaseWaiters()
}

func (s *service) settled() bool {
	for _, tr := range s.lanes {
		if tr.inflight > 0 {
			return false
		}
	}
	return true
}

func (s *service) releaseWaiters() {
	if len(s.waiters) == 0 || !s.settled() {
		return
	}
	for _, reply := range s.waiters {
		reply <- s.state.Clone()
	}
	s.waiters = nil
}

func (s *service) unsubscribe(id uint64) {
	ch, ok := s.subscribers[id]
	if !ok {
		return
	}
	delete(s.subscribers, id)
	s.metrics.Subscribers.Dec()
	close(ch)
}

func (s *service) shutdown() {
	for id := range s.subscribers {
		s.unsubscribe(id)
	}
	close(s.stopped)
}

// call runs fn on the loop and waits for it to finish.
func (s *service) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		fn()
		close(done)
	}
	select {
	case s.events <- cmd:
	case <-s.stopped:
		return errUnavailable()
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// post hands fn to the loop without waiting for it to run.
func (s *service) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.stopped:
	}
}

// deliverLatest replaces any unread snapshot so the channel never blocks the loop.
func deliverLatest(ch chan State, snap State) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

func invalidDate(err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD", err)
}

func errUnavailable() error {
	return apperrors.Wrap(apperrors.CodeUnavailable, "dashboard controller is not running", nil)
}
