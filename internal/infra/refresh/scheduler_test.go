package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
)

func TestStartupFetchRunsOnce(t *testing.T) {
	requester := &stubRequester{}
	s := New(Config{AutoFetch: true, DefaultDate: "2023-01-01"}, requester, newTestLogger())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.Eventually(t, func() bool {
		return len(requester.dates()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"2023-01-01"}, requester.dates())
}

func TestStartWithoutJobs(t *testing.T) {
	requester := &stubRequester{}
	s := New(Config{}, requester, newTestLogger())

	require.NoError(t, s.Start(context.Background()))
	require.False(t, s.scheduler.IsRunning())
	s.Stop()
	require.Empty(t, requester.dates())
}

func TestIntervalJobIsRegistered(t *testing.T) {
	s := New(Config{Interval: 10 * time.Minute}, &stubRequester{}, newTestLogger())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.Equal(t, 1, s.scheduler.Len())
	require.True(t, s.scheduler.IsRunning())
}

func TestRequestUsesStoredDateAndSkipsAfterCancel(t *testing.T) {
	requester := &stubRequester{}
	s := New(Config{}, requester, newTestLogger())

	s.request(context.Background(), "interval", "")
	require.Equal(t, []string{""}, requester.dates())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.request(ctx, "interval", "")
	require.Len(t, requester.dates(), 1)
}

func TestRequestErrorIsNotFatal(t *testing.T) {
	requester := &stubRequester{err: errors.New("dashboard controller is not running")}
	s := New(Config{}, requester, newTestLogger())

	require.NotPanics(t, func() {
		s.request(context.Background(), "startup", "2023-01-01")
	})
	require.Equal(t, []string{"2023-01-01"}, requester.dates())
}

type stubRequester struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubRequester) RequestPrecipitation(ctx context.Context, date string) (dashboard.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, date)
	if s.err != nil {
		return dashboard.Ticket{}, s.err
	}
	return dashboard.Ticket{Lane: dashboard.LanePrecipitation, Seq: uint64(len(s.calls))}, nil
}

func (s *stubRequester) dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
