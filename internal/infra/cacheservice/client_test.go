package cacheservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

func TestFetchPrecipitationSuccess(t *testing.T) {
	var gotQuery, gotAccept, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/precipitation", r.URL.Path)
		gotQuery = r.URL.Query().Get("date")
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":2,"results":[{"date":"2023-01-02","avg_184_d":12,"stagione":"winter"},{"date":"2023-01-09","avg_184_d":3.2,"stagione":"winter"}]}`))
	}))
	defer srv.Close()

	m := metrics.NewForTesting()
	client := newTestClient(srv.URL+"/", m)

	result, err := client.FetchPrecipitation(context.Background(), "2023-01-01")
	require.NoError(t, err)
	require.Equal(t, "2023-01-01", gotQuery)
	require.Equal(t, "application/json", gotAccept)
	require.Equal(t, "req-1", gotRequestID)
	require.Equal(t, 2, result.TotalCount)
	require.Equal(t, []precipitation.Record{
		{Date: "2023-01-02", Avg184D: 12, Stagione: "winter"},
		{Date: "2023-01-09", Avg184D: 3.2, Stagione: "winter"},
	}, result.Results)
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("precipitation", "success")))
}

func TestFetchPrecipitationWithoutTotalCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL, metrics.NewForTesting()).FetchPrecipitation(context.Background(), "2023-01-01")
	require.NoError(t, err)
	require.Empty(t, result.Results)
	require.Zero(t, result.TotalCount)
}

func TestFetchPrecipitationServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid date format. Use YYYY-MM-DD."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	m := metrics.NewForTesting()
	_, err := newTestClient(srv.URL, m).FetchPrecipitation(context.Background(), "2023-01-01")
	require.Error(t, err)

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	require.Equal(t, http.StatusBadRequest, serviceErr.Status)
	require.Contains(t, serviceErr.Body, "Invalid date format")
	require.EqualError(t, err, "Request failed with status code 400")
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("precipitation", "service_error")))
}

func TestFetchPrecipitationMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"total_count":1}`,
		`{"results":[{"date":"2023-01-02","avg_184_d":"heavy"}]}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestClient(srv.URL, metrics.NewForTesting()).FetchPrecipitation(context.Background(), "2023-01-01")
		srv.Close()

		var decodeErr *MalformedResponseError
		require.True(t, errors.As(err, &decodeErr), "body %q", body)
	}
}

func TestFetchDatasetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/dataset", r.URL.Path)
		_, _ = w.Write([]byte(`[{"station":"Milano","avg_184_d":4.1}]`))
	}))
	defer srv.Close()

	dataset, err := newTestClient(srv.URL, metrics.NewForTesting()).FetchDataset(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `[{"station":"Milano","avg_184_d":4.1}]`, string(dataset))
}

func TestFetchDatasetMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows":`))
	}))
	defer srv.Close()

	m := metrics.NewForTesting()
	_, err := newTestClient(srv.URL, m).FetchDataset(context.Background())

	var decodeErr *MalformedResponseError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("dataset", "malformed")))
}

func TestFetchDatasetNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	m := metrics.NewForTesting()
	_, err := newTestClient(base, m).FetchDataset(context.Background())
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	require.NotEmpty(t, netErr.Error())
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("dataset", "network_error")))
}

func TestFetchSingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, metrics.NewForTesting()).FetchDataset(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("  ", 0, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Equal(t, defaultBaseURL, client.baseURL)
	require.Zero(t, client.httpClient.Timeout)
}

func newTestClient(baseURL string, m *metrics.Metrics) *Client {
	client := NewClient(baseURL, 0, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.requestID = func() string { return "req-1" }
	return client
}
