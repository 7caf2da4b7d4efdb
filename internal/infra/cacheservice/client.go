package cacheservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

const (
	defaultBaseURL = "http://localhost:8000"

	categoryPrecipitation = "precipitation"
	categoryDataset       = "dataset"
)

// Client talks to the precipitation cache service. Every call is a single
// attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
	requestID  func() string
}

// NewClient builds a cache service client. A zero timeout leaves only the
// transport defaults in place.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := &http.Client{}
	if timeout > 0 {
		httpClient.Timeout = timeout
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: httpClient,
		metrics:    m,
		logger:     logger.With("component", "cacheservice.client"),
		requestID:  uuid.NewString,
	}
}

// FetchPrecipitation retrieves the weekly records for the week containing date.
func (c *Client) FetchPrecipitation(ctx context.Context, date precipitation.DateKey) (*precipitation.Result, error) {
	endpoint := fmt.Sprintf("%s/precipitation?date=%s", c.baseURL, url.QueryEscape(date.String()))

	var result *precipitation.Result
	err := c.observe(categoryPrecipitation, func() error {
		body, err := c.get(ctx, categoryPrecipitation, endpoint)
		if err != nil {
			return err
		}
		result, err = decodePrecipitation(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchDataset retrieves the full dataset document without interpreting it.
func (c *Client) FetchDataset(ctx context.Context) (precipitation.Dataset, error) {
	var dataset precipitation.Dataset
	err := c.observe(categoryDataset, func() error {
		body, err := c.get(ctx, categoryDataset, c.baseURL+"/dataset")
		if err != nil {
			return err
		}
		if !json.Valid(body) {
			return &MalformedResponseError{Err: errors.New("dataset body is not valid JSON")}
		}
		dataset = precipitation.Dataset(body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

func (c *Client) observe(category string, call func() error) error {
	start := time.Now()
	err := call()
	if c.metrics != nil {
		c.metrics.FetchDuration.WithLabelValues(category).Observe(time.Since(start).Seconds())
		c.metrics.FetchRequests.WithLabelValues(category, outcomeOf(err)).Inc()
	}
	return err
}

func (c *Client) get(ctx context.Context, category, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("build %s request: %w", category, err)}
	}
	requestID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("cache service unreachable", "category", category, "request_id", requestID, "error", err)
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("cache service responded", "category", category, "request_id", requestID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &ServiceError{Status: resp.StatusCode, Body: string(payload)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read %s response: %w", category, err)}
	}
	return body, nil
}

type precipitationBody struct {
	TotalCount int                     `json:"total_count"`
	Results    *[]precipitation.Record `json:"results"`
}

func decodePrecipitation(body []byte) (*precipitation.Result, error) {
	var raw precipitationBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedResponseError{Err: fmt.Errorf("decode precipitation response: %w", err)}
	}
	if raw.Results == nil {
		return nil, &MalformedResponseError{Err: errors.New("precipitation response has no results field")}
	}
	return &precipitation.Result{TotalCount: raw.TotalCount, Results: *raw.Results}, nil
}
