package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/precipitation-dashboard/internal/domain/dashboard"
	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
	apperrors "github.com/yanqian/precipitation-dashboard/pkg/errors"
)

// Handler wires the HTTP transport to the dashboard controller.
type Handler struct {
	dashboard dashboard.Service
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(dashboardSvc dashboard.Service, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboardSvc,
		logger:    logger.With("component", "http.handler"),
	}
}

type setDateRequest struct {
	Date string `json:"date" binding:"required,datekey"`
}

type fetchPrecipitationRequest struct {
	Date string `json:"date" binding:"omitempty,datekey"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetState returns the latest snapshot.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.State())
}

// SetDate stores the date the next precipitation fetch will use.
func (h *Handler) SetDate(c *gin.Context) {
	var req setDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	state, err := h.dashboard.SetDate(c.Request.Context(), req.Date)
	if err != nil {
		abortWithError(c, domainError(err))
		return
	}
	c.JSON(http.StatusOK, state)
}

// FetchPrecipitation triggers a precipitation fetch. The body is optional;
// without a date the stored one is used.
func (h *Handler) FetchPrecipitation(c *gin.Context) {
	var req fetchPrecipitationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
			return
		}
	}

	ticket, err := h.dashboard.RequestPrecipitation(c.Request.Context(), req.Date)
	if err != nil {
		abortWithError(c, domainError(err))
		return
	}
	c.JSON(http.StatusAccepted, ticket)
}

// FetchDataset triggers a dataset fetch.
func (h *Handler) FetchDataset(c *gin.Context) {
	ticket, err := h.dashboard.RequestDataset(c.Request.Context())
	if err != nil {
		abortWithError(c, domainError(err))
		return
	}
	c.JSON(http.StatusAccepted, ticket)
}

// ChartView returns the chart series for the displayed result.
func (h *Handler) ChartView(c *gin.Context) {
	state := h.dashboard.State()
	c.JSON(http.StatusOK, gin.H{"date": state.Date, "points": precipitation.ToChartSeries(state.Precipitation)})
}

// TableView returns classified table rows.
func (h *Handler) TableView(c *gin.Context) {
	state := h.dashboard.State()
	c.JSON(http.StatusOK, gin.H{"date": state.Date, "rows": precipitation.ToTableRows(state.Precipitation)})
}

// TimelineView returns alternating timeline entries.
func (h *Handler) TimelineView(c *gin.Context) {
	state := h.dashboard.State()
	c.JSON(http.StatusOK, gin.H{"date": state.Date, "entries": precipitation.ToTimelineEntries(state.Precipitation)})
}

// ListView returns the plain text list items.
func (h *Handler) ListView(c *gin.Context) {
	state := h.dashboard.State()
	c.JSON(http.StatusOK, gin.H{"date": state.Date, "items": precipitation.ToListItems(state.Precipitation)})
}

// DatasetView returns the dataset verbatim together with an indented rendering.
func (h *Handler) DatasetView(c *gin.Context) {
	state := h.dashboard.State()
	if len(state.Dataset) == 0 {
		abortWithError(c, domainError(apperrors.Wrap(apperrors.CodeNotFound, "no dataset has been loaded yet", nil)))
		return
	}
	pretty, err := precipitation.FormatDataset(state.Dataset)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "dataset_unrenderable", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataset": json.RawMessage(state.Dataset), "pretty": pretty})
}

// StreamState pushes every snapshot using Server-Sent Events.
func (h *Handler) StreamState(c *gin.Context) {
	ctx := c.Request.Context()
	updates, cancel, err := h.dashboard.Subscribe(ctx)
	if err != nil {
		abortWithError(c, domainError(err))
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(state)
			if err != nil {
				h.logger.Error("marshal state failed", "version", state.Version, "error", err)
				continue
			}
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(payload)
			c.Writer.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

func domainError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		return NewHTTPError(http.StatusNotFound, "dataset_unavailable", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusServiceUnavailable, "unavailable", errMessage(err), err)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
