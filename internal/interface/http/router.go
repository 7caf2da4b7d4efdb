package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/precipitation-dashboard/internal/infra/config"
	"github.com/yanqian/precipitation-dashboard/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, m *metrics.Metrics, clock clockwork.Clock) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger, m),
		corsMiddleware(cfg.HTTP.CORS.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1", rateLimitMiddleware(cfg.HTTP.RateLimit, clock, handler.logger))
	{
		api.GET("/state", handler.GetState)
		api.GET("/state/stream", handler.StreamState)
		api.PUT("/date", handler.SetDate)
		api.POST("/precipitation/fetch", handler.FetchPrecipitation)
		api.POST("/dataset/fetch", handler.FetchDataset)

		views := api.Group("/views")
		views.GET("/chart", handler.ChartView)
		views.GET("/table", handler.TableView)
		views.GET("/timeline", handler.TimelineView)
		views.GET("/list", handler.ListView)
		views.GET("/dataset", handler.DatasetView)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
