package monitoring

import (
	"context"
	"strconv"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordEngineRun registers one engine execution with its outcome and
// latency. err may be nil.
func (s *Service) RecordEngineRun(ctx context.Context, engine string, duration time.Duration, err error) {
	if s.engineRuns == nil || s.engineLatency == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(core.KindOf(err))
	}
	attrs := metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("outcome", outcome),
	)
	s.engineRuns.Add(ctx, 1, attrs)
	s.engineLatency.Record(ctx, duration.Seconds(), attrs)
}

// GinMiddleware collects request count, latency, and in-flight gauge
// for every route.
func (s *Service) GinMiddleware(ctx context.Context) gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) { c.Next() }
	}
	requestsTotal, err1 := s.meter.Int64Counter(
		"aura_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	requestDuration, err2 := s.meter.Float64Histogram(
		"aura_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10),
	)
	inFlight, err3 := s.meter.Int64UpDownCounter(
		"aura_http_requests_in_flight",
		metric.WithDescription("Currently active HTTP requests"),
	)
	if err1 != nil || err2 != nil || err3 != nil {
		logger.FromContext(ctx).Error("Failed to create HTTP instruments, skipping HTTP metrics",
			"counter_err", err1, "histogram_err", err2, "gauge_err", err3)
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		inFlight.Add(c.Request.Context(), 1)
		defer inFlight.Add(c.Request.Context(), -1)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		requestsTotal.Add(c.Request.Context(), 1, attrs)
		requestDuration.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
	}
}
