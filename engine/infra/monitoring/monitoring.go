// Package monitoring wires OpenTelemetry metrics with a Prometheus
// exporter: HTTP middleware, engine-run instruments, and the /metrics
// handler.
package monitoring

import (
	"context"
	"fmt"
	"net/http"

	"github.com/auralab/aura/pkg/logger"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "aura"

// Config controls the monitoring surface.
type Config struct {
	Enabled bool
	// Path is where the exporter handler is mounted, default /metrics.
	Path string
}

func DefaultConfig() *Config {
	return &Config{Enabled: true, Path: "/metrics"}
}

// Service encapsulates metric collection. A disabled or failed service
// degrades to no-op instruments and never breaks request handling.
type Service struct {
	meter       metric.Meter
	provider    *sdkmetric.MeterProvider
	registry    *prom.Registry
	config      *Config
	initialized bool

	engineRuns    metric.Int64Counter
	engineLatency metric.Float64Histogram
}

func newDisabledService(cfg *Config) *Service {
	return &Service{
		config: cfg,
		meter:  noop.NewMeterProvider().Meter(meterName),
	}
}

// NewService builds the Prometheus-backed metrics service.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	s := &Service{
		meter:       provider.Meter(meterName),
		provider:    provider,
		registry:    registry,
		config:      cfg,
		initialized: true,
	}
	if err := s.initInstruments(); err != nil {
		return nil, err
	}
	log.Info("Monitoring service initialized")
	return s, nil
}

// NewServiceWithFallback degrades to a no-op service instead of failing
// startup when the exporter cannot be built.
func NewServiceWithFallback(ctx context.Context, cfg *Config) *Service {
	s, err := NewService(ctx, cfg)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to initialize monitoring, using no-op implementation", "error", err)
		return newDisabledService(cfg)
	}
	return s
}

func (s *Service) initInstruments() error {
	var err error
	s.engineRuns, err = s.meter.Int64Counter(
		"aura_engine_runs_total",
		metric.WithDescription("Engine executions by engine name and outcome"),
	)
	if err != nil {
		return fmt.Errorf("create engine run counter: %w", err)
	}
	s.engineLatency, err = s.meter.Float64Histogram(
		"aura_engine_run_duration_seconds",
		metric.WithDescription("Engine execution latency"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return fmt.Errorf("create engine latency histogram: %w", err)
	}
	return nil
}

// Meter exposes the OpenTelemetry meter for custom instrumentation.
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// IsInitialized reports whether real instruments are live.
func (s *Service) IsInitialized() bool {
	return s.initialized
}

// ExporterHandler serves the Prometheus scrape endpoint.
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "monitoring not initialized")
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// SetAsGlobal installs the provider as the global meter provider.
func (s *Service) SetAsGlobal() {
	if s.provider != nil {
		otel.SetMeterProvider(s.provider)
	}
}

// Shutdown flushes and stops the meter provider.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}
