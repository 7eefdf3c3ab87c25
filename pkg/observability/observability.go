package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config selects logger and metrics behaviour.
type Config struct {
	LogLevel    string
	LogFormat   string
	Environment string
	ServiceName string
}

// Observability bundles the process-wide logger, tracer and metrics.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  RoundMetrics
	Registry *prometheus.Registry
}

// New wires logging, tracing and a private prometheus registry.
// Metrics collection is disabled (noop) in the test environment.
func New(cfg Config) (*Observability, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "scorecard"
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, nil).With(
		slog.String("service", name),
		slog.String("environment", cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	var metrics RoundMetrics = NewNoop()
	if cfg.Environment != "test" {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := NewPrometheusRoundMetrics(registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register round metrics: %w", err)
		}
		metrics = m
	}

	return &Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(name),
		Metrics:  metrics,
		Registry: registry,
	}, nil
}

// MetricsHandler exposes the registry for scraping.
func (o *Observability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{})
}
