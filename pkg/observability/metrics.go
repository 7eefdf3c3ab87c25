package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RoundMetrics records round module operations.
type RoundMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordRemoteCall(ctx context.Context, operation, outcome string)
	RecordReconcile(ctx context.Context, outcome string)
}

type prometheusRoundMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	remote    *prometheus.CounterVec
	reconcile *prometheus.CounterVec
}

// NewPrometheusRoundMetrics registers the round collectors on reg.
func NewPrometheusRoundMetrics(reg prometheus.Registerer) (RoundMetrics, error) {
	m := &prometheusRoundMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecard",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecard",
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecard",
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an error or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scorecard",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		remote: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecard",
			Name:      "remote_calls_total",
			Help:      "Remote gateway calls by outcome.",
		}, []string{"operation", "outcome"}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorecard",
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation passes by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.durations, m.remote, m.reconcile} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusRoundMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusRoundMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusRoundMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusRoundMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusRoundMetrics) RecordRemoteCall(_ context.Context, operation, outcome string) {
	m.remote.WithLabelValues(operation, outcome).Inc()
}

func (m *prometheusRoundMetrics) RecordReconcile(_ context.Context, outcome string) {
	m.reconcile.WithLabelValues(outcome).Inc()
}

type noopRoundMetrics struct{}

// NewNoop returns metrics that discard everything.
func NewNoop() RoundMetrics { return noopRoundMetrics{} }

func (noopRoundMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (noopRoundMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (noopRoundMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (noopRoundMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noopRoundMetrics) RecordRemoteCall(context.Context, string, string)                       {}
func (noopRoundMetrics) RecordReconcile(context.Context, string)                                {}
