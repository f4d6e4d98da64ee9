// Package observability provides a Prometheus-backed implementation of
// the engine's lifecycle hooks.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/espalier/pkg/domain"
)

// Metrics collects engine activity into Prometheus metrics.
type Metrics struct {
	stateEntries     *prometheus.CounterVec
	executorCalls    *prometheus.CounterVec
	executorErrors   *prometheus.CounterVec
	executorDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the metric set with the given
// registerer (pass prometheus.DefaultRegisterer for the global one).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stateEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_state_entries_total",
				Help: "Total number of workflow state entries",
			},
			[]string{"state_type"},
		),
		executorCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_executor_calls_total",
				Help: "Total number of executor invocations",
			},
			[]string{"executor"},
		),
		executorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_executor_errors_total",
				Help: "Total number of failed executor invocations",
			},
			[]string{"executor"},
		),
		executorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "espalier_executor_duration_seconds",
				Help: "Duration of executor invocations",
			},
			[]string{"executor"},
		),
	}
	reg.MustRegister(m.stateEntries, m.executorCalls, m.executorErrors, m.executorDuration)
	return m
}

// Hooks returns lifecycle hooks that feed these metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.stateEntries.WithLabelValues(e.StateType).Inc()
		},
		OnExecutorCall: func(_ context.Context, e *domain.ExecutorEvent) {
			m.executorCalls.WithLabelValues(e.Executor).Inc()
		},
		OnExecutorReturn: func(_ context.Context, e *domain.ExecutorEvent) {
			if e.IsError {
				m.executorErrors.WithLabelValues(e.Executor).Inc()
			}
			m.executorDuration.WithLabelValues(e.Executor).Observe(e.Duration.Seconds())
		},
	}
}
