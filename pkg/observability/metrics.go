package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/lineup/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lineup"

// Metrics holds the Prometheus collectors of a session.
type Metrics struct {
	registry *prometheus.Registry

	InputsAccepted   prometheus.Counter
	InputsSuppressed *prometheus.CounterVec
	Prompts          prometheus.Counter
	Errors           *prometheus.CounterVec
	Processing       *prometheus.HistogramVec
	Sessions         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime collectors, on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		InputsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_accepted_total",
			Help:      "Total number of inputs accepted for processing",
		}),
		InputsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_suppressed_total",
			Help:      "Total number of inputs discarded while suppressing or busy",
		}, []string{"origin"}),
		Prompts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompts_total",
			Help:      "Total number of prompts issued",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of parse and listener errors",
		}, []string{"stage"}),
		Processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_seconds",
			Help:      "Time spent processing an accepted input",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Number of sessions that have not been closed",
		}),
	}

	m.registry.MustRegister(
		m.InputsAccepted,
		m.InputsSuppressed,
		m.Prompts,
		m.Errors,
		m.Processing,
		m.Sessions,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns session hooks that feed the collectors.
// Each call counts one more open session until its OnClose fires.
func (m *Metrics) Hooks() domain.Hooks {
	m.Sessions.Inc()
	return domain.Hooks{
		OnAccept: func(context.Context, *domain.InputEvent) {
			m.InputsAccepted.Inc()
		},
		OnSuppress: func(_ context.Context, e *domain.InputEvent) {
			m.InputsSuppressed.WithLabelValues(string(e.Origin)).Inc()
		},
		OnComplete: func(_ context.Context, e *domain.InputEvent) {
			status := "ok"
			if e.Failed {
				status = "failed"
			}
			m.Processing.WithLabelValues(status).Observe(e.Duration.Seconds())
		},
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			m.Errors.WithLabelValues(string(e.Stage)).Inc()
		},
		OnPrompt: func(context.Context, *domain.SessionEvent) {
			m.Prompts.Inc()
		},
		OnClose: func(context.Context, *domain.SessionEvent) {
			m.Sessions.Dec()
		},
	}
}
