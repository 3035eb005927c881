package observability

import (
	"context"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "passage").
	Namespace string

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the Prometheus collectors fed by lifecycle events.
type Metrics struct {
	navigations     *prometheus.CounterVec
	navigationTime  prometheus.Histogram
	phaseDuration   *prometheus.HistogramVec
	hooksTotal      *prometheus.CounterVec
	hookDuration    *prometheus.HistogramVec
	hookFailures    *prometheus.CounterVec
	abortsRecorded  *prometheus.CounterVec
	retriesObserved prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "passage",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "navigations_total",
			Help:      "Total number of settled navigations by status and settling phase",
		}, []string{"status", "phase"}),

		navigationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "navigation_duration_seconds",
			Help:      "Wall time of a full leave/enter navigation",
			Buckets:   cfg.Buckets,
		}),

		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of a leave or enter chain",
			Buckets:   cfg.Buckets,
		}, []string{"phase", "result"}),

		hooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "hooks_total",
			Help:      "Total number of hook invocations",
		}, []string{"phase", "convention"}),

		hookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "hook_duration_seconds",
			Help:      "Time from hook invocation to settlement",
			Buckets:   cfg.Buckets,
		}, []string{"phase", "convention"}),

		hookFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "hook_failures_total",
			Help:      "Total number of hooks that failed their chain",
		}, []string{"phase", "route"}),

		abortsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "aborts_total",
			Help:      "Total number of chains that ended with an abort reason recorded",
		}, []string{"phase", "kind"}),

		retriesObserved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "retries_total",
			Help:      "Total number of navigations that were retries of a previous attempt",
		}),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnd: func(_ context.Context, e *domain.PhaseEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.phaseDuration.WithLabelValues(string(e.Phase), result).Observe(e.Duration.Seconds())
		},
		OnHookStart: func(_ context.Context, e *domain.HookEvent) {
			m.hooksTotal.WithLabelValues(string(e.Phase), string(e.Convention)).Inc()
		},
		OnHookEnd: func(_ context.Context, e *domain.HookEvent) {
			m.hookDuration.WithLabelValues(string(e.Phase), string(e.Convention)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.hookFailures.WithLabelValues(string(e.Phase), e.RouteID).Inc()
			}
		},
		OnNavigationEnd: func(_ context.Context, e *domain.NavigationEvent) {
			o := e.Outcome
			if o == nil {
				return
			}
			m.navigations.WithLabelValues(string(o.Status), string(o.Phase)).Inc()
			m.navigationTime.Observe(o.FinishedAt.Sub(o.StartedAt).Seconds())
			switch o.Status {
			case domain.StatusRedirected, domain.StatusCancelled, domain.StatusAborted:
				m.abortsRecorded.WithLabelValues(string(o.Phase), string(o.Status)).Inc()
			}
			if o.Request.RetryOf != "" {
				m.retriesObserved.Inc()
			}
		},
	}
}
