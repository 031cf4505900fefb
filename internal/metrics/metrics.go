// Package metrics exposes Prometheus instrumentation for the declaration
// pipeline, audit queue and anomaly feed.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks pipeline activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Transitions       *prometheus.CounterVec
	Declarations      prometheus.Counter
	ScoringFailures   prometheus.Counter
	ScoringDuration   prometheus.Histogram
	AuditsEnqueued    prometheus.Counter
	AuditsCompleted   prometheus.Counter
	AuditsFinalized   prometheus.Counter
	QueueDepth        prometheus.Gauge
	FeedEvents        *prometheus.CounterVec
	StaleCompletions  prometheus.Counter
	OperationFailures *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry so several
// sessions (or tests) never collide on collector names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customsflow_transitions_total",
			Help: "Declaration status transitions by target status",
		}, []string{"to"}),
		Declarations: factory.NewCounter(prometheus.CounterOpts{
			Name: "customsflow_declarations_created_total",
			Help: "Total number of declarations created",
		}),
		ScoringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "customsflow_scoring_failures_total",
			Help: "Scorer invocations that returned an error",
		}),
		ScoringDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "customsflow_scoring_duration_seconds",
			Help:    "Duration of scorer invocations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		AuditsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "customsflow_audits_enqueued_total",
			Help: "Declarations routed into the audit queue",
		}),
		AuditsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "customsflow_audits_completed_total",
			Help: "Audits that finished adjudication",
		}),
		AuditsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "customsflow_audits_finalized_total",
			Help: "Audits acknowledged and removed from the queue",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "customsflow_audit_queue_depth",
			Help: "Declarations currently waiting in the audit queue",
		}),
		FeedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customsflow_feed_events_total",
			Help: "Synthetic anomaly events by risk level",
		}, []string{"risk_level"}),
		StaleCompletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "customsflow_stale_completions_total",
			Help: "Completion signals ignored because the declaration had already moved on",
		}),
		OperationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customsflow_operation_failures_total",
			Help: "Rejected operations by component and error kind",
		}, []string{"component", "kind"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTransition counts a status change.
func (m *Metrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordDeclarationCreated() {
	if m == nil {
		return
	}
	m.Declarations.Inc()
}

// ObserveScoring records one scorer call. Call with the time the call began.
func (m *Metrics) ObserveScoring(start time.Time, err error) {
	if m == nil {
		return
	}
	m.ScoringDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.ScoringFailures.Inc()
	}
}

func (m *Metrics) RecordEnqueued() {
	if m == nil {
		return
	}
	m.AuditsEnqueued.Inc()
}

func (m *Metrics) RecordAuditCompleted() {
	if m == nil {
		return
	}
	m.AuditsCompleted.Inc()
}

func (m *Metrics) RecordFinalized() {
	if m == nil {
		return
	}
	m.AuditsFinalized.Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) RecordFeedEvent(riskLevel string) {
	if m == nil {
		return
	}
	m.FeedEvents.WithLabelValues(riskLevel).Inc()
}

func (m *Metrics) RecordStaleCompletion() {
	if m == nil {
		return
	}
	m.StaleCompletions.Inc()
}

// RecordFailure counts a rejected operation. kind is usually customs.Kind(err).
func (m *Metrics) RecordFailure(component, kind string) {
	if m == nil || kind == "" {
		return
	}
	m.OperationFailures.WithLabelValues(component, kind).Inc()
}
