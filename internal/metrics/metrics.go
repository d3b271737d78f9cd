// Package metrics provides Prometheus collectors for the conversation core.
//
// All methods are safe on a nil *Metrics so components can run without
// instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const (
	metricsNamespace      = "assistant"
	conversationSubsystem = "conversation"
	recorderSubsystem     = "recorder"
)

// Metrics holds all collectors for the assistant
type Metrics struct {
	// UtterancesTotal counts handled utterances.
	// Labels: action (pin_challenge, policy_viewed, ...), outcome (success, denied, ...)
	UtterancesTotal *prometheus.CounterVec

	// HandleDurationSeconds measures time spent inside Handle
	HandleDurationSeconds prometheus.Histogram

	// AuthEventsTotal counts PIN verification events.
	// Labels: result (success, failure, lockout)
	AuthEventsTotal *prometheus.CounterVec

	// FeedbackTotal counts completed feedback flows.
	// Labels: rating (1-5), sentiment
	FeedbackTotal *prometheus.CounterVec

	// SinkErrorsTotal counts rejected audit or feedback writes.
	// Labels: sink (audit, feedback)
	SinkErrorsTotal *prometheus.CounterVec

	// StoreErrorsTotal counts session store failures.
	// Labels: op (get, put, delete)
	StoreErrorsTotal *prometheus.CounterVec

	// RecorderQueued counts records accepted by the async recorder.
	// Labels: kind (audit, feedback)
	RecorderQueued *prometheus.CounterVec

	// RecorderFlushed counts records durably written by the recorder.
	// Labels: kind (audit, feedback)
	RecorderFlushed *prometheus.CounterVec

	// RecorderDropped counts records rejected or lost by the recorder.
	// Labels: kind (audit, feedback), reason (buffer_full, write_error)
	RecorderDropped *prometheus.CounterVec
}

// New creates and registers all collectors with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UtterancesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "utterances_total",
				Help:      "Total utterances handled by action and outcome",
			},
			[]string{"action", "outcome"},
		),

		HandleDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "handle_duration_seconds",
				Help:      "Time spent handling a single utterance",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),

		AuthEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "auth_events_total",
				Help:      "PIN verification events by result",
			},
			[]string{"result"},
		),

		FeedbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "feedback_total",
				Help:      "Completed feedback flows by rating and sentiment",
			},
			[]string{"rating", "sentiment"},
		),

		SinkErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "sink_errors_total",
				Help:      "Audit and feedback writes that could not be queued",
			},
			[]string{"sink"},
		),

		StoreErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: conversationSubsystem,
				Name:      "store_errors_total",
				Help:      "Session store failures by operation",
			},
			[]string{"op"},
		),

		RecorderQueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recorderSubsystem,
				Name:      "queued_total",
				Help:      "Records accepted into the recorder buffer",
			},
			[]string{"kind"},
		),

		RecorderFlushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recorderSubsystem,
				Name:      "flushed_total",
				Help:      "Records written by the recorder backend",
			},
			[]string{"kind"},
		),

		RecorderDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recorderSubsystem,
				Name:      "dropped_total",
				Help:      "Records the recorder could not queue or write",
			},
			[]string{"kind", "reason"},
		),
	}
}

// =============================================================================
// Recording helpers
// =============================================================================

// ObserveUtterance records one handled utterance
func (m *Metrics) ObserveUtterance(action, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UtterancesTotal.WithLabelValues(action, outcome).Inc()
	m.HandleDurationSeconds.Observe(seconds)
}

// AuthEvent records a PIN verification result
func (m *Metrics) AuthEvent(result string) {
	if m == nil {
		return
	}
	m.AuthEventsTotal.WithLabelValues(result).Inc()
}

// FeedbackCompleted records a completed feedback flow
func (m *Metrics) FeedbackCompleted(rating, sentiment string) {
	if m == nil {
		return
	}
	m.FeedbackTotal.WithLabelValues(rating, sentiment).Inc()
}

// SinkError records a rejected audit or feedback write
func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// StoreError records a session store failure
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(op).Inc()
}

// Queued records n records accepted by the recorder
func (m *Metrics) Queued(kind string, n int) {
	if m == nil {
		return
	}
	m.RecorderQueued.WithLabelValues(kind).Add(float64(n))
}

// Flushed records n records written by the recorder backend
func (m *Metrics) Flushed(kind string, n int) {
	if m == nil {
		return
	}
	m.RecorderFlushed.WithLabelValues(kind).Add(float64(n))
}

// Dropped records n records the recorder lost
func (m *Metrics) Dropped(kind, reason string, n int) {
	if m == nil {
		return
	}
	m.RecorderDropped.WithLabelValues(kind, reason).Add(float64(n))
}
