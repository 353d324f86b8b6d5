package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publisher batches and per-event outcomes.
type OutboxMetrics struct {
	duration  prometheus.Histogram
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	pending   prometheus.Gauge
}

// NewOutboxMetrics registers the outbox publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of outbox publish batches in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_failed_total",
		Help: "Outbox publish failures by outcome.",
	}, []string{"event_type", "outcome"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending_events",
		Help: "Outbox events still waiting to be published.",
	})
	reg.MustRegister(duration, published, failed, pending)
	return &OutboxMetrics{
		duration:  duration,
		published: published,
		failed:    failed,
		pending:   pending,
	}
}

// ObserveBatch records the duration of one publish batch.
func (o *OutboxMetrics) ObserveBatch(duration time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.Observe(duration.Seconds())
}

// IncPublished counts a published event.
func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed counts a failed publish; outcome is retry or dlq.
func (o *OutboxMetrics) IncFailed(eventType, outcome string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// SetPending records the current publish backlog.
func (o *OutboxMetrics) SetPending(n int64) {
	if o == nil || o.pending == nil {
		return
	}
	o.pending.Set(float64(n))
}
