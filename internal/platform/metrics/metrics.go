// Package metrics exposes the ledger's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the ledger counters and histograms behind a private
// registry so tests can run multiple instances without label collisions.
type Collector struct {
	registry        *prometheus.Registry
	postings        *prometheus.CounterVec
	cancellations   prometheus.Counter
	reconciliations prometheus.Counter
	conflicts       prometheus.Counter
	postingDuration prometheus.Histogram
	auditPublished  prometheus.Counter
	auditFailed     prometheus.Counter
}

// NewCollector creates a Collector with all ledger metrics registered
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		postings: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_postings_total",
			Help: "Total number of posted transactions by type",
		}, []string{"type"}),
		cancellations: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_cancellations_total",
			Help: "Total number of cancelled transactions",
		}),
		reconciliations: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_reconciliations_total",
			Help: "Total number of reconciled transactions",
		}),
		conflicts: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_concurrency_conflicts_total",
			Help: "Total number of lifecycle operations rejected by the conditional status update",
		}),
		postingDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_posting_duration_seconds",
			Help:    "Time taken to post a transaction including the database transaction",
			Buckets: prometheus.DefBuckets,
		}),
		auditPublished: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_events_published_total",
			Help: "Total number of audit events published to the broker",
		}),
		auditFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_events_failed_total",
			Help: "Total number of audit events that exhausted their publish attempts",
		}),
	}
}

// RecordPosting counts a successful posting and observes its duration
func (c *Collector) RecordPosting(txType string, duration time.Duration) {
	c.postings.WithLabelValues(txType).Inc()
	c.postingDuration.Observe(duration.Seconds())
}

// RecordCancellation counts a successful cancellation
func (c *Collector) RecordCancellation() {
	c.cancellations.Inc()
}

// RecordReconciliation counts a successful reconciliation
func (c *Collector) RecordReconciliation() {
	c.reconciliations.Inc()
}

// RecordConflict counts a lifecycle operation lost to a concurrent writer
func (c *Collector) RecordConflict() {
	c.conflicts.Inc()
}

// RecordAuditPublished counts an audit event acknowledged by the broker
func (c *Collector) RecordAuditPublished() {
	c.auditPublished.Inc()
}

// RecordAuditFailed counts an audit event parked after exhausting retries
func (c *Collector) RecordAuditFailed() {
	c.auditFailed.Inc()
}

// Handler returns the scrape endpoint handler for this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
