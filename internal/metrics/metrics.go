// Package metrics exports search and ingestion metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kaimono"

// Recorder receives pipeline events. Metrics implements it; Nop discards them.
type Recorder interface {
	SearchCompleted(status string, d time.Duration)
	RetrievalStep(step string)
	EnrichmentGap()
	InvalidID()
	ProductIndexed(status string)
}

// Nop is a Recorder that records nothing.
type Nop struct{}

func (Nop) SearchCompleted(string, time.Duration) {}
func (Nop) RetrievalStep(string)                  {}
func (Nop) EnrichmentGap()                        {}
func (Nop) InvalidID()                            {}
func (Nop) ProductIndexed(string)                 {}

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	searchRequests  *prometheus.CounterVec
	searchLatency   prometheus.Histogram
	retrievalSteps  *prometheus.CounterVec
	enrichmentGaps  prometheus.Counter
	invalidIDs      prometheus.Counter
	productsIndexed *prometheus.CounterVec
}

// DefaultLatencyBuckets are the search latency buckets in seconds.
var DefaultLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// New creates the collectors and registers them on a new registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.searchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of search requests by outcome",
		},
		[]string{"status"},
	)
	m.searchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "latency_seconds",
			Help:      "Search latency in seconds",
			Buckets:   DefaultLatencyBuckets,
		},
	)
	m.retrievalSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "steps_total",
			Help:      "Retrieval attempts that produced the candidate set, by step",
		},
		[]string{"step"},
	)
	m.enrichmentGaps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "enrichment_gaps_total",
			Help:      "Results served from the index payload because the catalog had no record",
		},
	)
	m.invalidIDs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "invalid_ids_total",
			Help:      "Candidates skipped because their product id is not a valid catalog key",
		},
	)
	m.productsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "products_total",
			Help:      "Products processed by the indexer by outcome",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(
		m.searchRequests,
		m.searchLatency,
		m.retrievalSteps,
		m.enrichmentGaps,
		m.invalidIDs,
		m.productsIndexed,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SearchCompleted(status string, d time.Duration) {
	m.searchRequests.WithLabelValues(status).Inc()
	m.searchLatency.Observe(d.Seconds())
}

func (m *Metrics) RetrievalStep(step string) {
	m.retrievalSteps.WithLabelValues(step).Inc()
}

func (m *Metrics) EnrichmentGap() { m.enrichmentGaps.Inc() }

func (m *Metrics) InvalidID() { m.invalidIDs.Inc() }

func (m *Metrics) ProductIndexed(status string) {
	m.productsIndexed.WithLabelValues(status).Inc()
}
