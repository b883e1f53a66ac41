// Package observability holds the Prometheus metrics surface. The API Lambda
// does not scrape; the collector is exposed by the standalone worker only.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the service.
type Collector struct {
	registry *prometheus.Registry

	// GenerationJobs counts optimization jobs by mode and outcome.
	GenerationJobs *prometheus.CounterVec

	// CandidatesCreated counts candidates written by mode.
	CandidatesCreated *prometheus.CounterVec

	// DecisionsCommitted counts review decisions by decision and outcome.
	DecisionsCommitted *prometheus.CounterVec
}

// NewCollector creates the metrics collector. A process-wide singleton avoids
// duplicate registration when multiple components ask for the collector.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	generationJobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_jobs_total",
			Help:      "Total number of optimization generation jobs processed",
		},
		[]string{"mode", "status"},
	)

	candidatesCreated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_created_total",
			Help:      "Total number of optimization candidates written",
		},
		[]string{"mode"},
	)

	decisionsCommitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_committed_total",
			Help:      "Total number of review decisions committed",
		},
		[]string{"decision", "status"},
	)

	registry.MustRegister(
		generationJobs,
		candidatesCreated,
		decisionsCommitted,
	)

	globalCollector = &Collector{
		registry:           registry,
		GenerationJobs:     generationJobs,
		CandidatesCreated:  candidatesCreated,
		DecisionsCommitted: decisionsCommitted,
	}

	return globalCollector
}

// ResetForTesting resets the global collector for testing purposes.
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// JobProcessed records one finished generation job.
func (c *Collector) JobProcessed(mode, status string) {
	if c == nil {
		return
	}
	c.GenerationJobs.WithLabelValues(mode, status).Inc()
}

// CandidateCreated records one written candidate.
func (c *Collector) CandidateCreated(mode string) {
	if c == nil {
		return
	}
	c.CandidatesCreated.WithLabelValues(mode).Inc()
}

// DecisionCommitted records one committed review decision.
func (c *Collector) DecisionCommitted(decision, status string) {
	if c == nil {
		return
	}
	c.DecisionsCommitted.WithLabelValues(decision, status).Inc()
}
