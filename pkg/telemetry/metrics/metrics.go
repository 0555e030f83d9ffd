// Package metrics exposes Prometheus instrumentation for the compliance
// engine: evaluation counters and latencies, inference call outcomes, the
// circuit-breaker state, and the catalog size.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veridian-hq/lattice/pkg/compliance"
	"veridian-hq/lattice/pkg/inference"
)

const namespace = "lattice"

// Collector registers and records every engine metric. It implements both
// compliance.Observer and inference.Observer.
type Collector struct {
	registry *prometheus.Registry

	evaluationsTotal    *prometheus.CounterVec
	evaluationDuration  *prometheus.HistogramVec
	documentsTotal      *prometheus.CounterVec
	documentDuration    prometheus.Histogram
	inferenceCallsTotal *prometheus.CounterVec
	inferenceDuration   prometheus.Histogram
	inferenceAttempts   prometheus.Histogram
	circuitState        prometheus.Gauge
	catalogSize         prometheus.Gauge
}

// NewCollector registers the engine metrics on the given registry, or on a
// fresh registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Requirement evaluations by strategy and verdict.",
		}, []string{"method", "level"}),
		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of one requirement evaluation.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method"}),
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Evaluated documents by overall compliance level.",
		}, []string{"level"}),
		documentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Duration of one full document evaluation.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		inferenceCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_calls_total",
			Help:      "Inference calls by outcome (success or error kind).",
		}, []string{"outcome"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_call_duration_seconds",
			Help:      "End-to-end inference call duration including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		inferenceAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_call_attempts",
			Help:      "Attempts used per inference call.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		circuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inference_circuit_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_requirements",
			Help:      "Requirements currently held by the catalog.",
		}),
	}

	registry.MustRegister(
		c.evaluationsTotal,
		c.evaluationDuration,
		c.documentsTotal,
		c.documentDuration,
		c.inferenceCallsTotal,
		c.inferenceDuration,
		c.inferenceAttempts,
		c.circuitState,
		c.catalogSize,
	)
	return c
}

// ObserveResult implements compliance.Observer.
func (c *Collector) ObserveResult(method compliance.Method, level compliance.Level, duration time.Duration) {
	c.evaluationsTotal.WithLabelValues(string(method), string(level)).Inc()
	c.evaluationDuration.WithLabelValues(string(method)).Observe(duration.Seconds())
}

// ObserveDocument implements compliance.Observer.
func (c *Collector) ObserveDocument(level compliance.Level, requirements int, duration time.Duration) {
	c.documentsTotal.WithLabelValues(string(level)).Inc()
	c.documentDuration.Observe(duration.Seconds())
}

// ObserveCall implements inference.Observer. kind is empty on success.
func (c *Collector) ObserveCall(kind inference.ErrorKind, attempts int, duration time.Duration) {
	outcome := "success"
	if kind != "" {
		outcome = string(kind)
	}
	c.inferenceCallsTotal.WithLabelValues(outcome).Inc()
	c.inferenceDuration.Observe(duration.Seconds())
	if attempts > 0 {
		c.inferenceAttempts.Observe(float64(attempts))
	}
}

// ObserveCircuitState implements inference.Observer.
func (c *Collector) ObserveCircuitState(state inference.State) {
	switch state {
	case inference.StateClosed:
		c.circuitState.Set(0)
	case inference.StateHalfOpen:
		c.circuitState.Set(1)
	case inference.StateOpen:
		c.circuitState.Set(2)
	}
}

// SetCatalogSize records the current catalog size.
func (c *Collector) SetCatalogSize(n int) {
	c.catalogSize.Set(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
