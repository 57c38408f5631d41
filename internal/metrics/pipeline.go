package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline Prometheus metrics.
var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "optimo",
			Name:      "documents_total",
			Help:      "Documents persisted, by decision",
		},
		[]string{"decision"},
	)

	DocumentFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "optimo",
			Name:      "document_failures_total",
			Help:      "Documents that failed, by pipeline stage",
		},
		[]string{"stage"},
	)

	VariantDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "optimo",
			Name:      "variant_duration_seconds",
			Help:      "Time to render and recognize one variant",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"variant"},
	)

	DocumentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "optimo",
			Name:      "document_duration_seconds",
			Help:      "Time to map, reduce and encode one document",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

var registerOnce sync.Once

// RegisterPipelineMetrics registers the pipeline metrics with the default registry.
func RegisterPipelineMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(DocumentsTotal)
		prometheus.MustRegister(DocumentFailuresTotal)
		prometheus.MustRegister(VariantDuration)
		prometheus.MustRegister(DocumentDuration)
	})
}

// QueueDepther reports how many tasks wait for a worker.
type QueueDepther interface {
	QueueDepth() int
}

// NewQueueDepthGauge exposes the worker pool backlog.
func NewQueueDepthGauge(p QueueDepther) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "optimo",
			Name:      "worker_queue_depth",
			Help:      "Tasks waiting for a pool worker",
		},
		func() float64 { return float64(p.QueueDepth()) },
	)
}
