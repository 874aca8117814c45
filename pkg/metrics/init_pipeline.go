package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.DocumentsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygraph_documents_total",
			Help: "Total number of documents run through extraction",
		},
		[]string{"status"},
	)

	r.ExtractionDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storygraph_extraction_duration_seconds",
			Help:    "Time spent extracting a story graph from one parsed document",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	r.ContractionPasses = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storygraph_contraction_passes",
			Help:    "Number of contraction passes needed per document",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
		},
	)

	r.NodesExtracted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygraph_nodes_extracted_total",
			Help: "Nodes produced by extraction, by node type",
		},
		[]string{"node_type"},
	)

	r.RelationsExtracted = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "storygraph_relations_extracted_total",
			Help: "Relations surviving contraction",
		},
	)
}
