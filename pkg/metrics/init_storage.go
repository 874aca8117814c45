package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStorageMetrics() {
	r.StorageNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "storygraph_storage_nodes_total",
			Help: "Nodes held by the embedded store",
		},
	)

	r.StorageEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "storygraph_storage_edges_total",
			Help: "Edges held by the embedded store",
		},
	)

	r.SnapshotBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "storygraph_storage_snapshot_bytes",
			Help: "Size of the last compressed snapshot written by the embedded store",
		},
	)
}
