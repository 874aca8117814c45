package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSyncMetrics() {
	r.SyncItemsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygraph_sync_items_total",
			Help: "Nodes and edges processed by store synchronization",
		},
		[]string{"kind", "result"},
	)

	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygraph_store_operations_total",
			Help: "Store round trips by operation and status",
		},
		[]string{"operation", "status"},
	)

	r.StoreOperationTime = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storygraph_store_operation_duration_seconds",
			Help:    "Store round trip latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"},
	)
}
