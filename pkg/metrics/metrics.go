package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initPipelineMetrics()
	r.initSyncMetrics()
	r.initStorageMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordExtraction records one processed document
func (r *Registry) RecordExtraction(status string, duration time.Duration, passes int) {
	r.DocumentsTotal.WithLabelValues(status).Inc()
	if status != "ok" {
		return
	}
	r.ExtractionDuration.Observe(duration.Seconds())
	r.ContractionPasses.Observe(float64(passes))
}

// RecordNodes adds n extracted nodes of the given type
func (r *Registry) RecordNodes(nodeType string, n int) {
	r.NodesExtracted.WithLabelValues(nodeType).Add(float64(n))
}

// RecordSyncItem records the outcome of one node or edge upsert.
// kind is "node" or "edge"; result is "inserted", "skipped" or "failed".
func (r *Registry) RecordSyncItem(kind, result string) {
	r.SyncItemsTotal.WithLabelValues(kind, result).Inc()
}

// RecordStoreOperation records a store round trip
func (r *Registry) RecordStoreOperation(operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationTime.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateStorageCounts sets the embedded store size gauges
func (r *Registry) UpdateStorageCounts(nodes, edges int) {
	r.StorageNodesTotal.Set(float64(nodes))
	r.StorageEdgesTotal.Set(float64(edges))
}
