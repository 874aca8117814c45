package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Extraction pipeline
	DocumentsTotal     *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	ContractionPasses  prometheus.Histogram
	NodesExtracted     *prometheus.CounterVec
	RelationsExtracted prometheus.Counter

	// Store synchronization
	SyncItemsTotal       *prometheus.CounterVec
	StoreOperationsTotal *prometheus.CounterVec
	StoreOperationTime   *prometheus.HistogramVec

	// Embedded store
	StorageNodesTotal prometheus.Gauge
	StorageEdgesTotal prometheus.Gauge
	SnapshotBytes     prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)
