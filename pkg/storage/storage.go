// Package storage is the embedded graph store: labelled nodes, typed edges,
// unique property indexes and compressed snapshots on disk.
package storage

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/metrics"
)

const (
	// File and directory permissions
	dirPermissions  = 0755 // rwxr-xr-x: Owner can read/write/execute, others can read/execute
	filePermissions = 0644 // rw-r--r--: Owner can read/write, others can read

	snapshotFile = "graph.snapshot"
)

// GraphStorage is the core in-memory graph storage engine
type GraphStorage struct {
	// Core data structures
	nodes map[uint64]*Node
	edges map[uint64]*Edge

	// Indexes for fast lookups
	nodesByLabel   map[string][]uint64        // label -> node IDs
	edgesByType    map[string][]uint64        // edge type -> edge IDs
	outgoingEdges  map[uint64][]uint64        // node ID -> outgoing edge IDs
	incomingEdges  map[uint64][]uint64        // node ID -> incoming edge IDs
	uniqueIndexes  map[indexKey]*UniqueIndex  // (label, property) -> index
	indexesByLabel map[string][]*UniqueIndex  // label -> indexes on that label

	// ID generators
	nextNodeID uint64
	nextEdgeID uint64

	// Concurrency control; txMu serializes write transactions
	mu     sync.RWMutex
	txMu   sync.Mutex
	txID   uint64
	closed bool

	// Persistence; an empty dataDir keeps everything in memory
	dataDir string

	stats Statistics

	metricsRegistry *metrics.Registry
	logger          logging.Logger
}

// StorageConfig holds configuration for GraphStorage
type StorageConfig struct {
	DataDir string
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Statistics tracks database statistics
type Statistics struct {
	NodeCount     uint64
	EdgeCount     uint64
	LastSnapshot  time.Time
	SnapshotBytes int
}

// NewGraphStorage creates a new graph storage engine with default config
func NewGraphStorage(dataDir string) (*GraphStorage, error) {
	return NewGraphStorageWithConfig(StorageConfig{DataDir: dataDir})
}

// NewGraphStorageWithConfig creates a graph storage engine and loads the
// snapshot in DataDir when one exists.
func NewGraphStorageWithConfig(config StorageConfig) (*GraphStorage, error) {
	gs := &GraphStorage{
		nodes:           make(map[uint64]*Node),
		edges:           make(map[uint64]*Edge),
		nodesByLabel:    make(map[string][]uint64),
		edgesByType:     make(map[string][]uint64),
		outgoingEdges:   make(map[uint64][]uint64),
		incomingEdges:   make(map[uint64][]uint64),
		uniqueIndexes:   make(map[indexKey]*UniqueIndex),
		indexesByLabel:  make(map[string][]*UniqueIndex),
		nextNodeID:      1,
		nextEdgeID:      1,
		dataDir:         config.DataDir,
		metricsRegistry: config.Metrics,
		logger:          logging.OrNop(config.Logger).With(logging.Component("storage")),
	}

	if config.DataDir == "" {
		return gs, nil
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(config.DataDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := gs.loadFromDisk(); err != nil {
		// If no snapshot exists, that's OK (fresh database)
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load from disk: %w", err)
		}
	}
	gs.updateMetrics()

	return gs, nil
}

// Close writes a final snapshot (for on-disk stores) and rejects further use.
func (gs *GraphStorage) Close() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return nil
	}
	gs.closed = true
	if gs.dataDir == "" {
		return nil
	}
	return gs.writeSnapshot()
}

// checkClosed returns an error if the storage is closed
func (gs *GraphStorage) checkClosed(op string) error {
	if gs.closed {
		return NewError(op).Cause(ErrStorageClosed).Err()
	}
	return nil
}

// GetStatistics returns current database statistics
func (gs *GraphStorage) GetStatistics() Statistics {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	stats := gs.stats
	stats.NodeCount = uint64(len(gs.nodes))
	stats.EdgeCount = uint64(len(gs.edges))
	return stats
}

func (gs *GraphStorage) updateMetrics() {
	if gs.metricsRegistry == nil {
		return
	}
	gs.metricsRegistry.UpdateStorageCounts(len(gs.nodes), len(gs.edges))
}

// removeID removes an ID from a list in place without preserving order.
func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			ids[i] = ids[len(ids)-1]
			return ids[:len(ids)-1]
		}
	}
	return ids
}
