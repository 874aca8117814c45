package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
)

func init() {
	// Property values travel as interface values; gob needs every concrete
	// type that is not a builtin registered up front.
	gob.Register(time.Time{})
	gob.Register([]time.Time{})
	gob.Register([]any{})
}

// snapshot is the on-disk form of the store. Label and adjacency indexes
// are rebuilt on load.
type snapshot struct {
	Nodes      []*Node
	Edges      []*Edge
	Indexes    []IndexSpec
	NextNodeID uint64
	NextEdgeID uint64
}

// Snapshot writes the store to <dataDir>/graph.snapshot as snappy-compressed
// gob. In-memory stores ignore the call.
func (gs *GraphStorage) Snapshot() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("Snapshot"); err != nil {
		return err
	}
	if gs.dataDir == "" {
		return nil
	}
	return gs.writeSnapshot()
}

// writeSnapshot assumes the write lock is held.
func (gs *GraphStorage) writeSnapshot() error {
	timer := logging.StartTimer(gs.logger, "snapshot written")

	snap := snapshot{
		Indexes:    gs.indexSpecsLocked(),
		NextNodeID: gs.nextNodeID,
		NextEdgeID: gs.nextEdgeID,
	}
	for _, id := range sortedIDs(mapKeys(gs.nodes)) {
		snap.Nodes = append(snap.Nodes, gs.nodes[id])
	}
	for _, id := range sortedIDs(mapKeys(gs.edges)) {
		snap.Edges = append(snap.Edges, gs.edges[id])
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		timer.EndError(err)
		return NewError("Snapshot").Snapshot().Context("encode").Cause(fmt.Errorf("%w: %v", ErrSnapshotFailed, err)).Err()
	}
	data := snappy.Encode(nil, buf.Bytes())

	snapshotPath := filepath.Join(gs.dataDir, snapshotFile)
	tmpPath := snapshotPath + ".tmp"

	// Write to temporary file first
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		timer.EndError(err)
		return NewError("Snapshot").Snapshot().Context("write").Cause(fmt.Errorf("%w: %v", ErrSnapshotFailed, err)).Err()
	}

	// Atomic rename
	if err := os.Rename(tmpPath, snapshotPath); err != nil {
		timer.EndError(err)
		return NewError("Snapshot").Snapshot().Context("rename").Cause(fmt.Errorf("%w: %v", ErrSnapshotFailed, err)).Err()
	}

	gs.stats.LastSnapshot = time.Now()
	gs.stats.SnapshotBytes = len(data)
	if gs.metricsRegistry != nil {
		gs.metricsRegistry.SnapshotBytes.Set(float64(len(data)))
	}
	timer.End(logging.Int("bytes", len(data)), logging.Count(len(snap.Nodes)))
	return nil
}

// loadFromDisk loads the graph from disk. A missing snapshot surfaces as an
// os.IsNotExist error.
func (gs *GraphStorage) loadFromDisk() error {
	snapshotPath := filepath.Join(gs.dataDir, snapshotFile)

	compressed, err := os.ReadFile(snapshotPath)
	if err != nil {
		return err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	for _, n := range snap.Nodes {
		if n.Properties == nil {
			n.Properties = map[string]any{}
		}
		gs.insertNode(n)
	}
	for _, e := range snap.Edges {
		if e.Properties == nil {
			e.Properties = map[string]any{}
		}
		gs.insertEdge(e)
	}
	for _, spec := range snap.Indexes {
		if err := gs.createUniqueIndexLocked(spec.Label, spec.Property); err != nil {
			return fmt.Errorf("failed to rebuild index %s.%s: %w", spec.Label, spec.Property, err)
		}
	}
	gs.nextNodeID = max(snap.NextNodeID, 1)
	gs.nextEdgeID = max(snap.NextEdgeID, 1)
	gs.stats.SnapshotBytes = len(compressed)

	gs.logger.Info("snapshot loaded",
		logging.Path(snapshotPath),
		logging.Int("nodes", len(snap.Nodes)),
		logging.Int("edges", len(snap.Edges)))
	return nil
}

func mapKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
