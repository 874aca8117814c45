package storage

import (
	"sort"
	"time"
)

func sortedIDs(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (gs *GraphStorage) cloneNodes(ids []uint64) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range sortedIDs(ids) {
		if n, ok := gs.nodes[id]; ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (gs *GraphStorage) cloneEdges(ids []uint64) []*Edge {
	out := make([]*Edge, 0, len(ids))
	for _, id := range sortedIDs(ids) {
		if e, ok := gs.edges[id]; ok {
			out = append(out, e.Clone())
		}
	}
	return out
}

// AllNodes returns every node ordered by ID.
func (gs *GraphStorage) AllNodes() []*Node {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	ids := make([]uint64, 0, len(gs.nodes))
	for id := range gs.nodes {
		ids = append(ids, id)
	}
	return gs.cloneNodes(ids)
}

// AllEdges returns every edge ordered by ID.
func (gs *GraphStorage) AllEdges() []*Edge {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	ids := make([]uint64, 0, len(gs.edges))
	for id := range gs.edges {
		ids = append(ids, id)
	}
	return gs.cloneEdges(ids)
}

// Labels returns every label carried by at least one node, sorted.
func (gs *GraphStorage) Labels() []string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	labels := make([]string, 0, len(gs.nodesByLabel))
	for label, ids := range gs.nodesByLabel {
		if len(ids) > 0 {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

// FindNodesByLabel returns the nodes carrying label, ordered by ID.
func (gs *GraphStorage) FindNodesByLabel(label string) []*Node {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.cloneNodes(gs.nodesByLabel[label])
}

// FindNodesByProperty returns nodes with label whose property equals value.
// A unique index on (label, key) answers directly; otherwise the label is
// scanned. An empty label scans every node.
func (gs *GraphStorage) FindNodesByProperty(label, key string, value any) []*Node {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if label != "" {
		if id, found, indexed := gs.lookupUnique(label, key, value); indexed {
			if !found {
				return nil
			}
			return gs.cloneNodes([]uint64{id})
		}
	}

	var candidates []uint64
	if label != "" {
		candidates = gs.nodesByLabel[label]
	} else {
		for id := range gs.nodes {
			candidates = append(candidates, id)
		}
	}

	var matched []uint64
	for _, id := range candidates {
		if v, ok := gs.nodes[id].Properties[key]; ok && ValuesEqual(v, value) {
			matched = append(matched, id)
		}
	}
	return gs.cloneNodes(matched)
}

// FindEdgesByType returns the edges of one type, ordered by ID.
func (gs *GraphStorage) FindEdgesByType(edgeType string) []*Edge {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.cloneEdges(gs.edgesByType[edgeType])
}

// GetOutgoingEdges returns the edges leaving a node, ordered by ID.
func (gs *GraphStorage) GetOutgoingEdges(nodeID uint64) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if _, ok := gs.nodes[nodeID]; !ok {
		return nil, NodeNotFoundError("GetOutgoingEdges", nodeID)
	}
	return gs.cloneEdges(gs.outgoingEdges[nodeID]), nil
}

// GetIncomingEdges returns the edges entering a node, ordered by ID.
func (gs *GraphStorage) GetIncomingEdges(nodeID uint64) ([]*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if _, ok := gs.nodes[nodeID]; !ok {
		return nil, NodeNotFoundError("GetIncomingEdges", nodeID)
	}
	return gs.cloneEdges(gs.incomingEdges[nodeID]), nil
}

// ValuesEqual compares two property values, treating int64 and float64 as
// one numeric domain and times by instant.
func ValuesEqual(a, b any) bool {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		case int:
			return x == int64(y)
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			return x == float64(y)
		case int:
			return x == float64(y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Equal(y)
		}
		return false
	case string, bool:
		return a == b
	}
	ka, okA := indexValue(a)
	kb, okB := indexValue(b)
	return okA && okB && ka == kb
}
