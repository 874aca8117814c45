package storage

import (
	"maps"
	"slices"
)

// Node represents a vertex in the graph. Property values are store
// primitives: string, int64, float64, bool, time.Time or slices of those.
type Node struct {
	ID         uint64
	Labels     []string
	Properties map[string]any
	CreatedAt  int64
	UpdatedAt  int64
}

// Edge represents a relationship between nodes
type Edge struct {
	ID         uint64
	FromNodeID uint64
	ToNodeID   uint64
	Type       string
	Properties map[string]any
	CreatedAt  int64
}

// Clone creates a copy of a node. Slice property values are shared.
func (n *Node) Clone() *Node {
	return &Node{
		ID:         n.ID,
		Labels:     slices.Clone(n.Labels),
		Properties: maps.Clone(n.Properties),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

// HasLabel checks if node has a specific label
func (n *Node) HasLabel(label string) bool {
	return slices.Contains(n.Labels, label)
}

// GetProperty retrieves a property value
func (n *Node) GetProperty(key string) (any, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// Clone creates a copy of an edge
func (e *Edge) Clone() *Edge {
	return &Edge{
		ID:         e.ID,
		FromNodeID: e.FromNodeID,
		ToNodeID:   e.ToNodeID,
		Type:       e.Type,
		Properties: maps.Clone(e.Properties),
		CreatedAt:  e.CreatedAt,
	}
}

// GetProperty retrieves a property value
func (e *Edge) GetProperty(key string) (any, bool) {
	v, ok := e.Properties[key]
	return v, ok
}
