package storage

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// normalizeProperties copies props, widening integer and float32 values so
// that comparisons and indexes see one numeric representation.
func normalizeProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch x := v.(type) {
		case int:
			out[k] = int64(x)
		case int32:
			out[k] = int64(x)
		case float32:
			out[k] = float64(x)
		case []any:
			out[k] = slices.Clone(x)
		default:
			out[k] = v
		}
	}
	return out
}

// CreateNode creates a new node. A unique index on one of its labels that
// already holds one of its property values fails the call with
// ErrUniqueViolation.
func (gs *GraphStorage) CreateNode(labels []string, properties map[string]any) (*Node, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("CreateNode"); err != nil {
		return nil, err
	}

	props := normalizeProperties(properties)
	if err := gs.checkUnique("CreateNode", 0, labels, props); err != nil {
		return nil, err
	}

	// Check for ID space exhaustion
	if gs.nextNodeID == ^uint64(0) {
		return nil, fmt.Errorf("node ID space exhausted")
	}
	nodeID := gs.nextNodeID
	gs.nextNodeID++

	now := time.Now().Unix()
	node := &Node{
		ID:         nodeID,
		Labels:     slices.Clone(labels),
		Properties: props,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	gs.insertNode(node)
	gs.updateMetrics()

	return node.Clone(), nil
}

func (gs *GraphStorage) insertNode(node *Node) {
	gs.nodes[node.ID] = node
	for _, label := range node.Labels {
		gs.nodesByLabel[label] = append(gs.nodesByLabel[label], node.ID)
	}
	gs.indexNode(node)
}

// GetNode retrieves a node by ID
func (gs *GraphStorage) GetNode(nodeID uint64) (*Node, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	node, exists := gs.nodes[nodeID]
	if !exists {
		return nil, NodeNotFoundError("GetNode", nodeID)
	}
	return node.Clone(), nil
}

// UpdateNode merges properties into a node. A nil value removes the
// property.
func (gs *GraphStorage) UpdateNode(nodeID uint64, properties map[string]any) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("UpdateNode"); err != nil {
		return err
	}
	node, exists := gs.nodes[nodeID]
	if !exists {
		return NodeNotFoundError("UpdateNode", nodeID)
	}

	merged := maps.Clone(node.Properties)
	for k, v := range normalizeProperties(properties) {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if err := gs.checkUnique("UpdateNode", nodeID, node.Labels, merged); err != nil {
		return err
	}

	gs.unindexNode(node)
	node.Properties = merged
	node.UpdatedAt = time.Now().Unix()
	gs.indexNode(node)
	return nil
}

// DeleteNode deletes a node and all its edges
func (gs *GraphStorage) DeleteNode(nodeID uint64) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("DeleteNode"); err != nil {
		return err
	}
	node, exists := gs.nodes[nodeID]
	if !exists {
		return NodeNotFoundError("DeleteNode", nodeID)
	}

	gs.deleteNodeLocked(node)
	gs.updateMetrics()

	return nil
}

// deleteNodeLocked removes a node, its edges and its index entries. Caller
// holds the write lock.
func (gs *GraphStorage) deleteNodeLocked(node *Node) {
	for _, edgeID := range slices.Clone(gs.outgoingEdges[node.ID]) {
		gs.removeEdge(edgeID)
	}
	for _, edgeID := range slices.Clone(gs.incomingEdges[node.ID]) {
		gs.removeEdge(edgeID)
	}
	for _, label := range node.Labels {
		gs.nodesByLabel[label] = removeID(gs.nodesByLabel[label], node.ID)
	}
	gs.unindexNode(node)

	delete(gs.nodes, node.ID)
	delete(gs.outgoingEdges, node.ID)
	delete(gs.incomingEdges, node.ID)
}
