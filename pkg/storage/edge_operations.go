package storage

import (
	"fmt"
	"time"
)

// CreateEdge creates a new edge between two nodes
func (gs *GraphStorage) CreateEdge(fromID, toID uint64, edgeType string, properties map[string]any) (*Edge, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("CreateEdge"); err != nil {
		return nil, err
	}

	// Verify nodes exist
	if _, ok := gs.nodes[fromID]; !ok {
		return nil, NewError("CreateEdge").Node(fromID).Context("source").Cause(ErrNodeNotFound).Err()
	}
	if _, ok := gs.nodes[toID]; !ok {
		return nil, NewError("CreateEdge").Node(toID).Context("target").Cause(ErrNodeNotFound).Err()
	}

	// Check for ID space exhaustion
	if gs.nextEdgeID == ^uint64(0) {
		return nil, fmt.Errorf("edge ID space exhausted")
	}
	edgeID := gs.nextEdgeID
	gs.nextEdgeID++

	edge := &Edge{
		ID:         edgeID,
		FromNodeID: fromID,
		ToNodeID:   toID,
		Type:       edgeType,
		Properties: normalizeProperties(properties),
		CreatedAt:  time.Now().Unix(),
	}
	gs.insertEdge(edge)
	gs.updateMetrics()

	return edge.Clone(), nil
}

func (gs *GraphStorage) insertEdge(edge *Edge) {
	gs.edges[edge.ID] = edge
	gs.edgesByType[edge.Type] = append(gs.edgesByType[edge.Type], edge.ID)
	gs.outgoingEdges[edge.FromNodeID] = append(gs.outgoingEdges[edge.FromNodeID], edge.ID)
	gs.incomingEdges[edge.ToNodeID] = append(gs.incomingEdges[edge.ToNodeID], edge.ID)
}

// GetEdge retrieves an edge by ID
func (gs *GraphStorage) GetEdge(edgeID uint64) (*Edge, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	edge, exists := gs.edges[edgeID]
	if !exists {
		return nil, EdgeNotFoundError("GetEdge", edgeID)
	}
	return edge.Clone(), nil
}

// DeleteEdge deletes an edge by ID
func (gs *GraphStorage) DeleteEdge(edgeID uint64) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("DeleteEdge"); err != nil {
		return err
	}
	if _, exists := gs.edges[edgeID]; !exists {
		return EdgeNotFoundError("DeleteEdge", edgeID)
	}
	gs.removeEdge(edgeID)
	gs.updateMetrics()
	return nil
}

// removeEdge unlinks an edge from every index. Caller holds the write lock.
func (gs *GraphStorage) removeEdge(edgeID uint64) {
	edge, exists := gs.edges[edgeID]
	if !exists {
		return
	}
	delete(gs.edges, edgeID)
	gs.edgesByType[edge.Type] = removeID(gs.edgesByType[edge.Type], edgeID)
	gs.outgoingEdges[edge.FromNodeID] = removeID(gs.outgoingEdges[edge.FromNodeID], edgeID)
	gs.incomingEdges[edge.ToNodeID] = removeID(gs.incomingEdges[edge.ToNodeID], edgeID)
}
