package constraints

import (
	"errors"
	"fmt"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// EdgeTypeConstraint applies the typed-edge table to stored relationships:
// every relationship must carry a known label and join node types that the
// label allows.
type EdgeTypeConstraint struct{}

// Name returns the constraint name
func (c *EdgeTypeConstraint) Name() string {
	return "EdgeTypeConstraint"
}

// Validate checks every edge in the graph
func (c *EdgeTypeConstraint) Validate(graph GraphReader) ([]Violation, error) {
	violations := make([]Violation, 0)
	types := make(map[uint64]model.NodeType)

	nodeType := func(id uint64) (model.NodeType, error) {
		if t, ok := types[id]; ok {
			return t, nil
		}
		node, err := graph.GetNode(id)
		if err != nil {
			return "", err
		}
		t := storedNodeType(node)
		types[id] = t
		return t, nil
	}

	for _, edge := range graph.AllEdges() {
		src, err := nodeType(edge.FromNodeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load source of edge %d: %w", edge.ID, err)
		}
		dst, err := nodeType(edge.ToNodeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load target of edge %d: %w", edge.ID, err)
		}

		err = model.CheckTypes(model.Label(edge.Type), src, dst)
		if err == nil {
			continue
		}

		edgeID := edge.ID
		v := Violation{
			Type:       ForbiddenEdge,
			Severity:   Error,
			EdgeID:     &edgeID,
			Constraint: c.Name(),
			Message:    fmt.Sprintf("Edge %d: %v", edge.ID, err),
			Details: map[string]any{
				"edge_type":   edge.Type,
				"source_type": string(src),
				"dest_type":   string(dst),
			},
		}
		if errors.Is(err, model.ErrUnrecognizedType) {
			v.Type = InvalidStructure
		}
		violations = append(violations, v)
	}

	return violations, nil
}

// storedNodeType returns the first label that names a node type. Nodes
// without one yield the empty type, which no edge rule accepts.
func storedNodeType(node *storage.Node) model.NodeType {
	for _, label := range node.Labels {
		if t, err := model.ParseNodeType(label); err == nil {
			return t
		}
	}
	return ""
}
