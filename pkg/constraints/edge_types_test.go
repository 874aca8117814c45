package constraints

import (
	"testing"
)

func TestEdgeTypeConstraint(t *testing.T) {
	graph := setupTestGraph(t)

	user := mustNode(t, graph, "source", map[string]any{"key": "u"})
	doc := mustNode(t, graph, "document", map[string]any{"key": "d"})
	ent := mustNode(t, graph, "entity", map[string]any{"key": "e"})
	act := mustNode(t, graph, "action", map[string]any{"key": "a"})

	mustEdge(t, graph, user, doc, "authored")
	mustEdge(t, graph, doc, ent, "contains")
	mustEdge(t, graph, ent, act, "involved")
	forbidden := mustEdge(t, graph, doc, user, "authored")
	unknown := mustEdge(t, graph, ent, act, "likes")

	violations, err := (&EdgeTypeConstraint{}).Validate(graph)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("Expected 2 violations, got %d: %+v", len(violations), violations)
	}

	byEdge := make(map[uint64]Violation)
	for _, v := range violations {
		byEdge[*v.EdgeID] = v
	}
	if v, ok := byEdge[forbidden.ID]; !ok || v.Type != ForbiddenEdge {
		t.Errorf("reversed authored edge: got %+v", v)
	}
	if v, ok := byEdge[unknown.ID]; !ok || v.Type != InvalidStructure {
		t.Errorf("unknown label: got %+v", v)
	}
}
