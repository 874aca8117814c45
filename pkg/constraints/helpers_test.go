package constraints

import (
	"testing"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

func setupTestGraph(t *testing.T) *storage.GraphStorage {
	t.Helper()
	graph, err := storage.NewGraphStorage("")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { graph.Close() })
	return graph
}

func mustNode(t *testing.T, graph *storage.GraphStorage, label string, props map[string]any) *storage.Node {
	t.Helper()
	node, err := graph.CreateNode([]string{label}, props)
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
	return node
}

func mustEdge(t *testing.T, graph *storage.GraphStorage, from, to *storage.Node, typ string) *storage.Edge {
	t.Helper()
	edge, err := graph.CreateEdge(from.ID, to.ID, typ, nil)
	if err != nil {
		t.Fatalf("CreateEdge failed: %v", err)
	}
	return edge
}
