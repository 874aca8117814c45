package visualization

import (
	"math"
	"testing"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// chainView builds document(0) -contains-> entity(1) -involved-> action(2)
// plus an unconnected entity(3)
func chainView() *storygraph.View {
	return &storygraph.View{
		Title: "chain",
		Nodes: []storygraph.ViewNode{
			{ID: 0, Key: "d", Title: "Doc", Type: model.Document},
			{ID: 1, Key: "d/0", Title: "Nike", Type: model.Entity, Attrs: model.Attrs{"pos": "PROPN"}},
			{ID: 2, Key: "d/1", Title: "runs", Type: model.Action},
			{ID: 3, Key: "d/2", Title: "Adidas", Type: model.Entity},
		},
		Edges: []storygraph.ViewEdge{
			{From: 0, To: 1, Label: model.Contains},
			{From: 1, To: 2, Label: model.Involved},
		},
	}
}

func TestForceDirectedLayout(t *testing.T) {
	v := chainView()
	layout := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600, Seed: 7})

	positions, err := layout.ComputeLayout(v)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	if len(positions) != len(v.Nodes) {
		t.Fatalf("Expected %d positions, got %d", len(v.Nodes), len(positions))
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	for id, pos := range positions {
		if pos.X < 50-1e-9 || pos.X > 750+1e-9 || pos.Y < 50-1e-9 || pos.Y > 550+1e-9 {
			t.Errorf("Node %d position %+v outside padded canvas", id, pos)
		}
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
	}
	if math.Abs(minX-50) > 1e-6 || math.Abs(maxX-750) > 1e-6 {
		t.Errorf("Expected positions normalized to [50, 750], got [%f, %f]", minX, maxX)
	}
}

func TestForceDirectedLayoutIsDeterministic(t *testing.T) {
	v := chainView()

	first, err := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600, Seed: 42}).ComputeLayout(v)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600, Seed: 42}).ComputeLayout(v)
	if err != nil {
		t.Fatal(err)
	}
	for id, pos := range first {
		if second[id] != pos {
			t.Errorf("Node %d: %+v != %+v for the same seed", id, pos, second[id])
		}
	}

	other, err := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600, Seed: 43}).ComputeLayout(v)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for id, pos := range first {
		if other[id] != pos {
			same = false
		}
	}
	if same {
		t.Error("Different seeds produced identical layouts")
	}
}

func TestHierarchicalLayout(t *testing.T) {
	v := chainView()
	layout := NewHierarchicalLayout(&LayoutConfig{Width: 800, Height: 600})

	positions, err := layout.ComputeLayout(v)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	if len(positions) != 4 {
		t.Fatalf("Expected 4 positions, got %d", len(positions))
	}

	// roots are the document and the unconnected entity
	if positions[0].Y != positions[3].Y {
		t.Errorf("Roots should share a level: %f vs %f", positions[0].Y, positions[3].Y)
	}
	if !(positions[0].Y < positions[1].Y && positions[1].Y < positions[2].Y) {
		t.Errorf("Expected descending levels, got %f, %f, %f", positions[0].Y, positions[1].Y, positions[2].Y)
	}
}

func TestHierarchicalLayoutCycle(t *testing.T) {
	v := &storygraph.View{
		Nodes: []storygraph.ViewNode{{ID: 0}, {ID: 1}, {ID: 2}},
		Edges: []storygraph.ViewEdge{
			{From: 0, To: 1, Label: model.Sequence},
			{From: 1, To: 2, Label: model.Sequence},
			{From: 2, To: 0, Label: model.Sequence},
		},
	}
	positions, err := NewHierarchicalLayout(&LayoutConfig{Width: 300, Height: 300}).ComputeLayout(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 3 {
		t.Fatalf("Expected every node placed, got %d", len(positions))
	}
	if !(positions[0].Y < positions[1].Y && positions[1].Y < positions[2].Y) {
		t.Errorf("Expected the first node as root of the cycle, got %+v", positions)
	}
}

func TestCircularLayout(t *testing.T) {
	v := chainView()
	positions, err := NewCircularLayout(&LayoutConfig{Width: 800, Height: 600}).ComputeLayout(v)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	center := Position{X: 400, Y: 300}
	radius := distance(center, positions[0])
	for id, pos := range positions {
		if d := distance(center, pos); math.Abs(d-radius) > 1e-6 {
			t.Errorf("Node %d at distance %f, expected %f", id, d, radius)
		}
	}
	if math.Abs(radius-250) > 1e-6 {
		t.Errorf("Expected radius 250, got %f", radius)
	}
}

func TestEmptyAndSingleNode(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"force", LayoutForce},
		{"hierarchical", LayoutHierarchical},
		{"circular", LayoutCircular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := NewLayout(tt.layout, &LayoutConfig{Width: 800, Height: 600})
			if err != nil {
				t.Fatal(err)
			}

			positions, err := layout.ComputeLayout(&storygraph.View{})
			if err != nil {
				t.Fatalf("Empty view: %v", err)
			}
			if len(positions) != 0 {
				t.Errorf("Expected no positions, got %d", len(positions))
			}

			single := &storygraph.View{Nodes: []storygraph.ViewNode{{ID: 0, Key: "k", Type: model.Entity}}}
			positions, err = layout.ComputeLayout(single)
			if err != nil {
				t.Fatalf("Single node: %v", err)
			}
			if len(positions) != 1 {
				t.Errorf("Expected 1 position, got %d", len(positions))
			}
		})
	}
}

func TestNewLayoutUnknown(t *testing.T) {
	if _, err := NewLayout("spiral", &LayoutConfig{}); err == nil {
		t.Error("Expected error for unknown layout")
	}
}

func TestLayoutNormalization(t *testing.T) {
	positions := map[int]Position{
		0: {X: -100, Y: -100},
		1: {X: 100, Y: 100},
		2: {X: 0, Y: 0},
	}

	normalized := normalizePositions(positions, 800, 600, 50)

	if normalized[0] != (Position{X: 50, Y: 50}) {
		t.Errorf("Expected min corner at padding, got %+v", normalized[0])
	}
	if normalized[1] != (Position{X: 750, Y: 550}) {
		t.Errorf("Expected max corner at size minus padding, got %+v", normalized[1])
	}
	if normalized[2] != (Position{X: 400, Y: 300}) {
		t.Errorf("Expected center, got %+v", normalized[2])
	}
}

func TestNeighbors(t *testing.T) {
	v := chainView()
	v.Edges = append(v.Edges,
		storygraph.ViewEdge{From: 1, To: 0, Label: model.Involved},
		storygraph.ViewEdge{From: 3, To: 3, Label: model.Involved})

	adj := neighbors(v)
	if len(adj[0]) != 1 || adj[0][0] != 1 {
		t.Errorf("Expected node 0 adjacent to [1], got %v", adj[0])
	}
	if len(adj[1]) != 2 || adj[1][0] != 0 || adj[1][1] != 2 {
		t.Errorf("Expected node 1 adjacent to [0 2], got %v", adj[1])
	}
	if len(adj[3]) != 0 {
		t.Errorf("Self-loops should not count, got %v", adj[3])
	}
}

func distance(p1, p2 Position) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(dx*dx + dy*dy)
}
