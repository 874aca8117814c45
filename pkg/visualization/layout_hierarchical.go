package visualization

import (
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// HierarchicalLayout arranges nodes in levels: nodes without incoming
// edges first, then breadth-first along outgoing edges
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config}
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(v *storygraph.View) (map[int]Position, error) {
	positions := make(map[int]Position)
	if len(v.Nodes) == 0 {
		return positions, nil
	}

	// Find root nodes (nodes with no incoming edges)
	hasIncoming := make([]bool, len(v.Nodes))
	outgoing := make([][]int, len(v.Nodes))
	for _, e := range v.Edges {
		outgoing[e.From] = append(outgoing[e.From], e.To)
		if e.From != e.To {
			hasIncoming[e.To] = true
		}
	}
	roots := make([]int, 0)
	for _, node := range v.Nodes {
		if !hasIncoming[node.ID] {
			roots = append(roots, node.ID)
		}
	}
	if len(roots) == 0 {
		// No clear root, use first node
		roots = []int{v.Nodes[0].ID}
	}

	// Build levels using BFS
	levels := make([][]int, 0)
	visited := make([]bool, len(v.Nodes))
	for _, r := range roots {
		visited[r] = true
	}
	currentLevel := roots

	for len(currentLevel) > 0 {
		levels = append(levels, currentLevel)
		nextLevel := make([]int, 0)

		for _, id := range currentLevel {
			for _, to := range outgoing[id] {
				if !visited[to] {
					visited[to] = true
					nextLevel = append(nextLevel, to)
				}
			}
		}

		currentLevel = nextLevel
	}

	// Nodes only reachable through a cycle go to the last level
	for _, node := range v.Nodes {
		if !visited[node.ID] {
			levels[len(levels)-1] = append(levels[len(levels)-1], node.ID)
		}
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, id := range level {
			positions[id] = Position{X: hl.config.Padding + spacing*float64(nodeIdx+1), Y: y}
		}
	}

	return positions, nil
}
