package visualization

import (
	"fmt"

	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for initial placement; same seed, same layout
}

// Layout computes a position for every node of a view, keyed by node id
type Layout interface {
	ComputeLayout(v *storygraph.View) (map[int]Position, error)
}

// Layout names accepted by NewLayout
const (
	LayoutForce        = "force"
	LayoutHierarchical = "hierarchical"
	LayoutCircular     = "circular"
)

// NewLayout returns the layout registered under name
func NewLayout(name string, config *LayoutConfig) (Layout, error) {
	switch name {
	case LayoutForce, "":
		return NewForceDirectedLayout(config), nil
	case LayoutHierarchical:
		return NewHierarchicalLayout(config), nil
	case LayoutCircular:
		return NewCircularLayout(config), nil
	}
	return nil, fmt.Errorf("unknown layout %q", name)
}
