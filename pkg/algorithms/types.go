// Package algorithms ranks and groups the nodes of a synchronized story
// graph: who the story is about and which parts of it hang together.
package algorithms

import (
	"slices"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// GraphReader is the read side of a graph store. *storage.GraphStorage
// satisfies it.
type GraphReader interface {
	GetNode(nodeID uint64) (*storage.Node, error)
	AllNodes() []*storage.Node
	GetOutgoingEdges(nodeID uint64) ([]*storage.Edge, error)
	GetIncomingEdges(nodeID uint64) ([]*storage.Edge, error)
}

// RankedNode represents a node with its score
type RankedNode struct {
	NodeID uint64
	Score  float64
	Node   *storage.Node
}

// Community represents a group of connected nodes
type Community struct {
	ID    int
	Nodes []uint64
	Size  int
}

// CommunityDetectionResult contains detected communities
type CommunityDetectionResult struct {
	Communities   []*Community
	NodeCommunity map[uint64]int // Node ID -> Community ID
}

// nodeIDs lists node ids in ascending order so results do not depend on
// map iteration
func nodeIDs(graph GraphReader) []uint64 {
	nodes := graph.AllNodes()
	ids := make([]uint64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	slices.Sort(ids)
	return ids
}

// Filter keeps the ranked nodes carrying label
func Filter(ranked []RankedNode, label string) []RankedNode {
	out := make([]RankedNode, 0, len(ranked))
	for _, rn := range ranked {
		if rn.Node != nil && slices.Contains(rn.Node.Labels, label) {
			out = append(out, rn)
		}
	}
	return out
}
