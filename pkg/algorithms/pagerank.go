package algorithms

import (
	"cmp"
	"math"
	"slices"
)

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Convergence threshold
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// PageRankResult contains PageRank scores for all nodes
type PageRankResult struct {
	Scores     map[uint64]float64 // Node ID -> PageRank score
	Iterations int
	Converged  bool
}

// PageRank computes PageRank scores for all nodes in the graph. Scores sum
// to 1. Rank held by nodes without outgoing edges is spread evenly.
func PageRank(graph GraphReader, opts PageRankOptions) (*PageRankResult, error) {
	ids := nodeIDs(graph)
	if len(ids) == 0 {
		return &PageRankResult{Scores: make(map[uint64]float64), Converged: true}, nil
	}
	n := float64(len(ids))

	scores := make(map[uint64]float64, len(ids))
	outDegree := make(map[uint64]int, len(ids))
	for _, id := range ids {
		scores[id] = 1.0 / n
		edges, err := graph.GetOutgoingEdges(id)
		if err != nil {
			return nil, err
		}
		outDegree[id] = len(edges)
	}

	newScores := make(map[uint64]float64, len(ids))
	converged := false
	iterations := 0

	for iterations < opts.MaxIterations {
		iterations++

		dangling := 0.0
		for _, id := range ids {
			if outDegree[id] == 0 {
				dangling += scores[id]
			}
		}
		base := (1.0-opts.DampingFactor)/n + opts.DampingFactor*dangling/n

		for _, id := range ids {
			score := base
			incoming, err := graph.GetIncomingEdges(id)
			if err != nil {
				return nil, err
			}
			for _, edge := range incoming {
				if out := outDegree[edge.FromNodeID]; out > 0 {
					score += opts.DampingFactor * scores[edge.FromNodeID] / float64(out)
				}
			}
			newScores[id] = score
		}

		maxDiff := 0.0
		for _, id := range ids {
			maxDiff = math.Max(maxDiff, math.Abs(newScores[id]-scores[id]))
		}
		scores, newScores = newScores, scores
		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if sum > 0 {
		for id := range scores {
			scores[id] /= sum
		}
	}

	return &PageRankResult{Scores: scores, Iterations: iterations, Converged: converged}, nil
}

// Top returns the n best scored nodes, highest first. Ties go to the lower
// node id.
func Top(graph GraphReader, scores map[uint64]float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}
	ranked := make([]RankedNode, 0, len(scores))
	for id, score := range scores {
		node, err := graph.GetNode(id)
		if err != nil {
			continue
		}
		ranked = append(ranked, RankedNode{NodeID: id, Score: score, Node: node})
	}
	slices.SortFunc(ranked, func(a, b RankedNode) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.NodeID, b.NodeID)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
