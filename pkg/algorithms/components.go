package algorithms

import (
	"cmp"
	"slices"
)

// ConnectedComponents groups nodes reachable from one another ignoring
// edge direction. Communities are ordered largest first; their ids follow
// that order.
func ConnectedComponents(graph GraphReader) (*CommunityDetectionResult, error) {
	visited := make(map[uint64]bool)
	communities := make([]*Community, 0)

	for _, start := range nodeIDs(graph) {
		if visited[start] {
			continue
		}

		component := &Community{}
		queue := []uint64{start}
		visited[start] = true

		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			component.Nodes = append(component.Nodes, id)

			outEdges, err := graph.GetOutgoingEdges(id)
			if err != nil {
				return nil, err
			}
			inEdges, err := graph.GetIncomingEdges(id)
			if err != nil {
				return nil, err
			}
			for _, edge := range outEdges {
				if !visited[edge.ToNodeID] {
					visited[edge.ToNodeID] = true
					queue = append(queue, edge.ToNodeID)
				}
			}
			for _, edge := range inEdges {
				if !visited[edge.FromNodeID] {
					visited[edge.FromNodeID] = true
					queue = append(queue, edge.FromNodeID)
				}
			}
		}

		slices.Sort(component.Nodes)
		component.Size = len(component.Nodes)
		communities = append(communities, component)
	}

	slices.SortStableFunc(communities, func(a, b *Community) int {
		return cmp.Compare(b.Size, a.Size)
	})
	nodeCommunity := make(map[uint64]int)
	for i, c := range communities {
		c.ID = i
		for _, id := range c.Nodes {
			nodeCommunity[id] = i
		}
	}

	return &CommunityDetectionResult{
		Communities:   communities,
		NodeCommunity: nodeCommunity,
	}, nil
}
