package algorithms

// DegreeCentrality computes degree centrality for all nodes: in-degree plus
// out-degree over the number of other nodes.
func DegreeCentrality(graph GraphReader) (map[uint64]float64, error) {
	ids := nodeIDs(graph)
	degree := make(map[uint64]float64, len(ids))

	for _, id := range ids {
		inEdges, err := graph.GetIncomingEdges(id)
		if err != nil {
			return nil, err
		}
		outEdges, err := graph.GetOutgoingEdges(id)
		if err != nil {
			return nil, err
		}
		if len(ids) > 1 {
			degree[id] = float64(len(inEdges)+len(outEdges)) / float64(len(ids)-1)
		} else {
			degree[id] = 0
		}
	}

	return degree, nil
}
