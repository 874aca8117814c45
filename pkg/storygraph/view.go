package storygraph

import (
	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/model"
)

// ViewNode is a node of the display graph.
type ViewNode struct {
	ID    int
	Key   string
	Title string
	Type  model.NodeType
	Attrs model.Attrs
}

// ViewEdge is an edge of the display graph.
type ViewEdge struct {
	From  int
	To    int
	Label model.Label
	Attrs model.Attrs
}

// View is a derived, renderer-friendly form of a story graph: integer ids
// assigned in node-key order.
type View struct {
	Title string
	Nodes []ViewNode
	Edges []ViewEdge
}

// View builds the display graph. It may be called any number of times and
// always yields the same result for the same graph. Edges whose endpoints
// are not part of the graph are left out.
func (g *StoryGraph) View() *View {
	v := &View{Title: g.Title}
	ids := make(map[string]int, g.nodes.Len())

	for _, n := range g.Nodes() {
		id := len(v.Nodes)
		ids[n.Key] = id
		v.Nodes = append(v.Nodes, ViewNode{ID: id, Key: n.Key, Title: n.Title, Type: n.Type, Attrs: n.Attrs.Clone()})
	}

	for _, e := range g.Edges() {
		from, okFrom := ids[e.Source.Key]
		to, okTo := ids[e.Dest.Key]
		if !okFrom || !okTo {
			g.logger.Debug("edge endpoint outside graph",
				logging.EdgeLabel(string(e.Label)),
				logging.String("source_key", e.Source.Key),
				logging.String("dest_key", e.Dest.Key))
			continue
		}
		v.Edges = append(v.Edges, ViewEdge{From: from, To: to, Label: e.Label, Attrs: e.Attrs.Clone()})
	}
	return v
}

// Outgoing returns the ids of nodes reachable by one edge from id.
func (v *View) Outgoing(id int) []int {
	var out []int
	for _, e := range v.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}
