package export

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// dotNode is a view node in the gonum graph, identified in DOT by its key
type dotNode struct {
	id   int64
	node storygraph.ViewNode
}

func (n dotNode) ID() int64     { return n.id }
func (n dotNode) DOTID() string { return n.node.Key }

func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: n.node.Title},
		{Key: "type", Value: string(n.node.Type)},
	}
}

// dotLine is one labelled edge. Lines between the same pair of nodes are
// kept apart by id, so parallel edges and self-loops survive.
type dotLine struct {
	id       int64
	from, to dotNode
	label    string
}

func (l dotLine) From() graph.Node { return l.from }
func (l dotLine) To() graph.Node   { return l.to }
func (l dotLine) ID() int64        { return l.id }

func (l dotLine) ReversedLine() graph.Line {
	return dotLine{id: l.id, from: l.to, to: l.from, label: l.label}
}

func (l dotLine) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: l.label}}
}

// WriteDOT writes the view as a directed Graphviz multigraph
func WriteDOT(w io.Writer, v *storygraph.View) error {
	g := multi.NewDirectedGraph()
	nodes := make([]dotNode, len(v.Nodes))
	for i, n := range v.Nodes {
		nodes[i] = dotNode{id: int64(n.ID), node: n}
		g.AddNode(nodes[i])
	}
	for i, e := range v.Edges {
		g.SetLine(dotLine{id: int64(i), from: nodes[e.From], to: nodes[e.To], label: string(e.Label)})
	}

	b, err := dot.MarshalMulti(g, v.Title, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dot: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
