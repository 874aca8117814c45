// Package storygraph holds an extracted story graph: nodes keyed by natural
// key and a set of edges ordered by (label, source key, dest key).
package storygraph

import (
	"errors"
	"fmt"

	"github.com/tidwall/btree"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/model"
)

// ErrAlreadyLoaded is returned by a second Load.
var ErrAlreadyLoaded = errors.New("story graph already loaded")

// StoryGraph is built once with Load and read afterwards. Attribute values
// of its nodes may still be annotated in place.
type StoryGraph struct {
	Title string

	nodes  *btree.Map[string, *model.Node]
	edges  *btree.BTreeG[*model.Edge]
	loaded bool
	logger logging.Logger
}

// Option configures a StoryGraph.
type Option func(*StoryGraph)

// WithLogger sets the logger used to report skipped edges.
func WithLogger(l logging.Logger) Option {
	return func(g *StoryGraph) { g.logger = l }
}

func edgeLess(a, b *model.Edge) bool {
	return a.Key().Compare(b.Key()) < 0
}

// New creates an empty story graph.
func New(title string, opts ...Option) *StoryGraph {
	g := &StoryGraph{
		Title:  title,
		nodes:  new(btree.Map[string, *model.Node]),
		edges:  btree.NewBTreeG(edgeLess),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load fills the graph. The same node object may be listed more than once;
// two different nodes with one key are rejected. Duplicate edges collapse,
// keeping the first. Nothing is stored when Load fails.
func (g *StoryGraph) Load(nodes []*model.Node, edges []*model.Edge) error {
	if g.loaded {
		return ErrAlreadyLoaded
	}

	staged := new(btree.Map[string, *model.Node])
	for _, n := range nodes {
		if n == nil {
			return &model.ValidationError{Field: "nodes", Reason: "nil node"}
		}
		if prev, ok := staged.Get(n.Key); ok && prev != n {
			return &model.ValidationError{Field: model.PropKey, Value: n.Key, Reason: fmt.Sprintf("duplicate node key %q", n.Key)}
		}
		staged.Set(n.Key, n)
	}

	stagedEdges := btree.NewBTreeG(edgeLess)
	for _, e := range edges {
		if e == nil {
			return &model.ValidationError{Field: "edges", Reason: "nil edge"}
		}
		if _, exists := stagedEdges.Get(e); !exists {
			stagedEdges.Set(e)
		}
	}

	g.nodes = staged
	g.edges = stagedEdges
	g.loaded = true
	return nil
}

// Node returns the node with the given key.
func (g *StoryGraph) Node(key string) (*model.Node, bool) {
	return g.nodes.Get(key)
}

// Nodes returns all nodes ordered by key.
func (g *StoryGraph) Nodes() []*model.Node {
	out := make([]*model.Node, 0, g.nodes.Len())
	g.nodes.Scan(func(_ string, n *model.Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Edges returns all edges in (label, source key, dest key) order.
func (g *StoryGraph) Edges() []*model.Edge {
	return g.edges.Items()
}

// NodeCount returns the number of nodes.
func (g *StoryGraph) NodeCount() int { return g.nodes.Len() }

// EdgeCount returns the number of edges.
func (g *StoryGraph) EdgeCount() int { return g.edges.Len() }

// Loaded reports whether Load has succeeded.
func (g *StoryGraph) Loaded() bool { return g.loaded }

// Merge returns a new graph holding the union of g and others by natural
// key. When a key appears more than once the first node wins and its
// attribute sets absorb the others'. Used to combine graphs extracted from
// separate documents. The inputs are left untouched: the merged graph owns
// copies of every node and edge.
func Merge(title string, graphs ...*StoryGraph) (*StoryGraph, error) {
	var nodes []*model.Node
	byKey := make(map[string]*model.Node)
	var edges []*model.Edge

	for _, g := range graphs {
		for _, n := range g.Nodes() {
			if prev, ok := byKey[n.Key]; ok {
				if prev.Type != n.Type {
					return nil, &model.ValidationError{Field: model.PropKey, Value: n.Key,
						Reason: fmt.Sprintf("key used by %s and %s nodes", prev.Type, n.Type)}
				}
				prev.Attrs.Union(n.Attrs)
				continue
			}
			c := *n
			c.Attrs = n.Attrs.Clone()
			byKey[n.Key] = &c
			nodes = append(nodes, &c)
		}
		for _, e := range g.Edges() {
			c := *e
			c.Attrs = e.Attrs.Clone()
			edges = append(edges, &c)
		}
	}

	merged := New(title)
	if len(graphs) > 0 {
		merged.logger = graphs[0].logger
	}
	if err := merged.Load(nodes, edges); err != nil {
		return nil, err
	}
	return merged, nil
}
