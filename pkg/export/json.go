package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// jsonGraph holds the store projection of every node and edge, so a graph
// read back with ReadJSON keeps its types, keys and attributes.
type jsonGraph struct {
	Title string           `json:"title"`
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

// timeProps are decoded back into time.Time
var timeProps = map[string]bool{
	model.PropDateProcessed: true,
	model.PropTime:          true,
}

// WriteJSON writes the graph as an indented JSON document
func WriteJSON(w io.Writer, g *storygraph.StoryGraph) error {
	out := jsonGraph{
		Title: g.Title,
		Nodes: make([]map[string]any, 0, g.NodeCount()),
		Edges: make([]map[string]any, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, n.Properties())
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, e.Properties())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ReadJSON reads a graph written by WriteJSON. Integral numbers come back
// as int64 and the node and edge time properties as time.Time.
func ReadJSON(r io.Reader, opts ...storygraph.Option) (*storygraph.StoryGraph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var in jsonGraph
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode graph json: %w", err)
	}

	nodes := make([]*model.Node, 0, len(in.Nodes))
	for i, props := range in.Nodes {
		props, err := decodeProps(props)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		typeName, _ := props[model.PropType].(string)
		typ, err := model.ParseNodeType(typeName)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		n, err := model.NodeFromProperties(typ, props)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}

	edges := make([]*model.Edge, 0, len(in.Edges))
	for i, props := range in.Edges {
		props, err := decodeProps(props)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		e, err := edgeFromProperties(props)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		edges = append(edges, e)
	}

	g := storygraph.New(in.Title, opts...)
	if err := g.Load(nodes, edges); err != nil {
		return nil, err
	}
	return g, nil
}

func edgeFromProperties(props map[string]any) (*model.Edge, error) {
	str := func(k string) string {
		s, _ := props[k].(string)
		return s
	}

	label, err := model.ParseLabel(str(model.PropLabel))
	if err != nil {
		return nil, err
	}
	srcType, err := model.ParseNodeType(str(model.PropSourceNodeType))
	if err != nil {
		return nil, err
	}
	dstType, err := model.ParseNodeType(str(model.PropDestNodeType))
	if err != nil {
		return nil, err
	}

	opts := []model.EdgeOption{}
	if t, ok := props[model.PropTime].(time.Time); ok {
		opts = append(opts, model.WithTime(t))
	}
	if kind := str(model.PropInteractionType); kind != "" {
		opts = append(opts, model.WithInteractionType(kind))
	}

	attrs := make(map[string]any)
	for k, v := range props {
		switch k {
		case model.PropLabel, model.PropSourceKey, model.PropSourceNodeType,
			model.PropDestKey, model.PropDestNodeType, model.PropTime, model.PropInteractionType:
		default:
			attrs[k] = v
		}
	}
	opts = append(opts, model.WithAttrs(attrs))

	return model.NewEdge(label,
		model.Endpoint{Key: str(model.PropSourceKey), Type: srcType},
		model.Endpoint{Key: str(model.PropDestKey), Type: dstType},
		opts...)
}

func decodeProps(props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		v, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if s, ok := v.(string); ok && timeProps[k] {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			v = t
		}
		out[k] = v
	}
	return out, nil
}

func decodeValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			el, err := decodeValue(el)
			if err != nil {
				return nil, err
			}
			out[i] = el
		}
		return out, nil
	}
	return v, nil
}
