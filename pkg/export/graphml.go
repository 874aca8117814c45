package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	ID     string        `xml:"id,attr"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// keySet collects the attribute keys of one domain (node or edge)
type keySet struct {
	domain string
	types  map[string]string
}

func newKeySet(domain string) *keySet {
	return &keySet{domain: domain, types: make(map[string]string)}
}

func (ks *keySet) id(name string) string {
	return ks.domain[:1] + "_" + name
}

// data converts attributes to <data> elements, registering their keys.
// A name seen with two different types falls back to string.
func (ks *keySet) data(attrs map[string]any) []graphMLData {
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]graphMLData, 0, len(names))
	for _, name := range names {
		typ, text := graphMLValue(attrs[name])
		if prev, ok := ks.types[name]; ok && prev != typ {
			typ = "string"
		}
		ks.types[name] = typ
		out = append(out, graphMLData{Key: ks.id(name), Value: text})
	}
	return out
}

func (ks *keySet) keys() []graphMLKey {
	names := make([]string, 0, len(ks.types))
	for k := range ks.types {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]graphMLKey, 0, len(names))
	for _, name := range names {
		out = append(out, graphMLKey{ID: ks.id(name), For: ks.domain, AttrName: name, AttrType: ks.types[name]})
	}
	return out
}

// graphMLValue maps a store primitive to a GraphML attr.type and its text
func graphMLValue(v any) (string, string) {
	switch x := v.(type) {
	case string:
		return "string", x
	case bool:
		return "boolean", fmt.Sprint(x)
	case int, int64:
		return "long", fmt.Sprint(x)
	case float64:
		return "double", fmt.Sprint(x)
	case time.Time:
		return "string", x.UTC().Format(time.RFC3339)
	}
	// lists are written comma separated
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
		parts := make([]string, rv.Len())
		for i := range parts {
			_, parts[i] = graphMLValue(rv.Index(i).Interface())
		}
		return "string", strings.Join(parts, ",")
	}
	return "string", fmt.Sprint(v)
}

// WriteGraphML writes every node, with its key, title, type and flattened
// attributes, and every edge with its label and attributes.
func WriteGraphML(w io.Writer, v *storygraph.View) error {
	nodeKeys := newKeySet("node")
	edgeKeys := newKeySet("edge")

	g := graphMLGraph{ID: v.Title, EdgeDefault: "directed"}
	for _, n := range v.Nodes {
		attrs := make(map[string]any, len(n.Attrs)+3)
		for k, val := range n.Attrs {
			attrs[k] = val
		}
		attrs[model.PropKey] = n.Key
		attrs[model.PropTitle] = n.Title
		attrs[model.PropType] = string(n.Type)
		g.Nodes = append(g.Nodes, graphMLNode{ID: nodeID(n.ID), Data: nodeKeys.data(attrs)})
	}
	for i, e := range v.Edges {
		attrs := make(map[string]any, len(e.Attrs)+1)
		for k, val := range e.Attrs {
			attrs[k] = val
		}
		attrs[model.PropLabel] = string(e.Label)
		g.Edges = append(g.Edges, graphMLEdge{
			ID:     fmt.Sprintf("e%d", i),
			Source: nodeID(e.From),
			Target: nodeID(e.To),
			Data:   edgeKeys.data(attrs),
		})
	}

	doc := graphMLDoc{
		XMLNS: graphMLNamespace,
		Keys:  append(nodeKeys.keys(), edgeKeys.keys()...),
		Graph: g,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func nodeID(id int) string {
	return fmt.Sprintf("n%d", id)
}
