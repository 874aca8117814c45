package visualization

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// RenderOptions configures RenderHTML
type RenderOptions struct {
	Layout string // force (default), hierarchical or circular
	Width  float64
	Height float64
	Seed   int64
	Logger logging.Logger
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width == 0 {
		o.Width = 1500
	}
	if o.Height == 0 {
		o.Height = 600
	}
	if o.Layout == "" {
		o.Layout = LayoutForce
	}
	return o
}

// visNode and visEdge are the vis-network DataSet items
type visNode struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	Title string  `json:"title"`
	Group string  `json:"group"`
	Shape string  `json:"shape"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type visEdge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Label  string `json:"label"`
	Arrows string `json:"arrows"`
}

type page struct {
	Title  string
	Width  int
	Height int
	Nodes  []visNode
	Edges  []visEdge
}

var pageTemplate = template.Must(template.New("storygraph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"></script>
<style>
  body { font-family: sans-serif; }
  #graph { width: {{.Width}}px; height: {{.Height}}px; border: 1px solid #ccc; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="graph"></div>
<script>
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  new vis.Network(document.getElementById("graph"), {nodes: nodes, edges: edges}, {
    physics: false,
    edges: {font: {size: 10}, smooth: false}
  });
</script>
</body>
</html>
`))

// RenderHTML writes a self-contained HTML page that draws the view with
// vis-network. Positions are computed here, so the browser does no
// physics and the same view renders identically.
func RenderHTML(w io.Writer, v *storygraph.View, opts RenderOptions) error {
	opts = opts.withDefaults()
	logger := logging.OrNop(opts.Logger).With(logging.Component("visualization"))

	layout, err := NewLayout(opts.Layout, &LayoutConfig{Width: opts.Width, Height: opts.Height, Seed: opts.Seed})
	if err != nil {
		return err
	}
	positions, err := layout.ComputeLayout(v)
	if err != nil {
		return fmt.Errorf("layout %s: %w", opts.Layout, err)
	}

	p := page{
		Title:  v.Title,
		Width:  int(opts.Width),
		Height: int(opts.Height),
		Nodes:  make([]visNode, 0, len(v.Nodes)),
		Edges:  make([]visEdge, 0, len(v.Edges)),
	}
	for _, n := range v.Nodes {
		pos := positions[n.ID]
		p.Nodes = append(p.Nodes, visNode{
			ID:    n.ID,
			Label: n.Title,
			Title: tooltip(n),
			Group: string(n.Type),
			Shape: "dot",
			X:     pos.X,
			Y:     pos.Y,
		})
	}
	for _, e := range v.Edges {
		p.Edges = append(p.Edges, visEdge{From: e.From, To: e.To, Label: string(e.Label), Arrows: "to"})
	}

	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	logger.Debug("rendered html",
		logging.String("layout", opts.Layout),
		logging.Int("nodes", len(p.Nodes)),
		logging.Int("edges", len(p.Edges)))
	return nil
}

// tooltip lists the node key and attributes, one per line, sorted by name
func tooltip(n storygraph.ViewNode) string {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", n.Key, n.Type)
	for _, k := range names {
		fmt.Fprintf(&sb, "\n%s: %v", k, n.Attrs[k])
	}
	return sb.String()
}
