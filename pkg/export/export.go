// Package export writes story graphs as GraphML, DOT, JSON and HTML
// artifacts to a local directory or an S3 bucket.
package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
	"github.com/Go-Global/storygraph-v0/pkg/visualization"
)

// Format is an artifact format
type Format string

const (
	FormatGraphML Format = "graphml"
	FormatDOT     Format = "dot"
	FormatJSON    Format = "json"
	FormatHTML    Format = "html"
)

// Formats lists every supported format
var Formats = []Format{FormatGraphML, FormatDOT, FormatJSON, FormatHTML}

// ParseFormat accepts a format name in any case
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) extension() string {
	if f == FormatGraphML {
		return ".xml"
	}
	return "." + string(f)
}

func (f Format) contentType() string {
	switch f {
	case FormatGraphML:
		return "application/xml"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Exporter renders a story graph and stores the artifacts in a sink
type Exporter struct {
	sink   Sink
	render visualization.RenderOptions
	logger logging.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithLogger sets the exporter logger
func WithLogger(l logging.Logger) Option {
	return func(e *Exporter) { e.logger = logging.OrNop(l) }
}

// WithRenderOptions configures the HTML artifact
func WithRenderOptions(opts visualization.RenderOptions) Option {
	return func(e *Exporter) { e.render = opts }
}

// NewExporter creates an exporter writing to sink
func NewExporter(sink Sink, opts ...Option) *Exporter {
	e := &Exporter{sink: sink, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("export"))
	return e
}

// Export writes one artifact per format, named after the graph title, and
// returns their locations in format order.
func (e *Exporter) Export(ctx context.Context, g *storygraph.StoryGraph, formats ...Format) ([]string, error) {
	if len(formats) == 0 {
		formats = Formats
	}
	view := g.View()
	base := FileName(g.Title)

	locations := make([]string, 0, len(formats))
	for _, f := range formats {
		var buf bytes.Buffer
		if err := e.write(&buf, g, view, f); err != nil {
			return locations, fmt.Errorf("export %s: %w", f, err)
		}
		loc, err := e.sink.Put(ctx, base+f.extension(), f.contentType(), buf.Bytes())
		if err != nil {
			return locations, fmt.Errorf("export %s: %w", f, err)
		}
		e.logger.Info("exported graph",
			logging.String("format", string(f)),
			logging.Path(loc),
			logging.Int("bytes", buf.Len()))
		locations = append(locations, loc)
	}
	return locations, nil
}

func (e *Exporter) write(buf *bytes.Buffer, g *storygraph.StoryGraph, v *storygraph.View, f Format) error {
	switch f {
	case FormatGraphML:
		return WriteGraphML(buf, v)
	case FormatDOT:
		return WriteDOT(buf, v)
	case FormatJSON:
		return WriteJSON(buf, g)
	case FormatHTML:
		opts := e.render
		if opts.Logger == nil {
			opts.Logger = e.logger
		}
		return visualization.RenderHTML(buf, v, opts)
	}
	return fmt.Errorf("unknown export format %q", f)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName turns a graph title into a file name stem
func FileName(title string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(title, "_"), "_.")
	if name == "" {
		return "graph"
	}
	return name
}
