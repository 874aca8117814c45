package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/export"
	"github.com/Go-Global/storygraph-v0/pkg/graphsync"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
	"github.com/Go-Global/storygraph-v0/pkg/visualization"
)

// outputFlags override the output section of the config
type outputFlags struct {
	dir      string
	formats  string
	layout   string
	noExport bool
}

func (o *outputFlags) register(fs *flag.FlagSet, defaultFormats string) func(a *app) error {
	fs.StringVar(&o.dir, "out", "", "output directory (overrides output.dir)")
	fs.StringVar(&o.formats, "formats", defaultFormats, "comma separated export formats: graphml, dot, json, html")
	fs.StringVar(&o.layout, "layout", "", "html layout: force, hierarchical or circular")
	fs.BoolVar(&o.noExport, "no-export", false, "do not write any artifact")

	return func(a *app) error {
		if o.dir != "" {
			a.cfg.Output.Dir = o.dir
			a.cfg.Output.S3 = nil
		}
		if o.formats != "" {
			a.cfg.Output.Formats = strings.Split(o.formats, ",")
			for i := range a.cfg.Output.Formats {
				a.cfg.Output.Formats[i] = strings.TrimSpace(a.cfg.Output.Formats[i])
			}
		}
		if o.layout != "" {
			a.cfg.Output.Layout = o.layout
		}
		return a.cfg.Validate()
	}
}

// openDriver connects to the configured graph store. The driver is
// reported on the readiness endpoint while the command runs.
func (a *app) openDriver(ctx context.Context) (*graphsync.Driver, error) {
	gc := a.cfg.GraphsyncConfig(a.logger)
	gc.Metrics = a.metrics
	d, err := graphsync.Open(ctx, gc)

	a.mu.Lock()
	a.driver = d
	a.mu.Unlock()
	return d, err
}

func (a *app) openedDriver() *graphsync.Driver {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.driver
}

func (a *app) exporter(ctx context.Context) (*export.Exporter, error) {
	var sink export.Sink
	if s3cfg := a.cfg.Output.S3; s3cfg != nil {
		client, err := export.NewS3Client(ctx, *s3cfg)
		if err != nil {
			return nil, err
		}
		sink = export.NewS3Sink(client, s3cfg.Bucket, s3cfg.Prefix)
	} else {
		sink = export.NewFileSink(a.cfg.Output.Dir)
	}

	return export.NewExporter(sink,
		export.WithLogger(a.logger),
		export.WithRenderOptions(visualization.RenderOptions{
			Layout: a.cfg.Output.Layout,
			Seed:   a.cfg.Output.Seed,
		}),
	), nil
}

// finish exports and optionally uploads a freshly built graph, then prints
// its summary
func (a *app) finish(ctx context.Context, g *storygraph.StoryGraph, out *outputFlags, upload bool) error {
	var locations []string
	if !out.noExport {
		formats, err := a.cfg.ExportFormats()
		if err != nil {
			return err
		}
		exp, err := a.exporter(ctx)
		if err != nil {
			return err
		}
		if locations, err = exp.Export(ctx, g, formats...); err != nil {
			return err
		}
	}

	var report *graphsync.GraphReport
	var uploadErr error
	if upload {
		r, err := a.upload(ctx, g)
		report, uploadErr = &r, err
	}

	printSummary(a.stdout, g, locations, report)
	return uploadErr
}

func (a *app) upload(ctx context.Context, g *storygraph.StoryGraph) (graphsync.GraphReport, error) {
	d, err := a.openDriver(ctx)
	defer d.Close(ctx)
	if err != nil {
		return graphsync.GraphReport{}, err
	}
	return d.UploadGraph(ctx, g)
}

// readGraph loads a graph written by the json export
func readGraph(path string, a *app) (*storygraph.StoryGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := export.ReadJSON(f, storygraph.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
