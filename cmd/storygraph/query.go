package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/Go-Global/storygraph-v0/pkg/constraints"
	"github.com/Go-Global/storygraph-v0/pkg/graphsync"
	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// errViolations marks a graph that failed an Error-severity constraint
var errViolations = errors.New("graph violates constraints")

func queryCommand() *command {
	var params stringList
	return &command{
		name:    "query",
		summary: "Run a read-only Cypher query against the graph store",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			params = nil
			fs.Var(&params, "param", "query parameter as name=value (repeatable)")
			return func(*app) error { return nil }
		},
		run: func(ctx context.Context, a *app, args []string) error {
			cypher := strings.TrimSpace(strings.Join(args, " "))
			if cypher == "" {
				return fmt.Errorf("%w: a query is required", errUsage)
			}
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			d, err := a.openDriver(ctx)
			defer d.Close(ctx)
			if err != nil {
				return err
			}
			records, err := d.RawQuery(ctx, cypher, p)
			if err != nil {
				return err
			}
			printRecords(a.stdout, records)
			return nil
		},
	}
}

// parseParams reads name=value pairs. Values are typed as integer, float,
// boolean or string, in that order.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: parameter %q is not name=value", errUsage, pair)
		}
		params[name] = paramValue(raw)
	}
	return params, nil
}

func paramValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func checkCommand() *command {
	var in string
	return &command{
		name:    "check",
		summary: "Validate a graph against the story graph constraints",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			fs.StringVar(&in, "in", "", "graph JSON to check (default: the embedded store data dir)")
			return func(*app) error { return nil }
		},
		run: func(ctx context.Context, a *app, args []string) error {
			gs, err := a.storageFor(ctx, in)
			if err != nil {
				return err
			}
			defer gs.Close()

			v := constraints.NewValidator(a.logger)
			v.AddConstraints(constraints.StoryGraphConstraints())
			result, err := v.Validate(gs)
			if err != nil {
				return err
			}
			printViolations(a.stdout, result)
			if len(result.GetViolationsBySeverity(constraints.Error)) > 0 {
				return errViolations
			}
			return nil
		},
	}
}

// storageFor returns the storage to inspect. A JSON graph is synchronized
// into a fresh in-memory store first, exactly as an upload would store it.
func (a *app) storageFor(ctx context.Context, in string) (*storage.GraphStorage, error) {
	if in == "" {
		if a.cfg.Store.DataDir == "" {
			return nil, fmt.Errorf("%w: -in or store.data_dir is required", errUsage)
		}
		return storage.NewGraphStorageWithConfig(storage.StorageConfig{
			DataDir: a.cfg.Store.DataDir,
			Logger:  a.logger,
			Metrics: a.metrics,
		})
	}

	g, err := readGraph(in, a)
	if err != nil {
		return nil, err
	}
	gs, err := storage.NewGraphStorage("")
	if err != nil {
		return nil, err
	}
	d := graphsync.NewDriver(graphsync.NewEmbeddedStore(gs, a.logger),
		graphsync.WithLogger(a.logger), graphsync.WithMetrics(a.metrics))
	if _, err := d.UploadGraph(ctx, g); err != nil {
		return nil, err
	}
	return gs, nil
}
