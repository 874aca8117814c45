package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/Go-Global/storygraph-v0/pkg/algorithms"
	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

func statsCommand() *command {
	var (
		in   string
		top  int
		kind string
	)
	return &command{
		name:    "stats",
		summary: "Rank the central nodes of a graph and count its components",
		flags: func(fs *flag.FlagSet) func(a *app) error {
			fs.StringVar(&in, "in", "", "graph JSON to inspect (default: the embedded store data dir)")
			fs.IntVar(&top, "top", 10, "number of nodes to list")
			fs.StringVar(&kind, "type", string(model.Entity), "node type to rank; empty ranks every type")
			return func(*app) error {
				if top <= 0 {
					return fmt.Errorf("-top must be positive")
				}
				if kind != "" {
					if _, err := model.ParseNodeType(kind); err != nil {
						return err
					}
				}
				return nil
			}
		},
		run: func(ctx context.Context, a *app, args []string) error {
			gs, err := a.storageFor(ctx, in)
			if err != nil {
				return err
			}
			defer gs.Close()
			return printStats(a.stdout, gs, top, kind)
		},
	}
}

func printStats(w io.Writer, gs *storage.GraphStorage, top int, kind string) error {
	pr, err := algorithms.PageRank(gs, algorithms.DefaultPageRankOptions())
	if err != nil {
		return err
	}
	degree, err := algorithms.DegreeCentrality(gs)
	if err != nil {
		return err
	}
	components, err := algorithms.ConnectedComponents(gs)
	if err != nil {
		return err
	}

	ranked := algorithms.Top(gs, pr.Scores, len(pr.Scores))
	if kind != "" {
		ranked = algorithms.Filter(ranked, kind)
	}
	if len(ranked) > top {
		ranked = ranked[:top]
	}

	t := newTable("#", "key", "type", "title", "pagerank", "degree")
	for i, rn := range ranked {
		key, _ := rn.Node.Properties[model.PropKey].(string)
		title, _ := rn.Node.Properties[model.PropTitle].(string)
		typ, _ := rn.Node.Properties[model.PropType].(string)
		t.Row(fmt.Sprint(i+1), key, typ, title,
			fmt.Sprintf("%.4f", rn.Score), fmt.Sprintf("%.3f", degree[rn.NodeID]))
	}
	fmt.Fprintln(w, t.Render())

	sizes := make([]int, len(components.Communities))
	for i, c := range components.Communities {
		sizes[i] = c.Size
	}
	fmt.Fprintf(w, "%d node(s), %d component(s), sizes %v\n", len(pr.Scores), len(components.Communities), sizes)
	if !pr.Converged {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("pagerank did not converge after %d iterations", pr.Iterations)))
	}
	return nil
}
