package graphsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
	"github.com/Go-Global/storygraph-v0/pkg/validation"
)

// UploadReport counts the outcome of an upload
type UploadReport struct {
	Total    int
	Inserted int
	Skipped  int
	Failed   int
}

// GraphReport is the outcome of UploadGraph
type GraphReport struct {
	Nodes UploadReport
	Edges UploadReport
}

func (d *Driver) recordItem(kind, result string) {
	if d.metrics != nil {
		d.metrics.RecordSyncItem(kind, result)
	}
}

// EnsureConstraints makes the store enforce unique keys for every node type
func (d *Driver) EnsureConstraints(ctx context.Context) error {
	if err := d.ready(); err != nil {
		return err
	}
	for _, t := range model.NodeTypes {
		err := d.call(ctx, "ensure_constraint", func(ctx context.Context) error {
			return d.store.EnsureUniqueKey(ctx, string(t), model.PropKey)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UploadNodes inserts every node whose (type, key) is not yet stored. A
// node that is already present is skipped, never updated. Per-node
// failures are counted and joined into the returned error.
func (d *Driver) UploadNodes(ctx context.Context, nodes []*model.Node) (UploadReport, error) {
	report := UploadReport{Total: len(nodes)}
	if err := d.ready(); err != nil {
		return report, err
	}

	var errs []error
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			report.Failed += report.Total - report.Inserted - report.Skipped - report.Failed
			break
		}

		inserted, err := d.uploadNode(ctx, n)
		switch {
		case err != nil:
			report.Failed++
			errs = append(errs, fmt.Errorf("node %s/%s: %w", n.Type, n.Key, err))
			d.recordItem("node", "failed")
		case inserted:
			report.Inserted++
			d.recordItem("node", "inserted")
		default:
			report.Skipped++
			d.recordItem("node", "skipped")
			d.logger.Debug("node already stored", logging.NodeType(string(n.Type)), logging.NodeKey(n.Key))
		}
	}

	d.logger.Info("nodes uploaded",
		logging.Int("total", report.Total),
		logging.Int("inserted", report.Inserted),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed))
	return report, errors.Join(errs...)
}

func (d *Driver) uploadNode(ctx context.Context, n *model.Node) (bool, error) {
	label := string(n.Type)
	if err := validation.ValidateIdentifier(label); err != nil {
		return false, err
	}
	match := "MATCH (n:" + label + " {key: $key}) RETURN n LIMIT 1"
	create := "CREATE (n:" + label + " $props)"

	inserted := false
	err := d.call(ctx, "upload_node", func(ctx context.Context) error {
		return d.store.Write(ctx, func(ctx context.Context, tx Tx) error {
			inserted = false
			existing, err := tx.Run(ctx, match, map[string]any{"key": n.Key})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return nil
			}
			if _, err := tx.Run(ctx, create, map[string]any{"props": n.Properties()}); err != nil {
				return err
			}
			inserted = true
			return nil
		})
	})
	if errors.Is(err, ErrDuplicate) {
		// another writer won the race between check and create
		return false, nil
	}
	return inserted, err
}

// UploadEdges inserts every edge whose (source, label, dest) is not yet
// stored. An edge whose endpoints are not both stored fails with
// ErrEndpointMissing.
func (d *Driver) UploadEdges(ctx context.Context, edges []*model.Edge) (UploadReport, error) {
	report := UploadReport{Total: len(edges)}
	if err := d.ready(); err != nil {
		return report, err
	}

	var errs []error
	for _, e := range edges {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			report.Failed += report.Total - report.Inserted - report.Skipped - report.Failed
			break
		}

		inserted, err := d.uploadEdge(ctx, e)
		switch {
		case err != nil:
			report.Failed++
			errs = append(errs, fmt.Errorf("edge %s %s->%s: %w", e.Label, e.Source.Key, e.Dest.Key, err))
			d.recordItem("edge", "failed")
		case inserted:
			report.Inserted++
			d.recordItem("edge", "inserted")
		default:
			report.Skipped++
			d.recordItem("edge", "skipped")
			d.logger.Debug("edge already stored", logging.EdgeLabel(string(e.Label)),
				logging.String("source", e.Source.Key), logging.String("dest", e.Dest.Key))
		}
	}

	d.logger.Info("edges uploaded",
		logging.Int("total", report.Total),
		logging.Int("inserted", report.Inserted),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed))
	return report, errors.Join(errs...)
}

func (d *Driver) uploadEdge(ctx context.Context, e *model.Edge) (bool, error) {
	for _, ident := range []string{string(e.Label), string(e.Source.Type), string(e.Dest.Type)} {
		if err := validation.ValidateIdentifier(ident); err != nil {
			return false, err
		}
	}
	src := "(s:" + string(e.Source.Type) + " {key: $source_key})"
	dst := "(d:" + string(e.Dest.Type) + " {key: $dest_key})"
	check := "MATCH " + src + "-[r:" + string(e.Label) + "]->" + dst + " RETURN count(r) AS n"
	create := "MATCH " + src + ", " + dst + " CREATE (s)-[r:" + string(e.Label) + " $props]->(d) RETURN count(r) AS created"
	params := map[string]any{"source_key": e.Source.Key, "dest_key": e.Dest.Key}

	inserted := false
	err := d.call(ctx, "upload_edge", func(ctx context.Context) error {
		return d.store.Write(ctx, func(ctx context.Context, tx Tx) error {
			inserted = false
			existing, err := tx.Run(ctx, check, params)
			if err != nil {
				return err
			}
			if countOf(existing, "n") > 0 {
				return nil
			}

			created, err := tx.Run(ctx, create, map[string]any{
				"source_key": e.Source.Key,
				"dest_key":   e.Dest.Key,
				"props":      e.Properties(),
			})
			if err != nil {
				return err
			}
			if countOf(created, "created") == 0 {
				return ErrEndpointMissing
			}
			inserted = true
			return nil
		})
	})
	return inserted, err
}

// countOf reads an integer column from the first record
func countOf(records []Record, column string) int64 {
	if len(records) == 0 {
		return 0
	}
	v, _ := records[0].Get(column)
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// UploadGraph ensures constraints, then uploads nodes before edges
func (d *Driver) UploadGraph(ctx context.Context, g *storygraph.StoryGraph) (GraphReport, error) {
	var report GraphReport
	if err := d.ready(); err != nil {
		return report, err
	}

	timer := logging.StartTimer(d.logger, "graph upload", logging.String("title", g.Title),
		logging.Int("nodes", g.NodeCount()), logging.Int("edges", g.EdgeCount()))

	if err := d.EnsureConstraints(ctx); err != nil {
		timer.EndError(err)
		return report, err
	}

	var errs []error
	var err error
	if report.Nodes, err = d.UploadNodes(ctx, g.Nodes()); err != nil {
		errs = append(errs, err)
	}
	if report.Edges, err = d.UploadEdges(ctx, g.Edges()); err != nil {
		errs = append(errs, err)
	}

	err = errors.Join(errs...)
	if err != nil {
		timer.EndError(err)
	} else {
		timer.End(logging.Int("nodes_inserted", report.Nodes.Inserted), logging.Int("edges_inserted", report.Edges.Inserted))
	}
	return report, err
}
