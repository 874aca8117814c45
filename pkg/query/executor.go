// Package query executes a Cypher subset against the embedded graph store.
package query

import (
	"context"
	"maps"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// Writer receives the writes of a CREATE clause. Both *storage.GraphStorage
// and *storage.Transaction satisfy it.
type Writer interface {
	CreateNode(labels []string, properties map[string]any) (*storage.Node, error)
	CreateEdge(fromID, toID uint64, edgeType string, properties map[string]any) (*storage.Edge, error)
}

// Executor executes parsed queries against a graph
type Executor struct {
	graph  *storage.GraphStorage
	logger logging.Logger
	now    func() time.Time
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the executor logger
func WithLogger(l logging.Logger) Option {
	return func(e *Executor) { e.logger = logging.OrNop(l) }
}

// NewExecutor creates a new query executor
func NewExecutor(graph *storage.GraphStorage, opts ...Option) *Executor {
	e := &Executor{
		graph:  graph,
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("query"))
	return e
}

// Result holds the projected rows of a query. Values are scalars, lists,
// *storage.Node or *storage.Edge.
type Result struct {
	Columns []string
	Rows    [][]any
	Stats   Stats
}

// Stats counts the writes a query performed
type Stats struct {
	NodesCreated         int
	RelationshipsCreated int
}

// Record returns row i keyed by column
func (r *Result) Record(i int) map[string]any {
	rec := make(map[string]any, len(r.Columns))
	for j, col := range r.Columns {
		rec[col] = r.Rows[i][j]
	}
	return rec
}

// Execute parses and runs a query, writing directly to the store
func (e *Executor) Execute(ctx context.Context, cypher string, params map[string]any) (*Result, error) {
	return e.ExecuteWith(ctx, e.graph, cypher, params)
}

// ExecuteWith parses and runs a query, sending CREATE writes to w
func (e *Executor) ExecuteWith(ctx context.Context, w Writer, cypher string, params map[string]any) (*Result, error) {
	q, err := Parse(cypher)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, w, q, params)
}

// Run executes a parsed query
func (e *Executor) Run(ctx context.Context, w Writer, q *Query, params map[string]any) (*Result, error) {
	start := time.Now()
	if params == nil {
		params = map[string]any{}
	}
	ec := &evalContext{params: params, exec: e}

	rows := []map[string]any{{}}
	var err error

	if q.Match != nil {
		if rows, err = e.match(ctx, ec, rows, q.Match.Patterns); err != nil {
			return nil, err
		}
	}

	if q.Where != nil {
		if rows, err = e.filter(ctx, ec, rows, q.Where.Expression); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	if q.Create != nil {
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if rows[i], err = e.create(ec, w, row, q.Create.Patterns, &result.Stats); err != nil {
				return nil, err
			}
		}
	}

	if q.Return != nil {
		projected, err := e.project(ctx, ec, rows, q.Return)
		if err != nil {
			return nil, err
		}
		projected.Stats = result.Stats
		result = projected
	}

	e.logger.Debug("query executed",
		logging.Count(len(result.Rows)),
		logging.Int("nodes_created", result.Stats.NodesCreated),
		logging.Int("relationships_created", result.Stats.RelationshipsCreated),
		logging.Latency(time.Since(start)))
	return result, nil
}

func (e *Executor) filter(ctx context.Context, ec *evalContext, rows []map[string]any, where Expression) ([]map[string]any, error) {
	kept := rows[:0:0]
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := where.Eval(ec.with(row))
		if err != nil {
			return nil, err
		}
		ok, err := truthy(v)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

// with returns a context evaluating against row
func (ec *evalContext) with(row map[string]any) *evalContext {
	return &evalContext{row: row, params: ec.params, exec: ec.exec}
}

// evalProperties evaluates an inline map or a $param map. Null entries are
// kept so that callers can decide what they mean.
func evalProperties(ec *evalContext, pm *PropertyMap) (map[string]any, error) {
	if pm == nil {
		return nil, nil
	}
	if pm.Param != "" {
		raw, ok := ec.params[pm.Param]
		if !ok {
			return nil, (&ParameterExpression{Name: pm.Param}).missing()
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, typeError("parameter $%s must be a map, got %T", pm.Param, raw)
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = normalizeParam(v)
		}
		return out, nil
	}
	out := make(map[string]any, len(pm.Entries))
	for _, entry := range pm.Entries {
		v, err := entry.Value.Eval(ec)
		if err != nil {
			return nil, err
		}
		out[entry.Key] = v
	}
	return out, nil
}

func cloneRow(row map[string]any) map[string]any {
	return maps.Clone(row)
}
