package graphsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/validation"
)

// QueryNode returns the stored node of type typ with key. A missing node
// is ErrNotFound.
func (d *Driver) QueryNode(ctx context.Context, typ model.NodeType, key string) (*model.Node, error) {
	if err := validation.ValidateIdentifier(string(typ)); err != nil {
		return nil, err
	}
	records, err := d.read(ctx, "query_node",
		"MATCH (n:"+string(typ)+" {key: $key}) RETURN n LIMIT 1", map[string]any{"key": key})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %q: %w", typ, key, ErrNotFound)
	}
	nodes, err := nodesOf(records)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s %q: %w", typ, key, ErrNotFound)
	}
	return nodes[0], nil
}

// QueryNodesByKey returns the stored nodes of any type whose key is in
// keys, ordered by key. Missing keys are left out.
func (d *Driver) QueryNodesByKey(ctx context.Context, keys []string) ([]*model.Node, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	records, err := d.read(ctx, "query_nodes_by_key",
		"MATCH (n) WHERE n.key IN $keys RETURN n ORDER BY n.key", map[string]any{"keys": keys})
	if err != nil {
		return nil, err
	}
	return nodesOf(records)
}

func nodesOf(records []Record) ([]*model.Node, error) {
	var nodes []*model.Node
	for _, rec := range records {
		models, err := RecordToModels(rec)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			if n, ok := m.(*model.Node); ok {
				nodes = append(nodes, n)
			}
		}
	}
	return nodes, nil
}

// StructuredQuery is a MATCH ... WHERE ... RETURN ... LIMIT query given by
// its parts. Where may be empty; Limit 0 means no limit.
type StructuredQuery struct {
	Match  string         `validate:"required"`
	Where  string
	Return string         `validate:"required"`
	Limit  int            `validate:"gte=0"`
	Params map[string]any
}

// Cypher assembles the query text
func (q StructuredQuery) Cypher() string {
	var sb strings.Builder
	sb.WriteString("MATCH ")
	sb.WriteString(q.Match)
	if q.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.Where)
	}
	sb.WriteString(" RETURN ")
	sb.WriteString(q.Return)
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	return sb.String()
}

// StructuredQuery runs a read-only structured query
func (d *Driver) StructuredQuery(ctx context.Context, q StructuredQuery) ([]Record, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	return d.read(ctx, "structured_query", q.Cypher(), q.Params)
}

// RawQuery runs a read-only query as given
func (d *Driver) RawQuery(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	return d.read(ctx, "raw_query", cypher, params)
}

// FormatTimeRange builds an inclusive WHERE predicate over field. With
// neither bound it returns "". With both bounds start must be before end.
func FormatTimeRange(field string, start, end *time.Time) (string, error) {
	bound := func(op string, t *time.Time) string {
		return fmt.Sprintf("%s %s datetime('%s')", field, op, t.UTC().Format(time.RFC3339))
	}

	switch {
	case start == nil && end == nil:
		return "", nil
	case end == nil:
		return bound(">=", start), nil
	case start == nil:
		return bound("<=", end), nil
	}
	if !start.Before(*end) {
		return "", &RangeError{Field: field, Start: *start, End: *end}
	}
	return bound(">=", start) + " AND " + bound("<=", end), nil
}

// Ping runs a trivial read to check the store answers
func (d *Driver) Ping(ctx context.Context) error {
	_, err := d.read(ctx, "ping", "RETURN 1 AS ok", nil)
	return err
}
