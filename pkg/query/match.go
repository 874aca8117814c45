package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// match expands every row by every pattern in turn. Patterns share
// variables, so a later pattern sees the bindings of earlier ones.
func (e *Executor) match(ctx context.Context, ec *evalContext, rows []map[string]any, patterns []*Pattern) ([]map[string]any, error) {
	for _, pattern := range patterns {
		var next []map[string]any
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			matched, err := e.matchPattern(ec, row, pattern)
			if err != nil {
				return nil, err
			}
			next = append(next, matched...)
		}
		rows = next
		if len(rows) == 0 {
			return rows, nil
		}
	}
	return rows, nil
}

// matchPattern returns every extension of row that binds the pattern. A
// relationship is used at most once per pattern.
func (e *Executor) matchPattern(ec *evalContext, row map[string]any, pattern *Pattern) ([]map[string]any, error) {
	first := pattern.Nodes[0]
	candidates, err := e.candidates(ec.with(row), first)
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	var walk func(i int, row map[string]any, current *storage.Node, used map[uint64]bool) error
	walk = func(i int, row map[string]any, current *storage.Node, used map[uint64]bool) error {
		if i == len(pattern.Relationships) {
			results = append(results, row)
			return nil
		}
		rel := pattern.Relationships[i]
		target := pattern.Nodes[i+1]

		relProps, err := evalProperties(ec.with(row), rel.Properties)
		if err != nil {
			return err
		}

		edges, err := e.adjacent(current.ID, rel.Direction)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if used[edge.ID] || (rel.Type != "" && edge.Type != rel.Type) {
				continue
			}
			if !propertiesMatch(edge.Properties, relProps) {
				continue
			}
			if rel.Variable != "" {
				if bound, ok := row[rel.Variable]; ok {
					if be, ok := bound.(*storage.Edge); !ok || be.ID != edge.ID {
						continue
					}
				}
			}

			otherID := edge.FromNodeID
			if edge.FromNodeID == current.ID {
				otherID = edge.ToNodeID
			}
			other, err := e.graph.GetNode(otherID)
			if err != nil {
				return err
			}

			nextRow := cloneRow(row)
			if rel.Variable != "" {
				nextRow[rel.Variable] = edge
			}
			ok, err := e.bindNode(ec.with(nextRow), nextRow, target, other)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			nextUsed := make(map[uint64]bool, len(used)+1)
			for id := range used {
				nextUsed[id] = true
			}
			nextUsed[edge.ID] = true
			if err := walk(i+1, nextRow, other, nextUsed); err != nil {
				return err
			}
		}
		return nil
	}

	for _, n := range candidates {
		nextRow := cloneRow(row)
		ok, err := e.bindNode(ec.with(nextRow), nextRow, first, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := walk(0, nextRow, n, map[uint64]bool{}); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// candidates lists nodes that may bind the first node of a pattern,
// using a property lookup when the pattern names a label and a value.
func (e *Executor) candidates(ec *evalContext, np *NodePattern) ([]*storage.Node, error) {
	if np.Variable != "" {
		if bound, ok := ec.row[np.Variable]; ok {
			n, ok := bound.(*storage.Node)
			if !ok {
				return nil, typeError("variable %s is not a node", np.Variable)
			}
			return []*storage.Node{n}, nil
		}
	}
	if len(np.Labels) == 0 {
		return e.graph.AllNodes(), nil
	}

	props, err := evalProperties(ec, np.Properties)
	if err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(props) {
		if v := props[key]; v != nil {
			return e.graph.FindNodesByProperty(np.Labels[0], key, v), nil
		}
	}
	return e.graph.FindNodesByLabel(np.Labels[0]), nil
}

// bindNode checks n against a node pattern and binds its variable in row
func (e *Executor) bindNode(ec *evalContext, row map[string]any, np *NodePattern, n *storage.Node) (bool, error) {
	if np.Variable != "" {
		if bound, ok := row[np.Variable]; ok {
			bn, ok := bound.(*storage.Node)
			if !ok {
				return false, typeError("variable %s is not a node", np.Variable)
			}
			if bn.ID != n.ID {
				return false, nil
			}
		}
	}
	for _, label := range np.Labels {
		if !n.HasLabel(label) {
			return false, nil
		}
	}
	props, err := evalProperties(ec, np.Properties)
	if err != nil {
		return false, err
	}
	if !propertiesMatch(n.Properties, props) {
		return false, nil
	}
	if np.Variable != "" {
		row[np.Variable] = n
	}
	return true, nil
}

// propertiesMatch reports whether every wanted property equals the stored
// one. A null in the pattern never matches.
func propertiesMatch(have, want map[string]any) bool {
	for k, v := range want {
		if v == nil {
			return false
		}
		hv, ok := have[k]
		if !ok || !equalValues(hv, v) {
			return false
		}
	}
	return true
}

// adjacent returns the edges of a node in the requested direction. An
// undirected pattern lists a self-loop once.
func (e *Executor) adjacent(nodeID uint64, dir Direction) ([]*storage.Edge, error) {
	switch dir {
	case DirectionOutgoing:
		return e.graph.GetOutgoingEdges(nodeID)
	case DirectionIncoming:
		return e.graph.GetIncomingEdges(nodeID)
	}
	out, err := e.graph.GetOutgoingEdges(nodeID)
	if err != nil {
		return nil, err
	}
	in, err := e.graph.GetIncomingEdges(nodeID)
	if err != nil {
		return nil, err
	}
	for _, edge := range in {
		if edge.FromNodeID != edge.ToNodeID {
			out = append(out, edge)
		}
	}
	return out, nil
}

// create runs the CREATE patterns once for a row. Bound variables are
// reused; unbound ones create nodes.
func (e *Executor) create(ec *evalContext, w Writer, row map[string]any, patterns []*Pattern, stats *Stats) (map[string]any, error) {
	row = cloneRow(row)
	for _, pattern := range patterns {
		nodes := make([]*storage.Node, len(pattern.Nodes))
		for i, np := range pattern.Nodes {
			if np.Variable != "" {
				if bound, ok := row[np.Variable]; ok {
					n, ok := bound.(*storage.Node)
					if !ok {
						return nil, typeError("variable %s is not a node", np.Variable)
					}
					if len(np.Labels) > 0 || np.Properties != nil {
						return nil, fmt.Errorf("%w: variable %s is already bound and cannot be redeclared", ErrSyntax, np.Variable)
					}
					nodes[i] = n
					continue
				}
			}

			props, err := evalProperties(ec.with(row), np.Properties)
			if err != nil {
				return nil, err
			}
			n, err := w.CreateNode(np.Labels, withoutNulls(props))
			if err != nil {
				return nil, err
			}
			stats.NodesCreated++
			nodes[i] = n
			if np.Variable != "" {
				row[np.Variable] = n
			}
		}

		for i, rel := range pattern.Relationships {
			if rel.Type == "" {
				return nil, fmt.Errorf("%w: CREATE needs a relationship type", ErrSyntax)
			}
			from, to := nodes[i], nodes[i+1]
			switch rel.Direction {
			case DirectionIncoming:
				from, to = to, from
			case DirectionBoth:
				return nil, fmt.Errorf("%w: CREATE needs a directed relationship", ErrSyntax)
			}
			props, err := evalProperties(ec.with(row), rel.Properties)
			if err != nil {
				return nil, err
			}
			edge, err := w.CreateEdge(from.ID, to.ID, rel.Type, withoutNulls(props))
			if err != nil {
				return nil, err
			}
			stats.RelationshipsCreated++
			if rel.Variable != "" {
				row[rel.Variable] = edge
			}
		}
	}
	return row, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withoutNulls(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
