package query

import (
	"context"
	"fmt"
	"sort"
)

// projected is one output row together with the scope ORDER BY sees
type projected struct {
	values []any
	scope  *evalContext
}

// project evaluates the RETURN clause over the matched rows
func (e *Executor) project(ctx context.Context, ec *evalContext, rows []map[string]any, ret *ReturnClause) (*Result, error) {
	result := &Result{Columns: make([]string, len(ret.Items))}
	for i, item := range ret.Items {
		result.Columns[i] = item.Column()
	}

	var aggs []*FunctionCall
	for _, item := range ret.Items {
		aggs = collectAggregates(item.Expression, aggs)
	}
	for _, ob := range ret.OrderBy {
		aggs = collectAggregates(ob.Expression, aggs)
	}

	var out []projected
	var err error
	if len(aggs) == 0 {
		out, err = e.projectRows(ctx, ec, rows, ret)
	} else {
		out, err = e.projectGroups(ctx, ec, rows, ret, aggs)
	}
	if err != nil {
		return nil, err
	}

	if ret.Distinct {
		seen := make(map[string]bool, len(out))
		kept := out[:0]
		for _, p := range out {
			k := distinctKey(p.values)
			if seen[k] {
				continue
			}
			seen[k] = true
			kept = append(kept, p)
		}
		out = kept
	}

	if len(ret.OrderBy) > 0 {
		if err := orderRows(out, ret.OrderBy); err != nil {
			return nil, err
		}
	}

	skip, err := e.bound(ec, ret.Skip, "SKIP")
	if err != nil {
		return nil, err
	}
	limit, err := e.bound(ec, ret.Limit, "LIMIT")
	if err != nil {
		return nil, err
	}
	if skip > 0 {
		if skip >= int64(len(out)) {
			out = nil
		} else {
			out = out[skip:]
		}
	}
	if ret.Limit != nil && limit < int64(len(out)) {
		out = out[:limit]
	}

	result.Rows = make([][]any, len(out))
	for i, p := range out {
		result.Rows[i] = p.values
	}
	return result, nil
}

func (e *Executor) projectRows(ctx context.Context, ec *evalContext, rows []map[string]any, ret *ReturnClause) ([]projected, error) {
	out := make([]projected, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scope := ec.with(cloneRow(row))
		values, err := evalItems(scope, ret.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, projected{values: values, scope: scope})
	}
	return out, nil
}

type group struct {
	first map[string]any
	rows  []map[string]any
}

// projectGroups groups rows by the non-aggregate items, in first-seen
// order. Without grouping keys there is always exactly one group, so a
// count over nothing yields 0 rather than no row.
func (e *Executor) projectGroups(ctx context.Context, ec *evalContext, rows []map[string]any, ret *ReturnClause, aggs []*FunctionCall) ([]projected, error) {
	var keyItems []*ReturnItem
	for _, item := range ret.Items {
		if !containsAggregate(item.Expression) {
			keyItems = append(keyItems, item)
		}
	}

	var groups []*group
	index := make(map[string]*group)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys, err := evalItems(ec.with(row), keyItems)
		if err != nil {
			return nil, err
		}
		k := distinctKey(keys)
		g, ok := index[k]
		if !ok {
			g = &group{first: row}
			index[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	if len(groups) == 0 && len(keyItems) == 0 {
		groups = append(groups, &group{first: map[string]any{}})
	}

	out := make([]projected, 0, len(groups))
	for _, g := range groups {
		values := make(map[Expression]any, len(aggs))
		for _, agg := range aggs {
			v, err := aggregate(ec, agg, g.rows)
			if err != nil {
				return nil, err
			}
			values[agg] = v
		}
		scope := ec.with(cloneRow(g.first))
		scope.aggregates = values
		items, err := evalItems(scope, ret.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, projected{values: items, scope: scope})
	}
	return out, nil
}

// aggregate computes count(*), count(x) or count(DISTINCT x) over rows
func aggregate(ec *evalContext, fc *FunctionCall, rows []map[string]any) (any, error) {
	if fc.Star {
		return int64(len(rows)), nil
	}
	if len(fc.Args) != 1 {
		return nil, fmt.Errorf("%w: count expects 1 argument, got %d", ErrType, len(fc.Args))
	}
	if containsAggregate(fc.Args[0]) {
		return nil, typeError("aggregates cannot be nested")
	}
	var n int64
	seen := make(map[string]bool)
	for _, row := range rows {
		v, err := fc.Args[0].Eval(ec.with(row))
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if fc.Distinct {
			k := distinctKey(v)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		n++
	}
	return n, nil
}

// evalItems evaluates the items in scope and binds their aliases so that
// ORDER BY can refer to them
func evalItems(scope *evalContext, items []*ReturnItem) ([]any, error) {
	values := make([]any, len(items))
	for i, item := range items {
		v, err := item.Expression.Eval(scope)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	for i, item := range items {
		if item.Alias != "" && scope.row != nil {
			scope.row[item.Alias] = values[i]
		}
	}
	return values, nil
}

func orderRows(out []projected, orderBy []*OrderByItem) error {
	keys := make([][]any, len(out))
	for i, p := range out {
		keys[i] = make([]any, len(orderBy))
		for j, ob := range orderBy {
			v, err := ob.Expression.Eval(p.scope)
			if err != nil {
				return err
			}
			keys[i][j] = v
		}
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for j, ob := range orderBy {
			c := orderValues(keys[idx[a]][j], keys[idx[b]][j])
			if c == 0 {
				continue
			}
			if ob.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]projected, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	copy(out, sorted)
	return nil
}

// bound evaluates a SKIP or LIMIT expression to a non-negative count
func (e *Executor) bound(ec *evalContext, expr Expression, clause string) (int64, error) {
	if expr == nil {
		return 0, nil
	}
	v, err := expr.Eval(ec.with(map[string]any{}))
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return 0, typeError("%s must not be negative, got %d", clause, n)
		}
		return n, nil
	case float64:
		if n < 0 || n != float64(int64(n)) {
			return 0, typeError("%s must be a non-negative integer, got %v", clause, n)
		}
		return int64(n), nil
	}
	return 0, typeError("%s must be an integer, got %T", clause, v)
}

// collectAggregates appends every aggregate call in e to aggs
func collectAggregates(e Expression, aggs []*FunctionCall) []*FunctionCall {
	switch x := e.(type) {
	case *FunctionCall:
		if isAggregate(x) {
			return append(aggs, x)
		}
		for _, a := range x.Args {
			aggs = collectAggregates(a, aggs)
		}
	case *BinaryExpression:
		aggs = collectAggregates(x.Left, aggs)
		aggs = collectAggregates(x.Right, aggs)
	case *UnaryExpression:
		aggs = collectAggregates(x.Operand, aggs)
	case *ListExpression:
		for _, el := range x.Elements {
			aggs = collectAggregates(el, aggs)
		}
	}
	return aggs
}
