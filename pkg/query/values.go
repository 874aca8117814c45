package query

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

// toFloat widens a numeric value
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// normalizeParam widens Go integer kinds supplied as parameters to int64.
func normalizeParam(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// toList turns a list value into []any. Typed slices from properties and
// parameters are accepted.
func toList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = normalizeParam(rv.Index(i).Interface())
	}
	return out, true
}

// compareValues orders two values of a comparable kind. ok is false when
// the kinds cannot be compared.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			if ia, aInt := a.(int64); aInt {
				if ib, bInt := b.(int64); bInt {
					return cmp.Compare(ia, ib), true
				}
			}
			return cmp.Compare(fa, fb), true
		}
		return 0, false
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	}
	return 0, false
}

// equalValues implements = for non-null values
func equalValues(a, b any) bool {
	switch x := a.(type) {
	case *storage.Node:
		y, ok := b.(*storage.Node)
		return ok && x.ID == y.ID
	case *storage.Edge:
		y, ok := b.(*storage.Edge)
		return ok && x.ID == y.ID
	}
	if la, ok := toList(a); ok {
		lb, ok := toList(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !equalValues(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return false
}

// orderValues sorts values for ORDER BY: nulls last, then by kind, then by
// value within a kind.
func orderValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		default:
			return -1
		}
	}
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return cmp.Compare(kindRank(a), kindRank(b))
}

func kindRank(v any) int {
	switch v.(type) {
	case *storage.Node:
		return 0
	case *storage.Edge:
		return 1
	case string:
		return 3
	case bool:
		return 4
	case int64, int, float64:
		return 5
	case time.Time:
		return 6
	}
	return 2
}

// distinctKey renders a value so that equal values produce equal keys
func distinctKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *storage.Node:
		return fmt.Sprintf("node:%d", x.ID)
	case *storage.Edge:
		return fmt.Sprintf("edge:%d", x.ID)
	case time.Time:
		return "time:" + x.UTC().Format(time.RFC3339Nano)
	case string:
		return "str:" + x
	}
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("num:%g", f)
	}
	if l, ok := toList(v); ok {
		var sb strings.Builder
		sb.WriteString("[")
		for _, el := range l {
			sb.WriteString(distinctKey(el))
			sb.WriteString(",")
		}
		sb.WriteString("]")
		return sb.String()
	}
	return fmt.Sprintf("%T:%v", v, v)
}
