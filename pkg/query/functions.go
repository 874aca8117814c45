package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Go-Global/storygraph-v0/pkg/storage"
)

type function func(ctx *evalContext, args []any) (any, error)

// functions holds the scalar functions, keyed by lower-case name
var functions = map[string]function{
	"datetime":  fnDatetime,
	"date":      fnDate,
	"tolower":   stringFunction("toLower", strings.ToLower),
	"toupper":   stringFunction("toUpper", strings.ToUpper),
	"trim":      stringFunction("trim", strings.TrimSpace),
	"id":        fnID,
	"elementid": fnElementID,
	"labels":    fnLabels,
	"type":      fnType,
	"keys":      fnKeys,
	"size":      fnSize,
	"coalesce":  fnCoalesce,
	"tostring":  fnToString,
}

func arity(name string, args []any, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return typeError("%s expects %d argument(s), got %d", name, min, len(args))
		}
		return typeError("%s expects %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// fnDatetime parses an ISO 8601 string; with no argument it returns the
// current time.
func fnDatetime(ctx *evalContext, args []any) (any, error) {
	if err := arity("datetime", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return ctx.exec.now().UTC(), nil
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	case string:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, typeError("datetime: cannot parse %q", v)
	}
	return nil, typeError("datetime expects a string, got %T", args[0])
}

// fnDate truncates to midnight UTC of the given day
func fnDate(ctx *evalContext, args []any) (any, error) {
	if err := arity("date", args, 0, 1); err != nil {
		return nil, err
	}
	v, err := fnDatetime(ctx, args)
	if err != nil || v == nil {
		return v, err
	}
	t := v.(time.Time).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func stringFunction(name string, f func(string) string) function {
	return func(_ *evalContext, args []any) (any, error) {
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return f(v), nil
		}
		return nil, typeError("%s expects a string, got %T", name, args[0])
	}
}

func fnID(_ *evalContext, args []any) (any, error) {
	if err := arity("id", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case *storage.Node:
		return int64(v.ID), nil
	case *storage.Edge:
		return int64(v.ID), nil
	}
	return nil, typeError("id expects a node or relationship, got %T", args[0])
}

func fnElementID(ctx *evalContext, args []any) (any, error) {
	id, err := fnID(ctx, args)
	if err != nil || id == nil {
		return id, err
	}
	return strconv.FormatInt(id.(int64), 10), nil
}

func fnLabels(_ *evalContext, args []any) (any, error) {
	if err := arity("labels", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case *storage.Node:
		out := make([]any, len(v.Labels))
		for i, l := range v.Labels {
			out[i] = l
		}
		return out, nil
	}
	return nil, typeError("labels expects a node, got %T", args[0])
}

func fnType(_ *evalContext, args []any) (any, error) {
	if err := arity("type", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case *storage.Edge:
		return v.Type, nil
	}
	return nil, typeError("type expects a relationship, got %T", args[0])
}

func fnKeys(_ *evalContext, args []any) (any, error) {
	if err := arity("keys", args, 1, 1); err != nil {
		return nil, err
	}
	var props map[string]any
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case *storage.Node:
		props = v.Properties
	case *storage.Edge:
		props = v.Properties
	case map[string]any:
		props = v
	default:
		return nil, typeError("keys expects a node, relationship or map, got %T", args[0])
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out, nil
}

func fnSize(_ *evalContext, args []any) (any, error) {
	if err := arity("size", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return int64(utf8.RuneCountInString(v)), nil
	}
	if l, ok := toList(args[0]); ok {
		return int64(len(l)), nil
	}
	return nil, typeError("size expects a string or list, got %T", args[0])
}

func fnCoalesce(_ *evalContext, args []any) (any, error) {
	for _, a := range args {
		if a != nil {
			return a, nil
		}
	}
	return nil, nil
}

func fnToString(_ *evalContext, args []any) (any, error) {
	if err := arity("toString", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case int64, float64, bool:
		return fmt.Sprint(v), nil
	}
	return nil, typeError("toString cannot convert %T", args[0])
}
