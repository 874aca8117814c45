package model

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"time"
)

// Attrs is a flat attribute map whose values are store primitives: string,
// int64, float64, bool, time.Time, or a homogeneous slice of one of those.
type Attrs map[string]any

// Flatten joins nested maps into underscore-separated keys and normalizes
// every leaf into a store primitive. Slices of scalars of a single kind are
// kept as typed slices; any other slice is expanded by index. A leaf that
// cannot be stored fails with a *ValidationError.
func Flatten(in map[string]any) (Attrs, error) {
	out := make(Attrs, len(in))
	if err := flattenInto(out, "", reflect.ValueOf(in)); err != nil {
		return nil, err
	}
	return out, nil
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func flattenInto(out Attrs, prefix string, v reflect.Value) error {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return invalid(prefix, v.Interface(), "map keys must be strings")
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if err := flattenInto(out, joinKey(prefix, k.String()), v.MapIndex(k)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return invalid(prefix, v.Interface(), "byte slices are not storable")
		}
		if typed, ok, err := homogeneous(prefix, v); err != nil {
			return err
		} else if ok {
			out[prefix] = typed
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := flattenInto(out, joinKey(prefix, strconv.Itoa(i)), v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}

	if prefix == "" {
		return invalid("", nil, "attribute name cannot be empty")
	}
	scalar, err := normalizeScalar(prefix, v)
	if err != nil {
		return err
	}
	out[prefix] = scalar
	return nil
}

// normalizeScalar converts a leaf value into its canonical primitive form.
func normalizeScalar(field string, v reflect.Value) (any, error) {
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, invalid(field, nil, "null values are not storable")
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t, nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, invalid(field, v.Interface(), "unsigned value overflows int64")
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	}
	return nil, invalid(field, v.Interface(), "type %s is not a primitive", v.Type())
}

// homogeneous returns a typed slice when every element of v is a scalar of
// the same kind. Empty slices become an empty []string.
func homogeneous(field string, v reflect.Value) (any, bool, error) {
	n := v.Len()
	if n == 0 {
		return []string{}, true, nil
	}

	elems := make([]any, n)
	for i := 0; i < n; i++ {
		e := v.Index(i)
		for e.Kind() == reflect.Interface && !e.IsNil() {
			e = e.Elem()
		}
		switch e.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			return nil, false, nil
		}
		s, err := normalizeScalar(fmt.Sprintf("%s_%d", field, i), e)
		if err != nil {
			return nil, false, err
		}
		elems[i] = s
	}

	switch elems[0].(type) {
	case string:
		return collect[string](elems)
	case int64:
		return collect[int64](elems)
	case float64:
		return collect[float64](elems)
	case bool:
		return collect[bool](elems)
	case time.Time:
		return collect[time.Time](elems)
	}
	return nil, false, nil
}

func collect[T any](elems []any) (any, bool, error) {
	out := make([]T, len(elems))
	for i, e := range elems {
		v, ok := e.(T)
		if !ok {
			return nil, false, nil
		}
		out[i] = v
	}
	return out, true, nil
}

// IsPrimitive reports whether v can be stored as-is.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case string, int64, float64, bool, time.Time,
		[]string, []int64, []float64, []bool, []time.Time:
		return true
	}
	return false
}

// Clone returns a copy that shares no slices with a.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		switch s := v.(type) {
		case []string:
			out[k] = slices.Clone(s)
		case []int64:
			out[k] = slices.Clone(s)
		case []float64:
			out[k] = slices.Clone(s)
		case []bool:
			out[k] = slices.Clone(s)
		case []time.Time:
			out[k] = slices.Clone(s)
		default:
			out[k] = v
		}
	}
	return out
}

// AddToSet appends value to the string set stored under key unless it is
// already present. A non-set value under key is replaced.
func (a Attrs) AddToSet(key, value string) {
	set, _ := a[key].([]string)
	if slices.Contains(set, value) {
		return
	}
	a[key] = append(set, value)
}

// StringSet returns the string set stored under key.
func (a Attrs) StringSet(key string) []string {
	set, _ := a[key].([]string)
	return set
}

// Union merges other into a. String sets are unioned keeping first-seen
// order; any other key present in both keeps the value already in a.
func (a Attrs) Union(other Attrs) {
	for k, v := range other {
		incoming, isSet := v.([]string)
		existing, exists := a[k]
		if !exists {
			if isSet {
				a[k] = slices.Clone(incoming)
			} else {
				a[k] = v
			}
			continue
		}
		if _, ok := existing.([]string); ok && isSet {
			for _, s := range incoming {
				a.AddToSet(k, s)
			}
		}
	}
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
