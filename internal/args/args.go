// Package args provides the nested argument maps handed down a plugin tree.
//
// A Map holds option values for a node. An entry whose key is the tag of one of
// the node's children and whose value is itself a Map is scoped to that child;
// every other entry is shared with all children.
package args

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Map is a node's argument store.
type Map map[string]any

// Merge returns a new map holding every entry of the given maps; later maps win per key.
func Merge(maps ...Map) Map {
	out := make(Map)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of m. Nested maps are copied, other values are shared.
func Clone(m Map) Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		if nested, ok := AsMap(v); ok {
			out[k] = Clone(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// Split separates in into the entries shared by every child (keys that are not
// child tags) and the map scoped to child tag. A scoped value that is not a
// mapping is reported as a ShapeError.
func Split(in Map, childTags []string, tag string) (shared, scoped Map, err error) {
	isChild := make(map[string]bool, len(childTags))
	for _, t := range childTags {
		isChild[t] = true
	}

	shared = make(Map)
	for k, v := range in {
		if !isChild[k] {
			shared[k] = v
		}
	}

	raw, present := in[tag]
	if !present {
		return shared, Map{}, nil
	}
	scoped, ok := AsMap(raw)
	if !ok {
		return nil, nil, &ShapeError{Key: tag, Got: fmt.Sprintf("expected a mapping, got %T", raw)}
	}
	return shared, scoped, nil
}

// AsMap converts the nested map shapes produced by decoders into a Map.
func AsMap(v any) (Map, bool) {
	switch m := v.(type) {
	case Map:
		return m, true
	case map[string]any:
		return Map(m), true
	case map[string]string:
		out := make(Map, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	case map[any]any:
		out := make(Map, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// FromPairs builds a nested map from dotted key=value pairs such as
// "disk.warn=80". Every dot descends one scope; the last segment is the option name.
func FromPairs(pairs map[string]string) (Map, error) {
	out := make(Map)
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts := strings.Split(key, ".")
		for _, p := range parts {
			if p == "" {
				return nil, &ShapeError{Key: key, Got: "empty path segment"}
			}
		}
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, exists := cur[p]
			if !exists {
				nested := make(Map)
				cur[p] = nested
				cur = nested
				continue
			}
			nested, ok := AsMap(next)
			if !ok {
				return nil, &ShapeError{Key: key, Got: fmt.Sprintf("%q is already a value", p)}
			}
			cur = nested
		}
		last := parts[len(parts)-1]
		if _, isScope := AsMap(cur[last]); isScope {
			return nil, &ShapeError{Key: key, Got: fmt.Sprintf("%q is already a scope", last)}
		}
		cur[last] = pairs[key]
	}
	return out, nil
}

// DeepMerge merges src into dst recursively: nested maps are merged, other
// values from src replace those in dst. dst is modified and returned.
func DeepMerge(dst, src Map) Map {
	if dst == nil {
		dst = make(Map)
	}
	for k, v := range src {
		srcNested, srcIsMap := AsMap(v)
		dstNested, dstIsMap := AsMap(dst[k])
		if srcIsMap && dstIsMap {
			dst[k] = DeepMerge(Clone(dstNested), srcNested)
			continue
		}
		dst[k] = v
	}
	return dst
}

// StringValue returns the value under key formatted as a string.
func (m Map) StringValue(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// StringOr returns the string value under key, or def when absent.
func (m Map) StringOr(key, def string) string {
	if s, ok := m.StringValue(key); ok {
		return s
	}
	return def
}

// Float returns the value under key as a float64.
func (m Map) Float(key string) (float64, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch x := v.(type) {
	case float64:
		return x, true, nil
	case float32:
		return float64(x), true, nil
	case int:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case uint64:
		return float64(x), true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, true, fmt.Errorf("argument %q: %w", key, err)
		}
		return f, true, nil
	}
	return 0, true, fmt.Errorf("argument %q: expected a number, got %T", key, v)
}

// Int returns the value under key as an int.
func (m Map) Int(key string) (int, bool, error) {
	f, ok, err := m.Float(key)
	return int(f), ok, err
}

// Bool returns the value under key as a bool.
func (m Map) Bool(key string) (bool, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, false, nil
	}
	switch x := v.(type) {
	case bool:
		return x, true, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, true, fmt.Errorf("argument %q: %w", key, err)
		}
		return b, true, nil
	}
	return false, true, fmt.Errorf("argument %q: expected a bool, got %T", key, v)
}

// Duration returns the value under key as a time.Duration. Bare numbers are seconds.
func (m Map) Duration(key string) (time.Duration, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch x := v.(type) {
	case time.Duration:
		return x, true, nil
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(x)); err == nil {
			return d, true, nil
		}
	}
	f, _, err := m.Float(key)
	if err != nil {
		return 0, true, fmt.Errorf("argument %q: expected a duration, got %v", key, v)
	}
	return time.Duration(f * float64(time.Second)), true, nil
}

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ShapeError reports an argument whose structure does not fit the tree.
type ShapeError struct {
	Key string
	Got string
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid argument shape for %q: %s", e.Key, e.Got)
}
