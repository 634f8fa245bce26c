package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Source gives read access to configuration by dotted key path, e.g.
// "providers.openai.api_key".
type Source interface {
	Lookup(path string) (any, bool)
}

// Store is a Source backed by a nested map. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewStore wraps data. Nested maps with non-string keys (as produced by some
// YAML documents) are normalized.
func NewStore(data map[string]any) *Store {
	if data == nil {
		data = map[string]any{}
	}
	norm, _ := normalize(data).(map[string]any)
	return &Store{data: norm}
}

// Lookup walks path one segment at a time.
func (s *Store) Lookup(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if path == "" {
		return s.data, true
	}
	var cur any = s.data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores v at path, creating intermediate maps as needed.
func (s *Store) Set(path string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(path, ".")
	m := s.data
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = normalize(v)
}

// Has reports whether path is present and non-nil.
func Has(src Source, path string) bool {
	v, ok := src.Lookup(path)
	return ok && v != nil
}

// String returns the value at path as a string, or def on miss.
func String(src Source, path, def string) string {
	v, ok := src.Lookup(path)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		return def
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the value at path as an int, or def on miss or when the value
// is not numeric.
func Int(src Source, path string, def int) int {
	v, ok := src.Lookup(path)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// Float returns the value at path as a float64, or def on miss or when the
// value is not numeric.
func Float(src Source, path string, def float64) float64 {
	v, ok := src.Lookup(path)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the value at path as a bool, or def on miss.
func Bool(src Source, path string, def bool) bool {
	v, ok := src.Lookup(path)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// Duration returns the value at path as a duration. Strings use
// time.ParseDuration syntax; bare numbers are seconds.
func Duration(src Source, path string, def time.Duration) time.Duration {
	v, ok := src.Lookup(path)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d
		}
		return def
	}
	if n := Float(src, path, -1); n >= 0 {
		return time.Duration(n * float64(time.Second))
	}
	return def
}

// StringMap returns the mapping at path with every value rendered as a
// string. Missing or non-map values yield an empty map.
func StringMap(src Source, path string) map[string]string {
	out := map[string]string{}
	v, ok := src.Lookup(path)
	if !ok {
		return out
	}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range m {
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(val)
	}
	return out
}

// Keys returns the sorted keys of the mapping at path.
func Keys(src Source, path string) []string {
	v, ok := src.Lookup(path)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Slice returns the list at path, or nil.
func Slice(src Source, path string) []any {
	v, ok := src.Lookup(path)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
