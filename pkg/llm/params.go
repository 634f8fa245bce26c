package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Parameter keys understood by the built-in providers.
const (
	ParamModel            = "model"
	ParamTemperature      = "temperature"
	ParamMaxTokens        = "max_tokens"
	ParamTopP             = "top_p"
	ParamFrequencyPenalty = "frequency_penalty"
	ParamPresencePenalty  = "presence_penalty"
	ParamStop             = "stop"
)

// Params holds generation parameters keyed by name.
type Params map[string]any

// MergeParams returns a new map holding defaults overlaid with overrides.
// Keys present in overrides win; neither input is modified.
func MergeParams(defaults, overrides Params) Params {
	out := make(Params, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	return MergeParams(p, nil)
}

// Has reports whether key is set to a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the value of key as a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Model returns the model name, or "" when unset.
func (p Params) Model() string {
	s, _ := p.String(ParamModel)
	return s
}

// Float returns the value of key as a float64. Integer, json.Number and
// numeric string values are converted.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns the value of key as an int; fractional values are truncated.
func (p Params) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, true
		}
	}
	f, ok := p.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Strings returns the value of key as a string slice. A single string is
// returned as a one-element slice.
func (p Params) Strings(key string) ([]string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case string:
		return []string{t}, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	default:
		return nil, false
	}
}

// FloatPtr returns a pointer to the float value of key, or nil when unset.
// Used for request fields that must be omitted rather than defaulted.
func (p Params) FloatPtr(key string) *float64 {
	f, ok := p.Float(key)
	if !ok {
		return nil
	}
	return &f
}
