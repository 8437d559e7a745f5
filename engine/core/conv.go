package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseAnyInt parses an integer from the forms JSON decoding can produce.
// Returns false when unsupported or lossy.
func ParseAnyInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
		return 0, false
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		if iv, err := strconv.Atoi(t); err == nil {
			return iv, true
		}
		return 0, false
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ParseAnyFloat parses a float from the forms JSON decoding can produce.
func ParseAnyFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		if fv, err := strconv.ParseFloat(t, 64); err == nil {
			return fv, true
		}
		return 0, false
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ToIntSlice converts JSON-decoded list forms into []int, skipping
// elements that do not parse as integers.
func ToIntSlice(v any) []int {
	switch t := v.(type) {
	case []int:
		out := make([]int, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]int, 0, len(t))
		for _, e := range t {
			if n, ok := ParseAnyInt(e); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}

// ToStringSlice converts JSON-decoded list forms into []string, skipping
// non-string elements. Unsupported inputs return nil.
func ToStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
