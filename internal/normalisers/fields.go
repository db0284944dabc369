package normalisers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// lookup follows a dotted path through nested objects.
// Returns nil as soon as a step is missing or not an object.
func lookup(obj any, path string) any {
	for _, key := range strings.Split(path, ".") {
		m, ok := obj.(map[string]any)
		if !ok {
			return nil
		}
		obj = m[key]
	}
	return obj
}

// stringAt returns the string at path, or "" if absent or not a string
func stringAt(obj any, path string) string {
	s, _ := lookup(obj, path).(string)
	return s
}

// dateAt parses an ISO-8601 value at path; unparseable values are absent
func dateAt(obj any, path string) *domain.Date {
	s := stringAt(obj, path)
	if s == "" {
		return nil
	}
	d, ok := domain.ParseDate(s)
	if !ok {
		return nil
	}
	return &d
}

// intAt returns the integral number at path
func intAt(obj any, path string) (int64, bool) {
	switch v := lookup(obj, path).(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// render formats a scalar for display. Lists are newline-joined.
func render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, render(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(val)
	}
}

// present reports whether a value counts as set. Empty strings, zero
// numbers, false and empty collections are skipped like missing fields.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	return true
}

// field pairs a dotted source path with its display label
type field struct {
	path  string
	label string
}

// template is an ordered list of labelled fields rendered as embedding text
type template []field

// Render emits "<label> <value>" for each present field, one per line
func (t template) Render(source map[string]any) string {
	lines := make([]string, 0, len(t))
	for _, f := range t {
		v := lookup(source, f.path)
		if !present(v) {
			continue
		}
		lines = append(lines, f.label+" "+render(v))
	}
	return strings.Join(lines, "\n")
}
