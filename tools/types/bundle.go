// Package types defines the argument and result shapes every tool
// operation shares, plus path resolution against the project root.
package types

import (
	"fmt"
	"strings"
)

// ArgumentBundle is the flat, string-keyed, dynamically-typed input of a
// tool operation. Accessors are fallible; Require variants produce the
// uniform missing-argument failure.
type ArgumentBundle map[string]any

func (a ArgumentBundle) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a ArgumentBundle) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

func (a ArgumentBundle) StringOr(key, fallback string) string {
	if v, ok := a.String(key); ok {
		return v
	}
	return fallback
}

func (a ArgumentBundle) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (a ArgumentBundle) Int(key string) (int, bool) {
	f, ok := a.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (a ArgumentBundle) IntOr(key string, fallback int) int {
	if v, ok := a.Int(key); ok {
		return v
	}
	return fallback
}

func (a ArgumentBundle) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

func (a ArgumentBundle) BoolOr(key string, fallback bool) bool {
	if v, ok := a.Bool(key); ok {
		return v
	}
	return fallback
}

func (a ArgumentBundle) List(key string) ([]any, bool) {
	v, ok := a[key].([]any)
	return v, ok
}

func (a ArgumentBundle) Map(key string) (map[string]any, bool) {
	v, ok := a[key].(map[string]any)
	return v, ok
}

// StringList accepts either a JSON array of strings or a single string.
func (a ArgumentBundle) StringList(key string) ([]string, bool) {
	if v, ok := a.String(key); ok {
		return []string{v}, true
	}
	list, ok := a.List(key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (a ArgumentBundle) RequireString(key string) (string, error) {
	v, ok := a.String(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", missingArgument(key)
	}
	return v, nil
}

func (a ArgumentBundle) RequireMap(key string) (map[string]any, error) {
	v, ok := a.Map(key)
	if !ok {
		return nil, missingArgument(key)
	}
	return v, nil
}

func (a ArgumentBundle) RequireStringList(key string) ([]string, error) {
	v, ok := a.StringList(key)
	if !ok || len(v) == 0 {
		return nil, missingArgument(key)
	}
	return v, nil
}

func missingArgument(key string) error {
	return NewOperationError(CodeMissingArgument, fmt.Sprintf("Missing required argument: %s", key), nil)
}
