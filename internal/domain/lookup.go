package domain

import (
	"fmt"
	"strings"
)

// FirstString walks an order document through a list of candidate dotted
// paths and returns the first non-empty string value found. Numeric values
// are rendered as their decimal form, since platforms disagree on whether
// order numbers are strings or numbers.
func FirstString(doc map[string]any, paths ...string) string {
	for _, path := range paths {
		if v := stringAt(doc, path); v != "" {
			return v
		}
	}
	return ""
}

func stringAt(doc map[string]any, path string) string {
	var current any = doc
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = node[key]
		if !ok {
			return ""
		}
	}

	switch v := current.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}
