// Package transforms coerces loosely typed form and query values.
package transforms

import (
	"fmt"
	"strings"
)

var truthy = map[string]struct{}{
	"true": {}, "t": {}, "yes": {}, "y": {}, "1": {},
}

// ToBool interprets form style booleans. Strings are matched case
// insensitively against true, t, yes, y and 1; integers are true only when
// equal to 1. Everything else is false.
func ToBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		_, ok := truthy[strings.ToLower(strings.TrimSpace(v))]
		return ok
	case int:
		return v == 1
	case int64:
		return v == 1
	case int32:
		return v == 1
	default:
		return false
	}
}

// ToList converts a list-like value into a string slice. Strings such as
// `["a", 'b', c]` or `(a,b)` are split on commas with brackets, whitespace
// and quotes stripped.
func ToList(value any, lowercase bool) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return normalizeItems(v, lowercase, false), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
		return normalizeItems(items, lowercase, false), nil
	case string:
		trimmed := strings.Trim(strings.TrimSpace(v), "[]()")
		if trimmed == "" {
			return []string{}, nil
		}
		return normalizeItems(strings.Split(trimmed, ","), lowercase, true), nil
	default:
		return nil, fmt.Errorf("transforms: expected a list-like value, got %T", value)
	}
}

// MustList is ToList for callers that only pass strings or slices.
func MustList(value any, lowercase bool) []string {
	items, err := ToList(value, lowercase)
	if err != nil {
		return []string{}
	}
	return items
}

func normalizeItems(items []string, lowercase, strip bool) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strip {
			item = strings.Trim(strings.TrimSpace(item), `"'`)
		}
		if lowercase {
			item = strings.ToLower(item)
		}
		out = append(out, item)
	}
	return out
}
