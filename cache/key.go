package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key builds a namespaced cache key from a prefix and parameters. Parameter
// names are sorted, so callers may pass them in any order:
//
//	Key("search", map[string]any{"property_type": "Flat", "city": "Bangalore", "max_price": 5.0})
//	// search:city:Bangalore:max_price:5.0:property_type:Flat
func Key(prefix string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, 1+2*len(names))
	parts = append(parts, prefix)
	for _, name := range names {
		parts = append(parts, name, formatValue(params[name]))
	}
	return strings.Join(parts, ":")
}

// formatValue renders floats with at least one decimal place so 5 and 5.0
// map to the same key.
func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
