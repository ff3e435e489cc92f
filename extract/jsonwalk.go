package extract

import (
	"sort"
	"strings"
)

// walkBFS visits every JSON object reachable from root in breadth-first
// order. Visiting stops when visit returns true. Map keys are enqueued in
// sorted order so traversal is deterministic.
func walkBFS(root any, visit func(obj map[string]any) bool) {
	queue := []any{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		switch v := cur.(type) {
		case map[string]any:
			if visit(v) {
				return
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				queue = append(queue, v[k])
			}
		case []any:
			queue = append(queue, v...)
		}
	}
}

// strAt returns the first string value found under any of the keys.
func strAt(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// anyAt returns the first non-nil value found under any of the keys.
func anyAt(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// typeDenotesProduct checks a schema.org @type value (string or array of
// strings) for "Product".
func typeDenotesProduct(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), "product")
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.Contains(strings.ToLower(s), "product") {
				return true
			}
		}
	}
	return false
}

// firstOffer unwraps an offers value that may be a single object or an
// array, returning the first offer object.
func firstOffer(v any) map[string]any {
	switch o := v.(type) {
	case map[string]any:
		return o
	case []any:
		if len(o) > 0 {
			if m, ok := o[0].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// brandName unwraps a brand value that may be a plain string or a nested
// object with a name field.
func brandName(v any) string {
	switch b := v.(type) {
	case string:
		return b
	case map[string]any:
		return strAt(b, "name")
	}
	return ""
}
