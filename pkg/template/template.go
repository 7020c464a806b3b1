// Package template provides {{variable}} placeholder substitution for
// dynamic node configuration.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// Substitute replaces {{variable}} placeholders in value with entries from
// the variable map, recursing over nested maps and lists. A string that is
// exactly one placeholder resolves to the variable's typed value, so numbers
// and nested structures survive substitution; placeholders embedded in
// longer strings are stringified in place. Unknown variables are left as-is.
func Substitute(value any, variables map[string]any) any {
	switch v := value.(type) {
	case string:
		return substituteString(v, variables)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Substitute(item, variables)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Substitute(item, variables)
		}

		return out
	default:
		return value
	}
}

// SubstituteMap is Substitute constrained to a map payload.
func SubstituteMap(payload, variables map[string]any) map[string]any {
	substituted, _ := Substitute(payload, variables).(map[string]any)

	return substituted
}

// SubstituteString renders a single template string against the variables.
func SubstituteString(input string, variables map[string]any) string {
	result := substituteString(input, variables)
	if s, ok := result.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", result)
}

func substituteString(input string, variables map[string]any) any {
	trimmed := strings.TrimSpace(input)

	// Whole-string placeholder keeps the variable's type.
	if match := placeholderPattern.FindStringSubmatch(trimmed); match != nil && match[0] == trimmed {
		if resolved, ok := lookup(match[1], variables); ok {
			return resolved
		}

		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]

		resolved, ok := lookup(name, variables)
		if !ok {
			return token
		}

		return fmt.Sprintf("%v", resolved)
	})
}

// lookup resolves a dotted path ("order.total") through nested maps.
func lookup(path string, variables map[string]any) (any, bool) {
	parts := strings.Split(path, ".")

	var current any = map[string]any(variables)

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
