package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition operators supported by connection conditions and decision nodes.
const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
	OperatorContains    = "contains"
)

// Condition is a field/operator/value predicate evaluated against an
// execution's variable map.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// IsEmpty reports whether the condition carries no predicate at all.
func (c *Condition) IsEmpty() bool {
	return c == nil || (c.Field == "" && c.Operator == "")
}

// Evaluate applies the condition to the variable map. A missing field or
// missing operator evaluates to false; evaluation never fails.
func (c *Condition) Evaluate(variables map[string]any) bool {
	if c == nil || c.Field == "" || c.Operator == "" {
		return false
	}

	actual, ok := variables[c.Field]
	if !ok {
		return false
	}

	// Every operator compares against a configured value; a missing one can
	// never match, even against a nil variable.
	if c.Value == nil {
		return false
	}

	switch c.Operator {
	case OperatorEquals:
		return valuesEqual(actual, c.Value)
	case OperatorNotEquals:
		return !valuesEqual(actual, c.Value)
	case OperatorGreaterThan:
		a, aok := toFloat(actual)
		b, bok := toFloat(c.Value)

		return aok && bok && a > b
	case OperatorLessThan:
		a, aok := toFloat(actual)
		b, bok := toFloat(c.Value)

		return aok && bok && a < b
	case OperatorContains:
		return contains(actual, c.Value)
	default:
		return false
	}
}

// valuesEqual compares numerically when both sides are numbers, otherwise by
// stringified value. JSON decoding turns all numbers into float64, so the
// numeric path keeps 100 and 100.0 equal.
func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}

	return stringify(a) == stringify(b)
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if valuesEqual(item, needle) {
				return true
			}
		}

		return false
	case []string:
		for _, item := range h {
			if item == stringify(needle) {
				return true
			}
		}

		return false
	default:
		return strings.Contains(stringify(haystack), stringify(needle))
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
