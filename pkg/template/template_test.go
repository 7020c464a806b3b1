package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteWholePlaceholderKeepsType(t *testing.T) {
	variables := map[string]any{
		"amount": 42.5,
		"order":  map[string]any{"id": "o-1", "total": 99.0},
	}

	assert.Equal(t, 42.5, Substitute("{{amount}}", variables))
	assert.Equal(t, 99.0, Substitute("{{ order.total }}", variables))
}

func TestSubstituteEmbeddedPlaceholderStringifies(t *testing.T) {
	variables := map[string]any{"name": "ada", "amount": 10.0}

	result := Substitute("hello {{name}}, you owe {{amount}}", variables)

	assert.Equal(t, "hello ada, you owe 10", result)
}

func TestSubstituteUnknownVariableLeftAsIs(t *testing.T) {
	assert.Equal(t, "{{missing}}", Substitute("{{missing}}", map[string]any{}))
	assert.Equal(t, "x {{missing}} y", Substitute("x {{missing}} y", map[string]any{}))
}

func TestSubstituteRecursesIntoMapsAndLists(t *testing.T) {
	variables := map[string]any{"user": "ada", "n": 2.0}

	payload := map[string]any{
		"greeting": "hi {{user}}",
		"nested":   map[string]any{"count": "{{n}}"},
		"list":     []any{"{{user}}", "static"},
	}

	result := SubstituteMap(payload, variables)

	assert.Equal(t, "hi ada", result["greeting"])
	assert.Equal(t, map[string]any{"count": 2.0}, result["nested"])
	assert.Equal(t, []any{"ada", "static"}, result["list"])
}

func TestSubstituteDottedPathMissingSegment(t *testing.T) {
	variables := map[string]any{"order": map[string]any{"id": "o-1"}}

	assert.Equal(t, "{{order.total}}", Substitute("{{order.total}}", variables))
	assert.Equal(t, "{{order.id.deep}}", Substitute("{{order.id.deep}}", variables))
}

func TestSubstituteString(t *testing.T) {
	variables := map[string]any{"n": 5.0}

	assert.Equal(t, "5", SubstituteString("{{n}}", variables))
	assert.Equal(t, "plain", SubstituteString("plain", variables))
}

func TestSubstituteNonStringValuesPassThrough(t *testing.T) {
	assert.Equal(t, 7, Substitute(7, map[string]any{}))
	assert.Equal(t, true, Substitute(true, map[string]any{}))
	assert.Nil(t, Substitute(nil, map[string]any{}))
}
