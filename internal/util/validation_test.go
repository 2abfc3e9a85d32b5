package util

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/mortgagemesh/core"
)

type sampleSchema struct {
	A string  `json:"a" description:"Field A"`
	B *int    `json:"b" description:"Optional pointer field"`
	C int     `json:"c,omitempty" description:"Omit empty field"`
	D float64 `json:"d"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleSchema{})

	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.Contains(t, props, "d")

	aProp := props["a"].(map[string]any)
	assert.Equal(t, "string", aProp["type"])
	assert.Equal(t, "Field A", aProp["description"])

	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a", "d"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
			"s": map[string]any{"type": "string", "enum": []any{"one", "two"}},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))

	// JSON numbers arrive as float64; whole values satisfy integer.
	assert.NoError(t, ValidateParameters(map[string]any{"x": float64(5)}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")

	err = ValidateParameters(map[string]any{"x": 1, "s": "three"}, schema)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "s", vErr.Field)

	// Extra fields are tolerated.
	assert.NoError(t, ValidateParameters(map[string]any{"x": 1, "unknown": true}, schema))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
