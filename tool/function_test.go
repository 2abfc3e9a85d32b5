package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/core"
)

func testToolContext() *core.ToolContext {
	rc := core.NewRunContext(context.Background(), "exec-1", &core.Application{ID: "app-1"}, nil)
	return core.NewToolContext(rc, "call-1")
}

type addParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func TestFunctionToolCall(t *testing.T) {
	ft := NewFromStruct("adder", "Adds two numbers.", addParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			return map[string]any{"sum": args["a"].(float64) + args["b"].(float64)}, nil
		})

	assert.Equal(t, "adder", ft.Name())
	assert.Equal(t, "Adds two numbers.", ft.Description())

	out, err := ft.Call(testToolContext(), map[string]any{"a": 1.5, "b": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out["sum"])
}

func TestFunctionToolValidation(t *testing.T) {
	ft := NewFromStruct("adder", "Adds two numbers.", addParams{},
		func(_ *core.ToolContext, args map[string]any) (map[string]any, error) {
			return map[string]any{}, nil
		})

	_, err := ft.Call(testToolContext(), map[string]any{"a": 1.0})

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeValidation, te.Code)
	assert.Equal(t, core.FailureValidation, te.FailureKind())
}

func TestFunctionToolExecutionError(t *testing.T) {
	ft := New("boom", "Always fails.", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (map[string]any, error) {
			return nil, errors.New("backend unavailable")
		})

	_, err := ft.Call(testToolContext(), map[string]any{})

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeExecution, te.Code)
	assert.Equal(t, core.FailureTool, te.FailureKind())
	assert.Contains(t, te.Error(), "backend unavailable")
}

func TestFunctionToolPreservesCustomCode(t *testing.T) {
	custom := NewToolError("custom", "special condition", "SPECIAL")
	ft := New("custom", "Returns a custom tool error.", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (map[string]any, error) {
			return nil, custom
		})

	_, err := ft.Call(testToolContext(), map[string]any{})

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "SPECIAL", te.Code)
}
