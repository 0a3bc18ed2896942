package tools

import (
	"context"
	"encoding/json"
	"go/token"
	"go/types"

	"github.com/colloquy-ai/colloquy/core/protocol"
)

// CalculatorName is the registered name of the calculation tool.
const CalculatorName = "calculator"

// NewCalculator creates the general calculation tool. Expressions are
// evaluated as Go constant arithmetic, which covers integer and floating
// point math with arbitrary precision but no function calls.
func NewCalculator() Entry {
	return Entry{
		Spec: protocol.Tool{
			Name:        CalculatorName,
			Description: "Evaluates an arithmetic expression, e.g. '2+2' or '(17.5*3)/2'. Returns the result as text.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The arithmetic expression to evaluate.",
					},
				},
				"required": []string{"expression"},
			},
		},
		Handler: handleCalculate,
	}
}

func handleCalculate(_ context.Context, raw json.RawMessage) (Result, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
	}
	if args.Expression == "" {
		return Result{Content: "expression is required", IsError: true}, nil
	}

	fset := token.NewFileSet()
	tv, err := types.Eval(fset, nil, token.NoPos, args.Expression)
	if err != nil {
		return Result{Content: "cannot evaluate: " + err.Error(), IsError: true}, nil
	}
	if tv.Value == nil {
		return Result{Content: "expression is not a constant value", IsError: true}, nil
	}

	return Result{Content: tv.Value.String()}, nil
}
