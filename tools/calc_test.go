package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/colloquy-ai/colloquy/tools"
)

func TestCalculator(t *testing.T) {
	entry := tools.NewCalculator()
	ctx := context.Background()

	tests := []struct {
		name       string
		args       string
		want       string
		wantIsErr  bool
	}{
		{name: "addition", args: `{"expression":"2+2"}`, want: "4"},
		{name: "precedence", args: `{"expression":"2+3*4"}`, want: "14"},
		{name: "float division", args: `{"expression":"7.0/2"}`, want: "3.5"},
		{name: "parentheses", args: `{"expression":"(1+2)*(3+4)"}`, want: "21"},
		{name: "empty expression", args: `{}`, wantIsErr: true},
		{name: "not an expression", args: `{"expression":"import os"}`, wantIsErr: true},
		{name: "malformed args", args: `nope`, wantIsErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := entry.Handler(ctx, json.RawMessage(tt.args))
			if err != nil {
				t.Fatalf("handler: %v", err)
			}
			if result.IsError != tt.wantIsErr {
				t.Fatalf("IsError = %v (content %q), want %v", result.IsError, result.Content, tt.wantIsErr)
			}
			if !tt.wantIsErr && result.Content != tt.want {
				t.Errorf("content = %q, want %q", result.Content, tt.want)
			}
		})
	}
}
