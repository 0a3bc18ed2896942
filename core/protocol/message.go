// Package protocol defines the message and tool types exchanged with the
// reasoning engine. These are the canonical shapes used across the
// orchestrator, the tool registry, and the engine adapters.
package protocol

import "encoding/json"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the reasoning engine.
// Fields are flat (ID, Name, Arguments) for direct use in the orchestrator.
// The JSON methods translate to and from the nested function-call format
// used by OpenAI-compatible chat APIs.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type nestedToolCall struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// MarshalJSON serializes to the nested API format
// ({type, function: {name, arguments}}) so a round trip through a provider
// request body preserves the call.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	var out nestedToolCall
	out.ID = tc.ID
	out.Type = "function"
	out.Function.Name = tc.Name
	out.Function.Arguments = json.RawMessage(tc.Arguments)
	if len(out.Function.Arguments) == 0 {
		out.Function.Arguments = json.RawMessage(`{}`)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both the nested API format and the flat form.
// Ollama sends arguments as a JSON object, OpenAI-compatible servers as a
// JSON-encoded string; both decode into the raw Arguments text.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested nestedToolCall
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = argumentsText(nested.Function.Arguments)
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// argumentsText unwraps a double-encoded argument payload. Providers that
// JSON-encode the argument object into a string are unwrapped once; raw
// objects pass through unchanged.
func argumentsText(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Message is a single message in an engine conversation. Assistant messages
// may carry ToolCalls; tool result messages carry the ToolCallID that
// correlates the result back to the request.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// NewMessage creates a Message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}
