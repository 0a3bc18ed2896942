// Package agent is the reasoning-engine boundary. The engine is a black box
// that, given instructions, history, and tool specs, produces either tool
// invocation requests or a final answer.
package agent

import (
	"context"

	"github.com/colloquy-ai/colloquy/core/protocol"
)

// Reply is one engine decision: tool calls to execute, or, when ToolCalls
// is empty, the final answer text.
type Reply struct {
	Content   string
	ToolCalls []protocol.ToolCall
}

// Agent produces the next Reply for a conversation. Implementations may run
// the upstream model in streaming or batch mode as long as the full text is
// available when Chat returns.
type Agent interface {
	Chat(ctx context.Context, messages []protocol.Message, tools []protocol.Tool) (*Reply, error)
}
