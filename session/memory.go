package session

import "github.com/colloquy-ai/colloquy/core/protocol"

// BuildMemory reconstructs working memory for the reasoning engine from a
// turn sequence, preserving order. Persisted roles map to engine roles
// (user→user, ai→assistant); unknown roles are skipped rather than rejected
// so newer records stay readable.
func BuildMemory(turns []Turn) []protocol.Message {
	messages := make([]protocol.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			messages = append(messages, protocol.NewMessage(protocol.RoleUser, t.Content))
		case RoleAgent:
			messages = append(messages, protocol.NewMessage(protocol.RoleAssistant, t.Content))
		}
	}
	return messages
}
