package orchestrator

import "github.com/colloquy-ai/colloquy/observability"

// Event types emitted during a conversational request.
const (
	EventRequestStart     observability.EventType = "orchestrator.request.start"
	EventAttemptStart     observability.EventType = "orchestrator.attempt.start"
	EventAttemptRetry     observability.EventType = "orchestrator.attempt.retry"
	EventAttemptExhausted observability.EventType = "orchestrator.attempt.exhausted"
	EventToolCall         observability.EventType = "orchestrator.tool.call"
	EventToolComplete     observability.EventType = "orchestrator.tool.complete"
	EventResponse         observability.EventType = "orchestrator.response"
	EventCommit           observability.EventType = "orchestrator.commit"
)
