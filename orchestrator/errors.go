package orchestrator

import "errors"

// Faults internal to the reasoning step. These never reach the caller of
// Handle; they drive the retry state machine and, on exhaustion, the
// fallback response.
var (
	ErrMaxIterations = errors.New("reasoning loop exceeded iteration budget")
	ErrEmptyReply    = errors.New("engine produced neither tool calls nor an answer")
)
