package session

import "context"

// Log is the durable, ordered record of a session's turns.
//
// Load never fails on absence: a log that was never written is an empty
// sequence. A record that exists but cannot be parsed surfaces ErrCorrupt,
// which is fatal for the request: there is no safe way to guess prior state.
type Log interface {
	// Load returns the full turn sequence for a session, creating the
	// backing record on first use.
	Load(ctx context.Context, sessionID string) ([]Turn, error)
	// Append adds turns to the end of a session's log and persists the
	// whole record.
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	// Clear resets a session's log to the empty sequence.
	Clear(ctx context.Context, sessionID string) error
	// List returns the ids of all sessions with a backing record.
	List(ctx context.Context) ([]string, error)
}
