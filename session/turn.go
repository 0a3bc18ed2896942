// Package session manages durable per-session conversation history: the
// persisted turn log, the working-memory builder, and per-session locking.
package session

import "time"

// Role identifies the author of a persisted turn. The wire values ("user",
// "ai") are the persisted session record contract and must not change.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "ai"
)

// Turn is one persisted message. Turns are immutable once written and are
// ordered by insertion, which is also chronological order.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
