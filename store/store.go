// Package store provides keyed blob persistence for per-session artifacts:
// document indexes and raw uploads. Implementations are stateless; every
// call performs I/O.
package store

import "context"

// Entry is a keyed blob. Keys are /-separated relative paths and values are
// raw bytes.
type Entry struct {
	Key   string
	Value []byte
}

// Store reads and writes keyed blobs.
type Store interface {
	// List returns all keys present in the store.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the given keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Exists reports whether a key is present without reading it.
	Exists(ctx context.Context, key string) bool
}
