// Package tools assembles the per-session tool set the reasoning engine may
// call: the fixed general tools plus, when the session has an indexed
// document, a document-QA tool bound to that index.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/colloquy-ai/colloquy/core/protocol"
)

// Handler executes a tool. Handlers receive the JSON-encoded arguments
// produced by the reasoning engine. A returned error is a hard execution
// fault; recoverable problems (bad arguments, empty lookups) come back as a
// Result with IsError set so the engine can react to them.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is a tool's textual output, fed back into the reasoning loop.
type Result struct {
	Content string
	IsError bool
}

// Entry pairs a tool spec with its handler.
type Entry struct {
	Spec    protocol.Tool
	Handler Handler
}

// Set is an ordered collection of tools available to one request.
type Set []Entry

// Specs returns the tool definitions in set order, for the engine request.
func (s Set) Specs() []protocol.Tool {
	specs := make([]protocol.Tool, len(s))
	for i, e := range s {
		specs[i] = e.Spec
	}
	return specs
}

// Execute dispatches a call to the named tool.
// Returns ErrNotFound for names outside the set.
func (s Set) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	for _, e := range s {
		if e.Spec.Name != name {
			continue
		}
		result, err := e.Handler(ctx, args)
		if err != nil {
			return Result{}, fmt.Errorf("tool %s execution failed: %w", name, err)
		}
		return result, nil
	}
	return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// SessionFactory produces a session-bound tool when the session qualifies
// for it. ok is false when the tool does not apply to the session.
type SessionFactory func(ctx context.Context, sessionID string) (entry Entry, ok bool)

// Registry determines the callable tool set per session: the general tools
// in registration order, then any session-bound tools whose factories fire.
type Registry struct {
	general   []Entry
	factories []SessionFactory
}

// NewRegistry creates a Registry with the given general tools.
// General tool order is fixed at construction and preserved in every set.
func NewRegistry(general ...Entry) (*Registry, error) {
	for _, e := range general {
		if e.Spec.Name == "" {
			return nil, ErrEmptyName
		}
	}
	return &Registry{general: general}, nil
}

// AddSessionFactory registers a factory for a session-conditional tool.
// Factory tools are appended after the general tools.
func (r *Registry) AddSessionFactory(f SessionFactory) {
	r.factories = append(r.factories, f)
}

// ForSession returns the ordered tool set for a session. The existence
// probe behind each factory is side-effect-free; a session without a
// document simply gets the general tools.
func (r *Registry) ForSession(ctx context.Context, sessionID string) Set {
	set := make(Set, 0, len(r.general)+len(r.factories))
	set = append(set, r.general...)
	for _, f := range r.factories {
		if entry, ok := f(ctx, sessionID); ok {
			set = append(set, entry)
		}
	}
	return set
}
