// Package orchestrator drives one conversational request end to end: it
// rebuilds working memory from the session's turn log, assembles the
// session's tool set, resolves pronoun references, runs the reasoning/tool
// loop with bounded retry, and commits the resulting turn pair.
//
//	o := orchestrator.New(cfg, engine, log, registry, resolver)
//	result, err := o.Handle(ctx, "session-1", "what is a monad?")
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colloquy-ai/colloquy/agent"
	"github.com/colloquy-ai/colloquy/coref"
	"github.com/colloquy-ai/colloquy/core/protocol"
	"github.com/colloquy-ai/colloquy/observability"
	"github.com/colloquy-ai/colloquy/session"
	"github.com/colloquy-ai/colloquy/tools"
)

// FallbackResponse is returned, and persisted as the agent turn, when every
// reasoning attempt fails.
const FallbackResponse = "could not process the request; rephrase and retry"

const (
	defaultMaxAttempts    = 4
	defaultMaxIterations  = 10
	defaultAttemptTimeout = 2 * time.Minute
	defaultToolTimeout    = 30 * time.Second
)

// Config bounds the reasoning step.
type Config struct {
	// SystemPrompt is prepended to every engine conversation.
	SystemPrompt string
	// MaxAttempts is the total reasoning attempts per request, first try
	// included.
	MaxAttempts int
	// MaxIterations bounds tool-call/tool-result cycles within one attempt.
	MaxIterations int
	// AttemptTimeout bounds one reasoning attempt; a timeout is a fault
	// subject to the same retry policy as any other.
	AttemptTimeout time.Duration
	// ToolTimeout bounds a single tool invocation.
	ToolTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = defaultMaxAttempts
	}
	if out.MaxIterations <= 0 {
		out.MaxIterations = defaultMaxIterations
	}
	if out.AttemptTimeout <= 0 {
		out.AttemptTimeout = defaultAttemptTimeout
	}
	if out.ToolTimeout <= 0 {
		out.ToolTimeout = defaultToolTimeout
	}
	return out
}

// Option overrides a collaborator after construction.
type Option func(*Orchestrator)

// WithObserver overrides the default no-op observer. Multiple observers are
// fanned out in order.
func WithObserver(obs ...observability.Observer) Option {
	return func(orc *Orchestrator) {
		switch len(obs) {
		case 0:
		case 1:
			if obs[0] != nil {
				orc.observer = obs[0]
			}
		default:
			orc.observer = observability.NewMultiObserver(obs...)
		}
	}
}

// WithClock overrides the timestamp source for persisted turns.
func WithClock(now func() time.Time) Option {
	return func(orc *Orchestrator) { orc.now = now }
}

// ToolCallRecord logs one tool invocation made during the request.
type ToolCallRecord struct {
	protocol.ToolCall
	Attempt   int    // Reasoning attempt the call belongs to.
	Iteration int    // Loop cycle within the attempt.
	Result    string // Tool output fed back to the engine.
	IsError   bool   // Whether the tool reported a recoverable failure.
}

// Result is the outcome of one conversational request.
type Result struct {
	Response  string           // Final answer, or FallbackResponse.
	Attempts  int              // Reasoning attempts consumed.
	Fallback  bool             // True when every attempt faulted.
	ToolCalls []ToolCallRecord // All tool invocations, across attempts.
}

// Orchestrator is the session-scoped conversational engine.
type Orchestrator struct {
	cfg      Config
	engine   agent.Agent
	log      session.Log
	registry *tools.Registry
	resolver *coref.Resolver
	observer observability.Observer
	locks    *session.KeyedMutex
	now      func() time.Time
}

// New creates an Orchestrator over its four collaborators.
func New(cfg Config, engine agent.Agent, log session.Log, registry *tools.Registry, resolver *coref.Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg.withDefaults(),
		engine:   engine,
		log:      log,
		registry: registry,
		resolver: resolver,
		observer: observability.NoOpObserver{},
		locks:    session.NewKeyedMutex(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one user message for a session and returns the agent's
// response. The session's mutex is held for the whole load→reason→append
// sequence, so concurrent requests against one session serialize instead of
// losing turns to the rewrite race.
//
// Only storage faults surface as errors; reasoning faults are absorbed by
// the retry state machine and, at worst, become FallbackResponse.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, userInput string) (*Result, error) {
	unlock := o.locks.Lock(sessionID)
	defer unlock()

	history, err := o.log.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	memory := session.BuildMemory(history)
	set := o.registry.ForSession(ctx, sessionID)
	resolved := o.resolver.Resolve(ctx, history, userInput)

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventRequestStart,
		Level:     observability.LevelInfo,
		Timestamp: o.now(),
		Source:    "orchestrator.Handle",
		Data: map[string]any{
			"session_id":   sessionID,
			"history_len":  len(history),
			"tools":        len(set),
			"input_length": len(userInput),
		},
	})

	result := o.reasonWithRetry(ctx, sessionID, memory, set, resolved)

	// The raw input is the persisted record; the resolved form existed only
	// to drive the reasoning step.
	userTurn := session.Turn{Role: session.RoleUser, Content: userInput, Timestamp: o.now()}
	agentTurn := session.Turn{Role: session.RoleAgent, Content: result.Response, Timestamp: o.now()}
	if err := o.log.Append(ctx, sessionID, userTurn, agentTurn); err != nil {
		return nil, fmt.Errorf("committing session %s: %w", sessionID, err)
	}

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventCommit,
		Level:     observability.LevelVerbose,
		Timestamp: o.now(),
		Source:    "orchestrator.Handle",
		Data:      map[string]any{"session_id": sessionID, "turns": 2},
	})

	return result, nil
}

// retryState is the explicit state of the bounded-retry machine.
type retryState int

const (
	stateAttempting retryState = iota
	stateSucceeded
	stateExhausted
)

// reasonWithRetry runs the reasoning step through the
// attempting→succeeded/exhausted state machine. Every faulted attempt is
// logged with its count and fault; exhaustion produces the fallback.
func (o *Orchestrator) reasonWithRetry(ctx context.Context, sessionID string, memory []protocol.Message, set tools.Set, resolvedInput string) *Result {
	result := &Result{}
	state := stateAttempting

	for attempt := 1; state == stateAttempting; attempt++ {
		result.Attempts = attempt

		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventAttemptStart,
			Level:     observability.LevelVerbose,
			Timestamp: o.now(),
			Source:    "orchestrator.reason",
			Data:      map[string]any{"session_id": sessionID, "attempt": attempt},
		})

		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		response, records, err := o.reason(attemptCtx, memory, set, resolvedInput, attempt)
		cancel()

		result.ToolCalls = append(result.ToolCalls, records...)

		if err == nil {
			result.Response = response
			state = stateSucceeded
			break
		}

		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventAttemptRetry,
			Level:     observability.LevelWarning,
			Timestamp: o.now(),
			Source:    "orchestrator.reason",
			Data: map[string]any{
				"session_id": sessionID,
				"attempt":    attempt,
				"fault":      err.Error(),
			},
		})

		if attempt >= o.cfg.MaxAttempts {
			state = stateExhausted
		}
	}

	switch state {
	case stateSucceeded:
		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventResponse,
			Level:     observability.LevelInfo,
			Timestamp: o.now(),
			Source:    "orchestrator.reason",
			Data: map[string]any{
				"session_id":      sessionID,
				"attempts":        result.Attempts,
				"response_length": len(result.Response),
			},
		})
	case stateExhausted:
		result.Response = FallbackResponse
		result.Fallback = true
		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventAttemptExhausted,
			Level:     observability.LevelError,
			Timestamp: o.now(),
			Source:    "orchestrator.reason",
			Data:      map[string]any{"session_id": sessionID, "attempts": result.Attempts},
		})
	}

	return result
}

// reason runs one attempt of the reasoning loop: the engine alternates
// between requesting tool calls and consuming their output until it emits a
// final answer. Any fault (engine error, unknown tool, tool execution
// failure, iteration budget) aborts the attempt.
func (o *Orchestrator) reason(ctx context.Context, memory []protocol.Message, set tools.Set, resolvedInput string, attempt int) (string, []ToolCallRecord, error) {
	messages := make([]protocol.Message, 0, len(memory)+2)
	if o.cfg.SystemPrompt != "" {
		messages = append(messages, protocol.NewMessage(protocol.RoleSystem, o.cfg.SystemPrompt))
	}
	messages = append(messages, memory...)
	messages = append(messages, protocol.NewMessage(protocol.RoleUser, resolvedInput))

	var records []ToolCallRecord

	for iteration := 1; iteration <= o.cfg.MaxIterations; iteration++ {
		reply, err := o.engine.Chat(ctx, messages, set.Specs())
		if err != nil {
			return "", records, fmt.Errorf("engine call failed: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			if reply.Content == "" {
				return "", records, ErrEmptyReply
			}
			return reply.Content, records, nil
		}

		messages = append(messages, protocol.Message{
			Role:      protocol.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		for _, tc := range reply.ToolCalls {
			o.observer.OnEvent(ctx, observability.Event{
				Type:      EventToolCall,
				Level:     observability.LevelVerbose,
				Timestamp: o.now(),
				Source:    "orchestrator.reason",
				Data: map[string]any{
					"attempt":   attempt,
					"iteration": iteration,
					"name":      tc.Name,
				},
			})

			toolCtx, cancel := context.WithTimeout(ctx, o.cfg.ToolTimeout)
			toolResult, err := set.Execute(toolCtx, tc.Name, json.RawMessage(tc.Arguments))
			cancel()
			if err != nil {
				return "", records, err
			}

			records = append(records, ToolCallRecord{
				ToolCall:  tc,
				Attempt:   attempt,
				Iteration: iteration,
				Result:    toolResult.Content,
				IsError:   toolResult.IsError,
			})

			messages = append(messages, protocol.Message{
				Role:       protocol.RoleTool,
				Content:    toolResult.Content,
				ToolCallID: tc.ID,
			})

			o.observer.OnEvent(ctx, observability.Event{
				Type:      EventToolComplete,
				Level:     observability.LevelVerbose,
				Timestamp: o.now(),
				Source:    "orchestrator.reason",
				Data: map[string]any{
					"attempt":   attempt,
					"iteration": iteration,
					"name":      tc.Name,
					"error":     toolResult.IsError,
				},
			})
		}
	}

	return "", records, ErrMaxIterations
}
