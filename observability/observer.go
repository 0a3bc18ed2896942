// Package observability provides event-based instrumentation for the
// orchestration engine. Severity values align with OpenTelemetry
// SeverityNumbers so events can be forwarded to an OTel collector without
// translation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG band
	LevelInfo    Level = 9  // OTel INFO band
	LevelWarning Level = 13 // OTel WARN band
	LevelError   Level = 17 // OTel ERROR band
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps the level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. The orchestrator defines its own
// constants using this type (e.g. "orchestrator.attempt.retry").
type EventType string

// Event is a single observability event. Fields map to OTel LogRecord
// fields: Type→EventName, Level→SeverityNumber, Source→InstrumentationScope,
// Data→Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events for logging, tracing, or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
