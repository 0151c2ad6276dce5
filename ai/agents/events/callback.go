// Package events defines the turn event callback and the event payloads
// surfaced to clients while a turn is running.
package events

import (
	"log/slog"
	"runtime/debug"
)

// Event types emitted by the turn orchestrator.
const (
	// EventThinking is emitted when a model call starts.
	EventThinking = "thinking"
	// EventActivating is emitted when a reply names an agent; payload Activation.
	EventActivating = "activating"
	// EventError is emitted when a gateway call fails; payload Failure.
	EventError = "error"
	// EventIdle is emitted when every transient indicator is cleared.
	EventIdle = "idle"
	// EventMessage carries the model message appended by the turn; payload board.Message.
	EventMessage = "message"
)

// Activation is the payload of EventActivating.
type Activation struct {
	Agent   string `json:"agent"`
	Reason  string `json:"reason"`
	DwellMs int64  `json:"dwellMs"`
}

// Failure is the payload of EventError.
type Failure struct {
	Operation string `json:"operation"`
	Class     string `json:"class"`
}

// Callback is the unified event callback type.
// It receives an event type string and arbitrary event data.
type Callback func(eventType string, eventData any) error

// SafeCallback is a callback variant that does not propagate errors.
// Errors are logged internally instead of being returned to callers.
type SafeCallback func(eventType string, eventData any)

// WrapSafe converts a Callback to a SafeCallback.
// Errors and panics from the original callback are logged but not propagated.
// A nil callback becomes a no-op.
func WrapSafe(cb Callback) SafeCallback {
	if cb == nil {
		return func(string, any) {}
	}
	return func(eventType string, eventData any) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("event callback panic (recovered)",
					"event_type", eventType,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		if err := cb(eventType, eventData); err != nil {
			slog.Warn("event callback error (swallowed)",
				"event_type", eventType,
				"error", err)
		}
	}
}
