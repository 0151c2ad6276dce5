package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hrygo/boardroom/ai/agents/events"
	"github.com/hrygo/boardroom/ai/observability/logging"
)

// State is the indicator state of a running turn.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateShowingActivation
	StateError
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateShowingActivation:
		return "showing_activation"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// transitions lists the allowed edges. Error is reachable from any state
// and always returns to Idle.
var transitions = map[State][]State{
	StateIdle:              {StateAwaitingReply, StateError},
	StateAwaitingReply:     {StateShowingActivation, StateIdle, StateError},
	StateShowingActivation: {StateIdle, StateError},
	StateError:             {StateIdle},
}

// eventFor maps a target state to the event emitted on entry.
var eventFor = map[State]string{
	StateIdle:              events.EventIdle,
	StateAwaitingReply:     events.EventThinking,
	StateShowingActivation: events.EventActivating,
	StateError:             events.EventError,
}

// turnMachine tracks the indicator state of one turn and emits an event on
// every transition.
type turnMachine struct {
	emit  events.SafeCallback
	log   *slog.Logger
	mu    sync.Mutex
	state State
}

func newTurnMachine(ctx context.Context, cb events.Callback) *turnMachine {
	return &turnMachine{
		emit:  events.WrapSafe(cb),
		log:   logging.FromContext(ctx),
		state: StateIdle,
	}
}

// to moves the machine to next and emits the matching event with data.
func (m *turnMachine) to(next State, data any) error {
	m.mu.Lock()
	cur := m.state
	allowed := false
	for _, s := range transitions[cur] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		m.mu.Unlock()
		return fmt.Errorf("invalid turn transition %s -> %s", cur, next)
	}
	m.state = next
	m.mu.Unlock()

	m.log.Debug("orchestrator: state transition",
		"from", cur.String(),
		"to", next.String())
	m.emit(eventFor[next], data)
	return nil
}

// mustTo is to for edges the orchestrator guarantees are valid.
func (m *turnMachine) mustTo(next State, data any) {
	if err := m.to(next, data); err != nil {
		m.log.Error("orchestrator: state machine violation", "error", err)
	}
}

// settle returns the machine to Idle from wherever it is. It is deferred by
// every turn so indicators are always cleared.
func (m *turnMachine) settle() {
	if m.current() == StateIdle {
		return
	}
	m.mustTo(StateIdle, nil)
}

func (m *turnMachine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// message emits the appended model message. It does not change state.
func (m *turnMachine) message(data any) {
	m.emit(events.EventMessage, data)
}
