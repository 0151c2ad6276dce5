// Package session holds the per-session startup context, the append-only
// message history and the generated output caches.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
)

var (
	// ErrTurnInFlight is returned when a turn is submitted while another one
	// for the same session has not settled.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
	// ErrSessionNotFound is returned for unknown or evicted sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the state of one session. It is safe for concurrent use.
// Messages are only ever appended; there is no delete or reorder.
type Store struct {
	id        string
	createdAt time.Time
	context   board.StartupContext

	mu           sync.RWMutex
	history      []board.Message
	agentOutputs map[agent.AgentType]string
	summary      *board.CEOSummary
	pendingBrief string
	lastActive   time.Time
	inFlight     bool
}

// NewStore creates a session for a validated context.
func NewStore(id string, ctx board.StartupContext) *Store {
	now := time.Now()
	return &Store{
		id:           id,
		createdAt:    now,
		lastActive:   now,
		context:      ctx,
		agentOutputs: make(map[agent.AgentType]string, len(agent.AllAgents)),
	}
}

// ID returns the session ID.
func (s *Store) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Store) CreatedAt() time.Time { return s.createdAt }

// Context returns a copy of the startup context.
func (s *Store) Context() board.StartupContext {
	return s.context
}

// AppendMessage adds msg to the end of the history.
func (s *Store) AppendMessage(msg board.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
	s.lastActive = time.Now()
}

// History returns a snapshot of the message history in append order.
func (s *Store) History() []board.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Message looks up a message by ID.
func (s *Store) Message(id string) (board.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.history {
		if m.ID == id {
			return m, true
		}
	}
	return board.Message{}, false
}

// CachedAgentOutput returns the cached briefing for a.
func (s *Store) CachedAgentOutput(a agent.AgentType) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.agentOutputs[a]
	return text, ok
}

// SetCachedAgentOutput stores the briefing for a, replacing any previous one.
func (s *Store) SetCachedAgentOutput(a agent.AgentType, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentOutputs[a] = text
}

// CachedSummary returns the cached executive summary.
func (s *Store) CachedSummary() (board.CEOSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return board.CEOSummary{}, false
	}
	out := *s.summary
	out.DoNotDo = slices.Clone(s.summary.DoNotDo)
	return out, true
}

// SetCachedSummary stores the executive summary.
func (s *Store) SetCachedSummary(summary board.CEOSummary) {
	summary.DoNotDo = slices.Clone(summary.DoNotDo)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &summary
}

// PendingDeckBrief returns the deck request waiting for a mode.
func (s *Store) PendingDeckBrief() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingBrief
}

// SetPendingDeckBrief records the deck request waiting for a mode. An empty
// brief clears it.
func (s *Store) SetPendingDeckBrief(brief string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingBrief = brief
}

// BeginTurn marks a turn as in flight. It fails with ErrTurnInFlight if one
// already is. Every successful BeginTurn must be paired with EndTurn.
func (s *Store) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrTurnInFlight
	}
	s.inFlight = true
	s.lastActive = time.Now()
	return nil
}

// EndTurn clears the in-flight mark.
func (s *Store) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.lastActive = time.Now()
}

// InFlight reports whether a turn is currently running.
func (s *Store) InFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}

// LastActive returns the time of the last append or turn boundary.
func (s *Store) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}
