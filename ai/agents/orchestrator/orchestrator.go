// Package orchestrator executes boardroom turns end to end.
//
//	User turn
//	    ↓
//	┌─────────────────┐
//	│ IntentClassifier│ ← local, deterministic
//	└────────┬────────┘
//	   ┌─────┼──────────────┐
//	   ↓     ↓              ↓
//	 mode   deck         chat / audit
//	 pick   pipeline     (one reply call, marker parsed)
//	   └─────┴──────┬───────┘
//	                ↓
//	        session append (one model message)
//
// Every turn appends the user message and exactly one model message. Gateway
// failures become a fixed error message; they never escape as errors.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/agents/events"
	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/core/llm"
	"github.com/hrygo/boardroom/ai/deck"
	"github.com/hrygo/boardroom/ai/marker"
	"github.com/hrygo/boardroom/ai/observability/logging"
	"github.com/hrygo/boardroom/ai/routing"
	"github.com/hrygo/boardroom/ai/session"
)

// Orchestrator runs turns, agent briefings and executive summaries.
type Orchestrator struct {
	gateway    llm.Gateway
	sessions   SessionProvider
	classifier routing.IntentClassifier
	prompts    *agent.Prompts
	deck       *deck.Pipeline
	metrics    Recorder
	config     *OrchestratorConfig
	flights    singleflight.Group
	sleep      func(ctx context.Context, d time.Duration)
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithActivationDwell sets the activation indicator dwell. Zero disables it.
func WithActivationDwell(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.config.ActivationDwell = d
		}
	}
}

// WithImageConcurrency bounds concurrent slide image calls.
func WithImageConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.config.ImageConcurrency = n
		}
	}
}

// WithPrompts replaces the built-in prompt catalogue.
func WithPrompts(p *agent.Prompts) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.prompts = p
		}
	}
}

// WithClassifier replaces the rule based classifier.
func WithClassifier(c routing.IntentClassifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.metrics = r
		}
	}
}

// NewOrchestrator creates an orchestrator over an explicitly constructed gateway.
func NewOrchestrator(gateway llm.Gateway, sessions SessionProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:    gateway,
		sessions:   sessions,
		classifier: routing.NewRuleMatcher(),
		prompts:    agent.DefaultPrompts(),
		metrics:    noopRecorder{},
		config:     DefaultOrchestratorConfig(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.deck = deck.NewPipeline(gateway, o.prompts, deck.WithImageConcurrency(o.config.ImageConcurrency))
	return o
}

// Prompts returns the prompt catalogue in use.
func (o *Orchestrator) Prompts() *agent.Prompts {
	return o.prompts
}

// SubmitTurn executes one user turn and returns the appended model message.
// It returns an error only when the turn could not start: unknown session,
// overlapping turn or invalid mode. cb receives indicator events and may be nil.
func (o *Orchestrator) SubmitTurn(ctx context.Context, sessionID string, in TurnInput, cb events.Callback) (board.Message, error) {
	s, err := o.sessions.Get(sessionID)
	if err != nil {
		return board.Message{}, err
	}
	if in.Mode != "" {
		mode, err := board.ParseFundraisingMode(string(in.Mode))
		if err != nil {
			return board.Message{}, err
		}
		in.Mode = mode
	}
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Attachments) == 0 && in.Mode == "" {
		return board.Message{}, ErrEmptyTurn
	}

	if err := s.BeginTurn(); err != nil {
		return board.Message{}, err
	}
	defer s.EndTurn()

	ctx = logging.WithSession(ctx, sessionID)
	log := logging.FromContext(ctx)
	startTime := time.Now()
	m := newTurnMachine(ctx, cb)
	defer m.settle()

	user := board.NewUserMessage(userContent(text, in), in.Attachments)
	s.AppendMessage(user)

	var (
		decision routing.Decision
		reply    board.Message
		status   = "ok"
	)
	if in.Mode != "" {
		decision = routing.Decision{Outcome: routing.OutcomeArtifactCreation, Mandate: agent.AgentFundraising, Rule: "forced_mode"}
	} else {
		decision = o.classifier.Classify(routing.Turn{
			Text:   text,
			Images: user.Images,
			Files:  user.Files,
		})
	}

	log.Info("orchestrator: turn classified",
		"outcome", decision.Outcome.String(),
		"rule", decision.Rule,
		"audit_kind", string(decision.AuditKind),
		"mandate", string(decision.Mandate),
	)

	switch decision.Outcome {
	case routing.OutcomeModeRequired:
		reply = o.requireMode(s, text)
	case routing.OutcomeArtifactCreation:
		brief := text
		if in.Mode != "" {
			brief = s.PendingDeckBrief()
			if brief == "" {
				brief = text
			}
			if brief == "" {
				brief = DefaultDeckBrief
			}
		}
		reply, status = o.runDeck(ctx, s, m, brief, in.Mode)
	default:
		reply, status = o.converse(ctx, s, m, text, decision)
	}

	s.AppendMessage(reply)
	m.message(reply)

	o.metrics.RecordTurn(decision.Outcome.String(), status, time.Since(startTime))
	log.Info("orchestrator: turn completed",
		"outcome", decision.Outcome.String(),
		"status", status,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return reply, nil
}

// requireMode records the deck request and returns the mode selection
// interstitial. No gateway call is made.
func (o *Orchestrator) requireMode(s *session.Store, brief string) board.Message {
	if strings.TrimSpace(brief) != "" {
		s.SetPendingDeckBrief(brief)
	}
	return board.NewModeSelectionMessage(o.prompts.ModeSelection)
}

func (o *Orchestrator) runDeck(ctx context.Context, s *session.Store, m *turnMachine, brief string, mode board.FundraisingMode) (board.Message, string) {
	m.mustTo(StateAwaitingReply, nil)

	res, err := o.deck.Run(ctx, deck.Request{Context: s.Context(), Brief: brief, Mode: mode})
	if err != nil {
		o.fail(ctx, m, OpArtifact, err)
		return board.NewModelMessage(ArtifactFailureMessage), "error"
	}

	s.SetPendingDeckBrief("")
	o.metrics.RecordDeck(len(res.Slides), res.ImageFailures, res.Duration)

	msg := board.NewDeckMessage(o.prompts.DeckStatus, res.Slides)
	msg.Agent = string(agent.AgentFundraising)
	return msg, "ok"
}

func (o *Orchestrator) converse(ctx context.Context, s *session.Store, m *turnMachine, text string, d routing.Decision) (board.Message, string) {
	op := OpChat
	failure := ChatFailureMessage
	if d.Outcome == routing.OutcomeArtifactAudit {
		op, failure = OpAudit, AuditFailureMessage
	}

	m.mustTo(StateAwaitingReply, nil)

	system := o.prompts.RouterInstructions(s.Context(), d.AuditKind)
	raw, _, err := o.gateway.ConversationalReply(ctx, system, toLLMHistory(s.History()))
	if err != nil {
		o.fail(ctx, m, op, err)
		return board.NewModelMessage(failure), "error"
	}

	parsed := marker.Parse(raw)
	if parsed.ModeSelectionRequired {
		logging.FromContext(ctx).Info("orchestrator: model requested mode selection")
		return o.requireMode(s, text), "ok"
	}

	msg := board.NewModelMessage(parsed.Content)
	if parsed.Activation != nil {
		m.mustTo(StateShowingActivation, events.Activation{
			Agent:   parsed.Activation.Agent,
			Reason:  parsed.Activation.Reason,
			DwellMs: o.config.ActivationDwell.Milliseconds(),
		})
		msg.Agent = parsed.Activation.Agent
		if a, err := agent.ParseAgentType(parsed.Activation.Agent); err == nil {
			msg.Agent = string(a)
		}
		o.sleep(ctx, o.config.ActivationDwell)
	}
	return msg, "ok"
}

// fail classifies err, moves the machine through Error and records it.
func (o *Orchestrator) fail(ctx context.Context, m *turnMachine, op string, err error) {
	classified := agent.ClassifyError(err)
	logging.FromContext(ctx).Error("orchestrator: gateway call failed",
		"operation", op,
		"class", classified.Class.String(),
		"retryable", classified.IsTransient(),
		"error", err,
	)
	o.metrics.RecordGatewayError(op, classified.Class.String())
	if m != nil {
		m.mustTo(StateError, events.Failure{Operation: op, Class: classified.Class.String()})
	}
}

func userContent(text string, in TurnInput) string {
	if text != "" {
		return text
	}
	if len(in.Attachments) > 0 {
		names := make([]string, 0, len(in.Attachments))
		for _, a := range in.Attachments {
			name := a.FileName
			if name == "" {
				name = a.MimeType
			}
			names = append(names, name)
		}
		return UploadPrefix + strings.Join(names, ", ")
	}
	if in.Mode != "" {
		return fmt.Sprintf("Fundraising mode selected: %s", in.Mode)
	}
	return ""
}

// toLLMHistory converts the session history to gateway messages. Model
// messages with no text are skipped.
func toLLMHistory(history []board.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == board.RoleModel {
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			out = append(out, llm.AssistantMessage(msg.Content))
			continue
		}

		lm := llm.UserMessage(msg.Content)
		for _, group := range [][]board.Attachment{msg.Images, msg.Files} {
			for _, a := range group {
				lm.Parts = append(lm.Parts, llm.Part{Data: a.Data, MimeType: a.MimeType, FileName: a.FileName})
			}
		}
		out = append(out, lm)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
