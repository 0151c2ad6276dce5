package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/core/llm"
	"github.com/hrygo/boardroom/ai/internal/strutil"
	"github.com/hrygo/boardroom/ai/observability/logging"
)

// SummarySchema is the response schema of the executive summary.
var SummarySchema = llm.Object(map[string]*llm.JSONSchema{
	"stage":     llm.String("Stage assessment"),
	"objective": llm.String("Primary objective"),
	"risk":      llm.String("Most critical risk"),
	"decision":  llm.String("One hard executive decision"),
	"doNotDo":   llm.ArrayOf(llm.String(""), "Things to stop or ignore"),
	"focusNext": llm.String("Focus for the next 14 to 30 days"),
}, "stage", "objective", "risk", "decision", "doNotDo", "focusNext")

// GenerateAgentBriefing returns the full mandate report of one board seat.
// The first successful report is cached per session; force regenerates it.
// Concurrent requests for the same seat share one gateway call, which is not
// cancelled when the first caller goes away. The session history is left
// untouched.
func (o *Orchestrator) GenerateAgentBriefing(ctx context.Context, sessionID string, a agent.AgentType, force bool) (Briefing, error) {
	if !a.Valid() {
		return Briefing{}, fmt.Errorf("unknown agent %q", a)
	}
	s, err := o.sessions.Get(sessionID)
	if err != nil {
		return Briefing{}, err
	}

	ctx = logging.WithSession(ctx, sessionID)
	log := logging.FromContext(ctx)

	if !force {
		if text, ok := s.CachedAgentOutput(a); ok {
			o.metrics.RecordCacheHit("briefing")
			return Briefing{Agent: a, Text: text, Cached: true}, nil
		}
	}

	flightCtx := context.WithoutCancel(ctx)
	v, _, shared := o.flights.Do(sessionID+"/briefing/"+string(a), func() (any, error) {
		if !force {
			if text, ok := s.CachedAgentOutput(a); ok {
				return Briefing{Agent: a, Text: text, Cached: true}, nil
			}
		}

		startTime := time.Now()
		text, stats, err := o.gateway.FreeformReport(flightCtx, o.prompts.ReportSystem(), o.prompts.ReportPrompt(a, s.Context()))
		if err != nil {
			o.fail(flightCtx, nil, OpReport, err)
			return Briefing{Agent: a, Text: ReportFailureMessage, Failed: true}, nil
		}

		s.SetCachedAgentOutput(a, text)
		attrs := []any{
			"agent", string(a),
			"duration_ms", time.Since(startTime).Milliseconds(),
		}
		if stats != nil {
			attrs = append(attrs, "total_tokens", stats.TotalTokens)
		}
		log.Info("orchestrator: briefing generated", attrs...)
		return Briefing{Agent: a, Text: text}, nil
	})
	if shared {
		log.Debug("orchestrator: briefing request shared", "agent", string(a))
	}
	return v.(Briefing), nil
}

// PostAgentReport generates (or reuses) the briefing of a and appends it to
// the conversation as a model message tagged with the agent. It is refused
// while a turn is in flight so the user/model pairing of turns stays intact.
func (o *Orchestrator) PostAgentReport(ctx context.Context, sessionID string, a agent.AgentType, force bool) (board.Message, error) {
	s, err := o.sessions.Get(sessionID)
	if err != nil {
		return board.Message{}, err
	}
	if err := s.BeginTurn(); err != nil {
		return board.Message{}, err
	}
	defer s.EndTurn()

	b, err := o.GenerateAgentBriefing(ctx, sessionID, a, force)
	if err != nil {
		return board.Message{}, err
	}
	msg := board.NewAgentReport(string(b.Agent), b.Text)
	s.AppendMessage(msg)
	return msg, nil
}

// GenerateOverviewSummary returns the executive summary of the session.
// It is generated at most once per session; later calls return the cache.
// Concurrent callers share one gateway call that outlives the first caller.
func (o *Orchestrator) GenerateOverviewSummary(ctx context.Context, sessionID string) (Overview, error) {
	s, err := o.sessions.Get(sessionID)
	if err != nil {
		return Overview{}, err
	}
	if cached, ok := s.CachedSummary(); ok {
		o.metrics.RecordCacheHit("summary")
		return Overview{Summary: &cached, Cached: true}, nil
	}

	flightCtx := context.WithoutCancel(logging.WithSession(ctx, sessionID))
	log := logging.FromContext(flightCtx)
	v, _, _ := o.flights.Do(sessionID+"/summary", func() (any, error) {
		if cached, ok := s.CachedSummary(); ok {
			return Overview{Summary: &cached, Cached: true}, nil
		}

		raw, _, err := o.gateway.StructuredSummary(flightCtx, llm.StructuredRequest{
			System:     o.prompts.PresentationRules,
			Prompt:     o.prompts.SummaryPrompt(s.Context()),
			SchemaName: "ceo_summary",
			Schema:     SummarySchema,
			Strict:     true,
		})
		if err != nil {
			o.fail(flightCtx, nil, OpSummary, err)
			return Overview{Error: SummaryFailureMessage}, nil
		}

		summary, err := DecodeSummary(raw)
		if err != nil {
			log.Warn("orchestrator: rejected summary", "raw_preview", strutil.Truncate(string(raw), 200))
			o.fail(flightCtx, nil, OpSummary, err)
			return Overview{Error: SummaryFailureMessage}, nil
		}

		s.SetCachedSummary(summary)
		log.Info("orchestrator: executive summary generated")
		return Overview{Summary: &summary}, nil
	})
	return v.(Overview), nil
}

// DecodeSummary parses and validates a structured summary response.
func DecodeSummary(raw json.RawMessage) (board.CEOSummary, error) {
	var summary board.CEOSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return board.CEOSummary{}, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"stage", summary.Stage},
		{"objective", summary.Objective},
		{"risk", summary.Risk},
		{"decision", summary.Decision},
		{"focusNext", summary.FocusNext},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if summary.DoNotDo == nil {
		missing = append(missing, "doNotDo")
	}
	if len(missing) > 0 {
		return board.CEOSummary{}, fmt.Errorf("%w: summary missing %s", llm.ErrMalformedResponse, strings.Join(missing, ", "))
	}
	return summary, nil
}
