package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
)

var (
	pdf  = board.Attachment{Data: []byte("%PDF"), MimeType: "application/pdf", FileName: "deck.pdf"}
	pptx = board.Attachment{Data: []byte("PK"), MimeType: "application/octet-stream", FileName: "Seed.PPTX"}
	csv  = board.Attachment{Data: []byte("a,b"), MimeType: "text/csv", FileName: "metrics.csv"}
	png  = board.Attachment{Data: []byte{0x89}, MimeType: "image/png"}
)

func TestRuleMatcher_Classify(t *testing.T) {
	m := NewRuleMatcher()

	testCases := []struct {
		name      string
		turn      Turn
		outcome   Outcome
		auditKind agent.AuditKind
		mandate   agent.AgentType
	}{
		{
			name:    "create deck without mode",
			turn:    Turn{Text: "Build a seed pitch deck for us"},
			outcome: OutcomeModeRequired,
			mandate: agent.AgentFundraising,
		},
		{
			name:    "create deck with mode",
			turn:    Turn{Text: "Build a seed pitch deck for us", Mode: board.ModeTraction},
			outcome: OutcomeArtifactCreation,
			mandate: agent.AgentFundraising,
		},
		{
			name:    "generate slides",
			turn:    Turn{Text: "can you generate investor slides?"},
			outcome: OutcomeModeRequired,
			mandate: agent.AgentFundraising,
		},
		{
			name:      "pdf with review text",
			turn:      Turn{Text: "Can you review this pitch deck", Files: []board.Attachment{pdf}},
			outcome:   OutcomeArtifactAudit,
			auditKind: agent.AuditDeck,
			mandate:   agent.AgentFundraising,
		},
		{
			name:      "audit beats creation when deck attached",
			turn:      Turn{Text: "Build a better pitch deck from this", Files: []board.Attachment{pptx}},
			outcome:   OutcomeArtifactAudit,
			auditKind: agent.AuditDeck,
			mandate:   agent.AgentFundraising,
		},
		{
			name:      "audit vocabulary without attachment",
			turn:      Turn{Text: "Critique pitch deck narrative"},
			outcome:   OutcomeArtifactAudit,
			auditKind: agent.AuditText,
			mandate:   agent.AgentFundraising,
		},
		{
			name:      "audit vocabulary with screenshot",
			turn:      Turn{Text: "Perform UX audit of screenshot", Images: []board.Attachment{png}},
			outcome:   OutcomeArtifactAudit,
			auditKind: agent.AuditVisual,
			mandate:   agent.AgentCPO,
		},
		{
			name:      "image only",
			turn:      Turn{Images: []board.Attachment{png}},
			outcome:   OutcomeGeneralConversation,
			auditKind: agent.AuditVisual,
			mandate:   agent.AgentCPO,
		},
		{
			name:      "non-deck document only",
			turn:      Turn{Files: []board.Attachment{csv}},
			outcome:   OutcomeGeneralConversation,
			auditKind: agent.AuditText,
			mandate:   agent.AgentFundraising,
		},
		{
			name:    "burn rate is not an audit",
			turn:    Turn{Text: "What is our burn rate and runway?"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentCFO,
		},
		{
			name:    "gtm question",
			turn:    Turn{Text: "Synthesize full GTM roadmap with growth experiments"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentCMO,
		},
		{
			name:    "investor narrative is not a deck",
			turn:    Turn{Text: "Draft series A investor narrative"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentFundraising,
		},
		{
			name:    "pricing",
			turn:    Turn{Text: "How should we set pricing for closing enterprise deals?"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentSales,
		},
		{
			name:    "how to improve a deck is a question",
			turn:    Turn{Text: "How do I make my pitch deck stronger?"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentFundraising,
		},
		{
			name:    "should we shorten the deck is a question",
			turn:    Turn{Text: "Should we make the deck shorter before the Series A meetings?"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentFundraising,
		},
		{
			name:    "build verb not governing slides",
			turn:    Turn{Text: "What slides do investors expect me to build a narrative around?"},
			outcome: OutcomeGeneralConversation,
			mandate: agent.AgentFundraising,
		},
		{
			name:    "make sense idiom",
			turn:    Turn{Text: "Help me make sense of our deck metrics"},
			outcome: OutcomeGeneralConversation,
		},
		{
			name:    "casual",
			turn:    Turn{Text: "hello there"},
			outcome: OutcomeGeneralConversation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := m.Classify(tc.turn)
			assert.Equal(t, tc.outcome, d.Outcome, d.Rule)
			assert.Equal(t, tc.auditKind, d.AuditKind, d.Rule)
			assert.Equal(t, tc.mandate, d.Mandate, d.Rule)
			assert.NotEmpty(t, d.Rule)
		})
	}
}

func TestRuleMatcher_Deterministic(t *testing.T) {
	m := NewRuleMatcher()
	turn := Turn{Text: "Analyze current burn vs growth metrics", Images: []board.Attachment{png}}
	first := m.Classify(turn)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Classify(turn))
	}
}

func TestIsDeckCreationRequest(t *testing.T) {
	assert.True(t, IsDeckCreationRequest("please make a deck"))
	assert.True(t, IsDeckCreationRequest("Put together slides for the seed round"))
	assert.False(t, IsDeckCreationRequest("our deck is old"))
	assert.False(t, IsDeckCreationRequest("build a landing page"))
	assert.True(t, IsDeckCreationRequest("Can you create us a Series A pitch deck?"))
	assert.True(t, IsDeckCreationRequest("Draft the investor slides"))

	for _, text := range []string{
		"How do I make my pitch deck stronger?",
		"Should we make the deck shorter before the Series A meetings?",
		"What slides do investors expect me to build a narrative around?",
		"Help me make sense of our deck metrics",
		"can I build on the slides you sent?",
		"We made a deck last year and built a product since",
	} {
		assert.False(t, IsDeckCreationRequest(text), text)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "mode_required", OutcomeModeRequired.String())
	assert.Equal(t, "artifact_audit", OutcomeArtifactAudit.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
