// Package routing resolves a user turn to exactly one routing outcome.
// Classification is local and deterministic: the model is never asked whether
// a turn should create a deck.
package routing

import (
	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
)

// IntentClassifier classifies a user turn.
type IntentClassifier interface {
	Classify(turn Turn) Decision
}

// Outcome is the routing result of a turn.
type Outcome int

const (
	// OutcomeGeneralConversation covers everything not matched below.
	OutcomeGeneralConversation Outcome = iota
	// OutcomeArtifactCreation is an explicit deck creation request with a mode.
	OutcomeArtifactCreation
	// OutcomeArtifactAudit is a deck-like attachment or audit vocabulary.
	OutcomeArtifactAudit
	// OutcomeModeRequired is a deck creation request without a mode.
	OutcomeModeRequired
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeGeneralConversation:
		return "general_conversation"
	case OutcomeArtifactCreation:
		return "artifact_creation"
	case OutcomeArtifactAudit:
		return "artifact_audit"
	case OutcomeModeRequired:
		return "mode_required"
	default:
		return "unknown"
	}
}

// Turn is the classifier input.
type Turn struct {
	Text   string
	Images []board.Attachment
	Files  []board.Attachment
	// Mode is the fundraising mode already selected for this request, if any.
	Mode board.FundraisingMode
}

// Decision is the classifier output.
type Decision struct {
	Outcome Outcome
	// AuditKind selects the audit directive for the conversational call.
	AuditKind agent.AuditKind
	// Mandate is an advisory hint from keywords; the model frames the reply.
	Mandate agent.AgentType
	// Rule names the rule that fired, for logs and metrics.
	Rule string
}
