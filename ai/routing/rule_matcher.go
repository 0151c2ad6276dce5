package routing

import (
	"path/filepath"
	"regexp"
	"strings"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
)

// Pre-compiled patterns for turn classification.
var (
	auditPatternRegex = regexp.MustCompile(
		`(?i)\b(audit|review|critique|critic|roast|evaluate|assess|tear\s*down|feedback\s+on|rate\s+(this|my|our|the|it))\b`)
	// The verb must govern the deck noun: "build a seed pitch deck".
	deckCreationRegex = regexp.MustCompile(
		`(?i)\b(?:create|generate|build|make|draft|design|prepare|put\s+together)\s+` +
			`(?:(?:me|us)\s+)?(?:(?:a|an|the|our|my|new)\s+)?(?:[\w-]+\s+){0,3}?(?:deck|slides)\b`)
	// Questions about a deck are conversation, not creation requests.
	questionOpenerRegex = regexp.MustCompile(
		`(?i)^\W*(?:how|what|why|when|where|which|who|whose|is|are|was|were|do|does|did|should|shall|would\s+it|can\s+(?:i|we)|could\s+(?:i|we))\b`)
	idiomRegex = regexp.MustCompile(`(?i)\bmake\s+sense\b`)
)

// mandateKeywords are matched as lowercase substrings.
var mandateKeywords = map[agent.AgentType][]string{
	agent.AgentCEO:         {"priorit", "tradeoff", "trade-off", "strategy", "focus", "decision", "decide"},
	agent.AgentCPO:         {"product", "roadmap", "ux", "user experience", "backlog", "feature", "onboarding", "screenshot"},
	agent.AgentCMO:         {"gtm", "go-to-market", "growth", "marketing", "acquisition", "channel", "funnel", "experiment", "copy", "brand"},
	agent.AgentSales:       {"pricing", "price", "sales", "pipeline", "closing", "outreach", "icp", "prospect"},
	agent.AgentCFO:         {"burn", "runway", "finance", "financial", "budget", "forecast", "cash", "cost"},
	agent.AgentFundraising: {"fundrais", "investor", "raise", "valuation", "seed", "series a", "pitch"},
}

var deckMimeTypes = map[string]bool{
	"application/pdf":               true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.apple.keynote":                                             true,
}

var deckExtensions = map[string]bool{".pdf": true, ".ppt": true, ".pptx": true, ".key": true}

// RuleMatcher is the keyword and attachment based IntentClassifier.
type RuleMatcher struct{}

// NewRuleMatcher creates a new rule matcher.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{}
}

var _ IntentClassifier = (*RuleMatcher)(nil)

// Classify applies the rules in precedence order:
//  1. deck-like attachment: audit of that deck
//  2. audit vocabulary: audit
//  3. creation verb with deck noun: creation, or mode required without a mode
//  4. images with no other signal: visual audit
//  5. everything else: general conversation
func (m *RuleMatcher) Classify(turn Turn) Decision {
	text := strings.TrimSpace(turn.Text)
	mandate := matchMandate(text)

	if hasDeckAttachment(turn.Files) {
		return Decision{
			Outcome:   OutcomeArtifactAudit,
			AuditKind: agent.AuditDeck,
			Mandate:   agent.AgentFundraising,
			Rule:      "deck_attachment",
		}
	}

	if auditPatternRegex.MatchString(text) {
		d := Decision{Outcome: OutcomeArtifactAudit, AuditKind: agent.AuditText, Mandate: mandate, Rule: "audit_vocabulary"}
		if len(turn.Images) > 0 {
			d.AuditKind = agent.AuditVisual
			d.Mandate = agent.AgentCPO
		}
		return d
	}

	if IsDeckCreationRequest(text) {
		if turn.Mode == "" {
			return Decision{Outcome: OutcomeModeRequired, Mandate: agent.AgentFundraising, Rule: "create_without_mode"}
		}
		return Decision{Outcome: OutcomeArtifactCreation, Mandate: agent.AgentFundraising, Rule: "create_deck"}
	}

	if len(turn.Images) > 0 && (text == "" || mandate == "") {
		return Decision{
			Outcome:   OutcomeGeneralConversation,
			AuditKind: agent.AuditVisual,
			Mandate:   agent.AgentCPO,
			Rule:      "image_only",
		}
	}

	if len(turn.Files) > 0 && text == "" {
		return Decision{
			Outcome:   OutcomeGeneralConversation,
			AuditKind: agent.AuditText,
			Mandate:   agent.AgentFundraising,
			Rule:      "document_only",
		}
	}

	return Decision{Outcome: OutcomeGeneralConversation, Mandate: mandate, Rule: "general"}
}

// IsDeckCreationRequest reports whether text explicitly asks to create a
// deck. Questions and idioms that merely mention a deck do not count.
func IsDeckCreationRequest(text string) bool {
	text = strings.TrimSpace(text)
	if questionOpenerRegex.MatchString(text) || idiomRegex.MatchString(text) {
		return false
	}
	return deckCreationRegex.MatchString(text)
}

func hasDeckAttachment(files []board.Attachment) bool {
	for _, f := range files {
		if deckMimeTypes[strings.ToLower(f.MimeType)] {
			return true
		}
		if deckExtensions[strings.ToLower(filepath.Ext(f.FileName))] {
			return true
		}
	}
	return false
}

// matchMandate returns the agent with the most keyword hits. Ties go to the
// earlier seat in agent.AllAgents.
func matchMandate(text string) agent.AgentType {
	lower := strings.ToLower(text)
	if lower == "" {
		return ""
	}

	var best agent.AgentType
	bestHits := 0
	for _, a := range agent.AllAgents {
		hits := 0
		for _, kw := range mandateKeywords[a] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = a, hits
		}
	}
	return best
}
