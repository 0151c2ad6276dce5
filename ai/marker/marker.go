// Package marker parses the routing side channel embedded in conversational
// replies: a leading activation line and the mode selection sentinel.
//
// Activation line grammar (the em-dash is required, only the keyword is
// case-insensitive):
//
//	ACTIVATING <AGENT> — Reason: <text>\n
package marker

import (
	"regexp"
	"strings"
)

// ModeSelectionSentinel forces the mode selection interstitial wherever it
// appears in a reply.
const ModeSelectionSentinel = "MODE_SELECTION_REQUIRED"

var activationRe = regexp.MustCompile(`^(?i:ACTIVATING) (.+?) — Reason: (.*?)\r?\n`)

// Activation is the routing metadata carried by a marker line.
type Activation struct {
	Agent  string
	Reason string
}

// Reply is a parsed conversational reply.
type Reply struct {
	// Content is the reply with the marker line removed.
	Content string
	// Activation is nil when the reply has no well-formed marker line.
	Activation *Activation
	// ModeSelectionRequired is set when the sentinel is present.
	ModeSelectionRequired bool
}

// Parse splits raw into displayable content and routing metadata. It is a
// pure function of raw.
func Parse(raw string) Reply {
	reply := Reply{
		Content:               raw,
		ModeSelectionRequired: strings.Contains(raw, ModeSelectionSentinel),
	}

	// Leading blank lines are tolerated; anything else before the marker is not.
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	m := activationRe.FindStringSubmatch(trimmed)
	if m == nil {
		return reply
	}

	reply.Activation = &Activation{Agent: m[1], Reason: m[2]}
	reply.Content = strings.TrimSpace(trimmed[len(m[0]):])
	return reply
}
