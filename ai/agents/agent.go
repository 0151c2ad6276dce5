// Package agent defines the executive agents of the boardroom, the prompt
// catalogue that frames them and the classification of model gateway errors.
package agent

import (
	"fmt"
	"strings"
)

// AgentType is a named executive role. It is a framing label for a generated
// report, not a separate running process.
type AgentType string

const (
	AgentCEO         AgentType = "CEO"
	AgentCPO         AgentType = "CPO"
	AgentCMO         AgentType = "CMO"
	AgentSales       AgentType = "SALES"
	AgentCFO         AgentType = "CFO"
	AgentFundraising AgentType = "FUNDRAISING"
)

// AllAgents lists the board seats in dashboard order.
var AllAgents = []AgentType{AgentCEO, AgentCPO, AgentCMO, AgentSales, AgentCFO, AgentFundraising}

// Valid reports whether a is one of the six board seats.
func (a AgentType) Valid() bool {
	for _, known := range AllAgents {
		if a == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (a AgentType) String() string {
	return string(a)
}

// ParseAgentType resolves an agent name case-insensitively.
func ParseAgentType(raw string) (AgentType, error) {
	a := AgentType(strings.ToUpper(strings.TrimSpace(raw)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown agent %q", raw)
	}
	return a, nil
}
