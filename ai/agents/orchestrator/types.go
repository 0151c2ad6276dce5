package orchestrator

import (
	"errors"
	"time"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/session"
)

// Fixed failure strings, one per operation. A failed operation appends or
// returns exactly one of these instead of propagating the gateway error.
const (
	ChatFailureMessage     = "SYSTEM ERROR: Boardroom communications interrupted."
	ReportFailureMessage   = "SYSTEM ERROR: Failed to process intelligence mandate."
	ArtifactFailureMessage = "SYSTEM ERROR: Artifact generation failed."
	AuditFailureMessage    = "SYSTEM ERROR: Artifact analysis failed."
	SummaryFailureMessage  = "SYSTEM ERROR: Executive summary unavailable."
)

// Operation names used in logs, events and metrics.
const (
	OpChat     = "chat"
	OpAudit    = "audit"
	OpReport   = "report"
	OpArtifact = "artifact"
	OpSummary  = "summary"
)

// UploadPrefix labels a user turn that only carries attachments.
const UploadPrefix = "Uploaded intelligence artifact: "

// DefaultDeckBrief is used when a mode arrives with no pending deck request.
const DefaultDeckBrief = "Create an investor pitch deck for this startup."

var (
	// ErrTurnInFlight is returned when a turn overlaps another one for the same session.
	ErrTurnInFlight = session.ErrTurnInFlight
	// ErrEmptyTurn is returned for a turn with no text, attachments or mode.
	ErrEmptyTurn = errors.New("turn has no text, attachments or mode")
)

// TurnInput is one user submission.
type TurnInput struct {
	Text        string
	Attachments []board.Attachment
	// Mode forces the deck pipeline with the selected fundraising mode,
	// bypassing classification.
	Mode board.FundraisingMode
}

// Briefing is the result of an agent briefing request.
type Briefing struct {
	Agent  agent.AgentType `json:"agent"`
	Text   string          `json:"text"`
	Cached bool            `json:"cached"`
	// Failed is set when Text is ReportFailureMessage.
	Failed bool `json:"failed"`
}

// Overview is the result of an executive summary request.
type Overview struct {
	Summary *board.CEOSummary `json:"summary,omitempty"`
	Cached  bool              `json:"cached"`
	// Error is SummaryFailureMessage when the summary could not be produced.
	Error string `json:"error,omitempty"`
}

// SessionProvider resolves session IDs.
type SessionProvider interface {
	Get(id string) (*session.Store, error)
}

// Recorder receives orchestration metrics.
type Recorder interface {
	RecordTurn(outcome, status string, duration time.Duration)
	RecordGatewayError(operation, class string)
	RecordDeck(slides, imageFailures int, duration time.Duration)
	RecordCacheHit(kind string)
}

type noopRecorder struct{}

func (noopRecorder) RecordTurn(string, string, time.Duration) {}
func (noopRecorder) RecordGatewayError(string, string)        {}
func (noopRecorder) RecordDeck(int, int, time.Duration)       {}
func (noopRecorder) RecordCacheHit(string)                    {}

// OrchestratorConfig contains configuration for the orchestrator.
type OrchestratorConfig struct {
	// ActivationDwell is how long the activation indicator is shown before
	// the reply is appended.
	ActivationDwell time.Duration `json:"activation_dwell"`

	// ImageConcurrency bounds concurrent slide image calls.
	ImageConcurrency int `json:"image_concurrency"`
}

// DefaultOrchestratorConfig returns the default configuration.
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		ActivationDwell:  1200 * time.Millisecond,
		ImageConcurrency: 8,
	}
}
