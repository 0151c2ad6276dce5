// Package board holds the domain model shared by the boardroom AI core:
// the startup profile, conversation messages and generated deck slides.
package board

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Domain is the market segment of the startup.
type Domain string

const (
	DomainWeb2AI Domain = "Web2/AI"
	DomainWeb3   Domain = "Web3/Blockchain"
)

// Stage is the company stage selected at intake.
type Stage string

const (
	StageIdea       Stage = "Idea"
	StageMVP        Stage = "MVP"
	StageEarlyUsers Stage = "Early Users"
	StageRevenue    Stage = "Revenue"
	StageScaling    Stage = "Scaling"
)

// FundraisingMode is the fundraising stage a deck is written for.
// It must be chosen before any deck content is generated.
type FundraisingMode string

const (
	ModePreTraction FundraisingMode = "Pre-Traction"
	ModeEarlyUsers  FundraisingMode = "Early Users"
	ModeTraction    FundraisingMode = "Traction"
)

// FundraisingModes lists the selectable modes in display order.
var FundraisingModes = []FundraisingMode{ModePreTraction, ModeEarlyUsers, ModeTraction}

// ParseFundraisingMode resolves a user supplied mode label, ignoring case and
// the separator style ("pre traction", "pre-traction", "PRE_TRACTION").
func ParseFundraisingMode(raw string) (FundraisingMode, error) {
	norm := normalizeLabel(raw)
	for _, m := range FundraisingModes {
		if normalizeLabel(string(m)) == norm {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

func normalizeLabel(s string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

var (
	// ErrContextIncomplete is returned when a required intake field is empty.
	ErrContextIncomplete = errors.New("startup context incomplete")
	// ErrUnknownMode is returned for an unrecognised fundraising mode.
	ErrUnknownMode = errors.New("unknown fundraising mode")
)

// StartupContext is the profile that anchors every prompt.
// It is created once at intake and never edited for the life of a session.
type StartupContext struct {
	Name             string `json:"name"`
	Domain           Domain `json:"domain"`
	Stage            Stage  `json:"stage"`
	TargetCustomers  string `json:"targetCustomers"`
	Region           string `json:"region,omitempty"`
	Urgency          string `json:"urgency,omitempty"`
	Metrics          string `json:"metrics,omitempty"`
	FounderAdvantage string `json:"founderAdvantage,omitempty"`
	TeamSetup        string `json:"teamSetup,omitempty"`
	Constraints      string `json:"constraints,omitempty"`
	RevenueModel     string `json:"revenueModel,omitempty"`
	Goal             string `json:"goal"`
}

// Validate checks the required fields. The intake form owns full validation;
// the core only refuses a context it cannot build prompts from.
func (c StartupContext) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.TargetCustomers) == "" {
		missing = append(missing, "targetCustomers")
	}
	if strings.TrimSpace(c.Goal) == "" {
		missing = append(missing, "goal")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrContextIncomplete, strings.Join(missing, ", "))
	}
	switch c.Domain {
	case "", DomainWeb2AI, DomainWeb3:
	default:
		return fmt.Errorf("%w: unknown domain %q", ErrContextIncomplete, c.Domain)
	}
	switch c.Stage {
	case "", StageIdea, StageMVP, StageEarlyUsers, StageRevenue, StageScaling:
	default:
		return fmt.Errorf("%w: unknown stage %q", ErrContextIncomplete, c.Stage)
	}
	return nil
}

// Role is the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Attachment is an inline binary payload sent with a user turn.
type Attachment struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName,omitempty"`
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MimeType), "image/")
}

// Message is one turn of the conversation.
type Message struct {
	ID              string           `json:"id"`
	Role            Role             `json:"role"`
	Content         string           `json:"content"`
	Images          []Attachment     `json:"images,omitempty"`
	Files           []Attachment     `json:"files,omitempty"`
	Agent           string           `json:"agent,omitempty"`
	IsModeSelection bool             `json:"isModeSelection,omitempty"`
	IsDeckResult    bool             `json:"isDeckResult,omitempty"`
	Slides          []PitchDeckSlide `json:"slides,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// NewUserMessage builds a user turn. Attachments are split by kind.
func NewUserMessage(text string, attachments []Attachment) Message {
	msg := Message{
		ID:        shortuuid.New(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	for _, a := range attachments {
		if a.IsImage() {
			msg.Images = append(msg.Images, a)
		} else {
			msg.Files = append(msg.Files, a)
		}
	}
	return msg
}

// NewModelMessage builds a plain model reply.
func NewModelMessage(content string) Message {
	return Message{
		ID:        shortuuid.New(),
		Role:      RoleModel,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAgentReport builds a model message produced by a named agent.
func NewAgentReport(agent, content string) Message {
	msg := NewModelMessage(content)
	msg.Agent = agent
	return msg
}

// NewModeSelectionMessage builds the interstitial asking for a fundraising mode.
func NewModeSelectionMessage(label string) Message {
	msg := NewModelMessage(label)
	msg.IsModeSelection = true
	return msg
}

// NewDeckMessage builds the model message carrying a generated deck.
func NewDeckMessage(status string, slides []PitchDeckSlide) Message {
	msg := NewModelMessage(status)
	msg.IsDeckResult = true
	msg.Slides = slides
	return msg
}

// LayoutType is the narrative role of a slide.
type LayoutType string

const (
	LayoutTitle         LayoutType = "Title"
	LayoutProblem       LayoutType = "Problem"
	LayoutSolution      LayoutType = "Solution"
	LayoutMarket        LayoutType = "Market"
	LayoutTraction      LayoutType = "Traction"
	LayoutBusinessModel LayoutType = "BusinessModel"
	LayoutTeam          LayoutType = "Team"
	LayoutAsk           LayoutType = "Ask"
)

// LayoutTypes lists every layout in canonical deck order.
var LayoutTypes = []LayoutType{
	LayoutTitle, LayoutProblem, LayoutSolution, LayoutMarket,
	LayoutTraction, LayoutBusinessModel, LayoutTeam, LayoutAsk,
}

// Valid reports whether l is a known layout.
func (l LayoutType) Valid() bool {
	for _, known := range LayoutTypes {
		if l == known {
			return true
		}
	}
	return false
}

// ChartPoint is one labelled magnitude on a slide chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PitchDeckSlide is one slide of a generated deck.
type PitchDeckSlide struct {
	Title          string       `json:"title"`
	Content        string       `json:"content"`
	VisualGuidance string       `json:"visualGuidance"`
	LayoutType     LayoutType   `json:"layoutType"`
	ChartData      []ChartPoint `json:"chartData,omitempty"`
	Image          []byte       `json:"image,omitempty"`
	ImageMimeType  string       `json:"imageMimeType,omitempty"`
}

// HasImage reports whether the slide image was generated.
func (s PitchDeckSlide) HasImage() bool {
	return len(s.Image) > 0
}

// CEOSummary is the fixed-shape executive digest generated once per session.
type CEOSummary struct {
	Stage     string   `json:"stage"`
	Objective string   `json:"objective"`
	Risk      string   `json:"risk"`
	Decision  string   `json:"decision"`
	DoNotDo   []string `json:"doNotDo"`
	FocusNext string   `json:"focusNext"`
}
