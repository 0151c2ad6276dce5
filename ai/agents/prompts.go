package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/configloader"
)

// PromptsFile is the override file looked up by LoadPrompts.
const PromptsFile = "prompts.yaml"

// AuditKind selects the audit directive appended to the router instructions.
type AuditKind string

const (
	AuditNone   AuditKind = ""
	AuditDeck   AuditKind = "deck"
	AuditVisual AuditKind = "visual"
	AuditText   AuditKind = "text"
)

// Prompts is the prompt catalogue. Every field may be overridden from YAML;
// missing keys keep their built-in value.
type Prompts struct {
	PresentationRules string               `yaml:"presentation_rules"`
	Router            string               `yaml:"router"`
	Report            string               `yaml:"report"`
	AuditDeck         string               `yaml:"audit_deck"`
	AuditVisual       string               `yaml:"audit_visual"`
	AuditText         string               `yaml:"audit_text"`
	Mandates          map[AgentType]string `yaml:"mandates"`
	Summary           string               `yaml:"summary"`
	Deck              string               `yaml:"deck"`
	SlideImage        string               `yaml:"slide_image"`
	ModeSelection     string               `yaml:"mode_selection"`
	DeckStatus        string               `yaml:"deck_status"`
	Suggestions       []string             `yaml:"suggestions"`
}

// DefaultPrompts returns the built-in catalogue.
func DefaultPrompts() *Prompts {
	mandates := make(map[AgentType]string, len(defaultMandates))
	for k, v := range defaultMandates {
		mandates[k] = v
	}
	return &Prompts{
		PresentationRules: defaultPresentationRules,
		Router:            defaultRouter,
		Report:            defaultReport,
		AuditDeck:         defaultAuditDeck,
		AuditVisual:       defaultAuditVisual,
		AuditText:         defaultAuditText,
		Mandates:          mandates,
		Summary:           defaultSummary,
		Deck:              defaultDeck,
		SlideImage:        defaultSlideImage,
		ModeSelection:     "Select the fundraising mode for this deck",
		DeckStatus:        "Pitch deck generated. Review the slides below.",
		Suggestions: []string{
			"Synthesize full GTM roadmap",
			"Draft series A investor narrative",
			"Analyze current burn vs growth metrics",
			"Perform UX audit of screenshot",
			"Critique pitch deck narrative",
		},
	}
}

// LoadPrompts returns the built-in catalogue overlaid with PromptsFile from
// loader's base directory. A missing file is not an error.
func LoadPrompts(loader *configloader.Loader) (*Prompts, error) {
	p := DefaultPrompts()
	if loader == nil {
		return p, nil
	}
	if err := loader.Load(PromptsFile, p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("prompts: no override file, using built-in catalogue")
			return p, nil
		}
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	for a := range p.Mandates {
		if !a.Valid() {
			return nil, fmt.Errorf("load prompts: mandate for unknown agent %q", a)
		}
	}
	return p, nil
}

// BasePrompt renders the startup context block that anchors every prompt.
func BasePrompt(ctx board.StartupContext) string {
	var sb strings.Builder
	sb.WriteString("STARTUP CONTEXT:\n")
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, value)
	}
	line("Name", ctx.Name)
	line("Domain", string(ctx.Domain))
	line("Stage", string(ctx.Stage))
	line("Customers", ctx.TargetCustomers)
	line("Goal", ctx.Goal)
	line("Metrics", ctx.Metrics)
	line("Region", ctx.Region)
	line("Urgency", ctx.Urgency)
	line("Founder Advantage", ctx.FounderAdvantage)
	line("Team", ctx.TeamSetup)
	line("Revenue Model", ctx.RevenueModel)
	line("Constraints", ctx.Constraints)
	return sb.String()
}

// RouterInstructions builds the system instructions for a conversational turn.
func (p *Prompts) RouterInstructions(ctx board.StartupContext, audit AuditKind) string {
	var sb strings.Builder
	sb.WriteString(p.Router)
	if directive := p.AuditDirective(audit); directive != "" {
		sb.WriteString("\n")
		sb.WriteString(directive)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(p.PresentationRules)
	sb.WriteString("\n")
	sb.WriteString(BasePrompt(ctx))
	return sb.String()
}

// AuditDirective returns the directive for kind, or "" for AuditNone.
func (p *Prompts) AuditDirective(kind AuditKind) string {
	switch kind {
	case AuditDeck:
		return p.AuditDeck
	case AuditVisual:
		return p.AuditVisual
	case AuditText:
		return p.AuditText
	default:
		return ""
	}
}

// ReportSystem returns the system instructions for agent briefings.
func (p *Prompts) ReportSystem() string {
	return p.Report + "\n" + p.PresentationRules
}

// ReportPrompt renders the one-shot briefing prompt for agent a.
func (p *Prompts) ReportPrompt(a AgentType, ctx board.StartupContext) string {
	return fmt.Sprintf("%s\nROLE: %s\n%s\nDeliver the full mandate with complete strategic depth.\n",
		BasePrompt(ctx), a, p.Mandates[a])
}

// SummaryPrompt renders the executive summary request.
func (p *Prompts) SummaryPrompt(ctx board.StartupContext) string {
	return BasePrompt(ctx) + "\n" + p.Summary
}

// DeckPrompt renders the slide content request for a brief and mode.
func (p *Prompts) DeckPrompt(ctx board.StartupContext, brief string, mode board.FundraisingMode) string {
	return fmt.Sprintf("%s\nFUNDRAISING MODE: %s\nFOUNDER BRIEF: %s\n\n%s",
		BasePrompt(ctx), mode, strings.TrimSpace(brief), p.Deck)
}

// SlideImagePrompt renders the image description for one slide.
func (p *Prompts) SlideImagePrompt(slide board.PitchDeckSlide) string {
	r := strings.NewReplacer(
		"{layout}", string(slide.LayoutType),
		"{title}", slide.Title,
		"{guidance}", slide.VisualGuidance,
	)
	return r.Replace(p.SlideImage)
}

const defaultPresentationRules = `FORMATTING RULES:
No markdown syntax of any kind: no asterisks, hashes, dash bullets or horizontal rules.
Write clean product-grade text. Use uppercase labels on their own line to show hierarchy.
Be exhaustive. Do not summarize when depth was asked for.
Tone is executive and direct. Truth over comfort.`

const defaultRouter = `You coordinate an executive board for a startup founder.
For every message pick the board member who owns the topic:
product roadmap, UX or backlog goes to CPO;
go-to-market, acquisition channels, funnels, experiments or copy go to CMO;
pricing, pipeline or closing go to SALES;
burn, runway or forecasts go to CFO;
pitch narrative or fundraising readiness goes to FUNDRAISING;
tradeoffs and prioritization go to CEO.
Begin the reply with exactly one line of the form
ACTIVATING <AGENT NAME> — Reason: <short intent summary>
followed by a newline, then answer with execution-ready depth.
Never produce slide decks yourself. Deck generation is handled by the platform.`

const defaultReport = `You sit on the executive board and deliver a complete domain mandate.
The output is long, structured and has no conversational filler.`

const defaultAuditDeck = `AUDIT DIRECTIVE: an investor deck is attached. Act as FUNDRAISING.
Audit narrative flow, metrics and red flags slide by slide and list the gaps to close before raising.`

const defaultAuditVisual = `AUDIT DIRECTIVE: a screenshot is attached. Act as CPO.
Run an exhaustive visual UX audit: friction points, layout issues and a four step fix roadmap.`

const defaultAuditText = `AUDIT DIRECTIVE: the founder asks for a critique. Rate the material honestly,
name the weakest parts first and give concrete rewrites.`

const defaultSummary = `Produce the CEO executive summary as a JSON object with the fields
stage (stage assessment), objective (primary objective), risk (most critical risk),
decision (one hard executive decision), doNotDo (list of things to stop or ignore)
and focusNext (focus for the next 14 to 30 days).`

const defaultDeck = `Write an investor pitch deck tailored to the fundraising mode.
Return an object with a "slides" array in presentation order. Every slide has
title, content, visualGuidance and layoutType (one of Title, Problem, Solution, Market,
Traction, BusinessModel, Team, Ask). Add chartData (label and non-negative value pairs)
only where a chart makes the point stronger.`

const defaultSlideImage = `Minimal professional 16:9 illustration for a {layout} pitch slide titled "{title}". {guidance}. No text in the image.`

var defaultMandates = map[AgentType]string{
	AgentCEO: `Deliver the CEO strategy and priorities mandate: rationale for the current stage,
primary objective, critical risk, one executive decision, a kill list of what to stop,
and the focus for the next 14 to 30 days. Be decisive.`,
	AgentCPO: `Deliver the CPO product mandate: minimum viable customer category, core job to be done,
feature kill list and success definition. Call out friction if the company already has users.`,
	AgentCMO: `Deliver the CMO mandate in two sections.
GTM STRATEGY: executive snapshot, primary GTM motion, competitive battle cards,
quarterly roadmap, partnerships, content pillars and channel hooks.
GROWTH EXECUTION: growth funnel, weekly experiments, channel playbooks and copy drafts
that follow the strategy above.`,
	AgentSales: `Deliver the sales mandate: ICP definition, outreach sequences,
personalized messaging and closing strategies.`,
	AgentCFO: `Deliver the CFO finance mandate: burn rate, runway, budget priorities and cost warnings.
Stay conservative.`,
	AgentFundraising: `Deliver the fundraising strategy mandate: stage assessment, target investor profile,
narrative strategy, proof points, metrics investors expect, risks and gaps, timeline,
and what must be true before raising. Do not write a deck.`,
}
