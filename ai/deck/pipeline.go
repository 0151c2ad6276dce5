// Package deck turns a deck request into an ordered, illustrated slide list:
// one schema-constrained content call, then one image call per slide.
package deck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/core/llm"
	"github.com/hrygo/boardroom/ai/internal/strutil"
	"github.com/hrygo/boardroom/ai/observability/logging"
)

// previewLen bounds how much of a rejected response is logged.
const previewLen = 200

// DefaultImageConcurrency bounds in-flight image calls per deck.
const DefaultImageConcurrency = 8

// ErrEmptyDeck is returned when the content call yields no slides.
var ErrEmptyDeck = errors.New("deck has no slides")

// Request is one deck generation directive.
type Request struct {
	Context board.StartupContext
	Brief   string
	Mode    board.FundraisingMode
}

// Result is the merged deck.
type Result struct {
	Slides []board.PitchDeckSlide
	// ImageFailures counts slides left without an image (error or empty result).
	ImageFailures int
	Duration      time.Duration
}

// Pipeline runs deck generation against a model gateway.
type Pipeline struct {
	gateway     llm.Gateway
	prompts     *agent.Prompts
	concurrency int
	aspect      llm.AspectRatio
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithImageConcurrency bounds concurrent image calls. n <= 0 keeps the default.
func WithImageConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewPipeline creates a deck pipeline.
func NewPipeline(gateway llm.Gateway, prompts *agent.Prompts, opts ...Option) *Pipeline {
	if prompts == nil {
		prompts = agent.DefaultPrompts()
	}
	p := &Pipeline{
		gateway:     gateway,
		prompts:     prompts,
		concurrency: DefaultImageConcurrency,
		aspect:      llm.AspectLandscape,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run generates the deck. Content failures fail the whole deck; image
// failures only leave the affected slide without an image.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	raw, stats, err := p.gateway.StructuredSlides(ctx, llm.StructuredRequest{
		System:     p.prompts.PresentationRules,
		Prompt:     p.prompts.DeckPrompt(req.Context, req.Brief, req.Mode),
		SchemaName: "pitch_deck",
		Schema:     SlidesSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("deck content: %w", err)
	}

	slides, err := DecodeSlides(raw)
	if err != nil {
		logging.FromContext(ctx).Warn("deck: rejected slide content", "error", err, "raw_preview", strutil.Truncate(string(raw), previewLen))
		return nil, err
	}

	failures := p.illustrate(ctx, slides)

	attrs := []any{
		"slides", len(slides),
		"image_failures", failures,
		"mode", req.Mode,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if stats != nil {
		attrs = append(attrs, "content_tokens", stats.TotalTokens)
	}
	logging.FromContext(ctx).Info("deck: generated", attrs...)
	return &Result{
		Slides:        slides,
		ImageFailures: failures,
		Duration:      time.Since(start),
	}, nil
}

// illustrate fills slide images in place. Each goroutine writes only its own
// index, so no locking is needed.
func (p *Pipeline) illustrate(ctx context.Context, slides []board.PitchDeckSlide) int {
	images := make([]*llm.Image, len(slides))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range slides {
		prompt := p.prompts.SlideImagePrompt(slides[i])
		g.Go(func() error {
			img, err := p.gateway.ImageFromDescription(ctx, prompt, p.aspect)
			if err != nil {
				logging.FromContext(ctx).Warn("deck: slide image failed", "index", i, "error", err)
				return nil
			}
			images[i] = frame(img, p.aspect)
			return nil
		})
	}
	_ = g.Wait() // image goroutines never return errors

	failures := 0
	for i, img := range images {
		if img == nil || len(img.Data) == 0 {
			failures++
			continue
		}
		slides[i].Image = img.Data
		slides[i].ImageMimeType = img.MimeType
	}
	return failures
}

// SlidesSchema is the response schema for the content call.
func SlidesSchema() *llm.JSONSchema {
	layouts := make([]string, len(board.LayoutTypes))
	for i, l := range board.LayoutTypes {
		layouts[i] = string(l)
	}

	point := llm.Object(map[string]*llm.JSONSchema{
		"label": llm.String("category or period"),
		"value": llm.Number("non-negative magnitude"),
	}, "label", "value")

	slide := llm.Object(map[string]*llm.JSONSchema{
		"title":          llm.String("slide title"),
		"content":        llm.String("slide body"),
		"visualGuidance": llm.String("design direction for the slide visual"),
		"layoutType":     {Type: "string", Enum: layouts},
		"chartData":      llm.ArrayOf(point, "optional chart points"),
	}, "title", "content", "visualGuidance", "layoutType")

	return llm.Object(map[string]*llm.JSONSchema{
		"slides": llm.ArrayOf(slide, "slides in presentation order"),
	}, "slides")
}

type rawSlide struct {
	Title          string             `json:"title"`
	Content        string             `json:"content"`
	VisualGuidance string             `json:"visualGuidance"`
	LayoutType     string             `json:"layoutType"`
	ChartData      []board.ChartPoint `json:"chartData"`
}

// DecodeSlides parses and validates the content call output. It accepts an
// object with a "slides" array or a bare array. Any invalid slide fails the
// whole deck with llm.ErrMalformedResponse.
func DecodeSlides(raw json.RawMessage) ([]board.PitchDeckSlide, error) {
	var items []rawSlide
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: decode slides: %v", llm.ErrMalformedResponse, err)
		}
	} else {
		var envelope struct {
			Slides []rawSlide `json:"slides"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: decode slides: %v", llm.ErrMalformedResponse, err)
		}
		items = envelope.Slides
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %w", llm.ErrMalformedResponse, ErrEmptyDeck)
	}

	slides := make([]board.PitchDeckSlide, len(items))
	for i, item := range items {
		slide, err := validateSlide(item)
		if err != nil {
			return nil, fmt.Errorf("%w: slide %d: %v", llm.ErrMalformedResponse, i+1, err)
		}
		slides[i] = slide
	}
	return slides, nil
}

func validateSlide(item rawSlide) (board.PitchDeckSlide, error) {
	var missing []string
	if strings.TrimSpace(item.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(item.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(item.VisualGuidance) == "" {
		missing = append(missing, "visualGuidance")
	}
	if strings.TrimSpace(item.LayoutType) == "" {
		missing = append(missing, "layoutType")
	}
	if len(missing) > 0 {
		return board.PitchDeckSlide{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	layout := board.LayoutType(item.LayoutType)
	if !layout.Valid() {
		return board.PitchDeckSlide{}, fmt.Errorf("unknown layout %q", item.LayoutType)
	}
	for _, pt := range item.ChartData {
		if pt.Value < 0 {
			return board.PitchDeckSlide{}, fmt.Errorf("negative chart value %v for %q", pt.Value, pt.Label)
		}
	}

	slide := board.PitchDeckSlide{
		Title:          item.Title,
		Content:        item.Content,
		VisualGuidance: item.VisualGuidance,
		LayoutType:     layout,
	}
	if len(item.ChartData) > 0 {
		slide.ChartData = item.ChartData
	}
	return slide, nil
}
