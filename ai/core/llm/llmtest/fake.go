// Package llmtest provides a scriptable llm.Gateway test double.
package llmtest

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hrygo/boardroom/ai/core/llm"
)

// Gateway is a test double for llm.Gateway. Unset funcs return canned values.
type Gateway struct {
	SummaryFunc func(ctx context.Context, req llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error)
	ReportFunc  func(ctx context.Context, system, prompt string) (string, *llm.LLMCallStats, error)
	ReplyFunc   func(ctx context.Context, system string, history []llm.Message) (string, *llm.LLMCallStats, error)
	SlidesFunc  func(ctx context.Context, req llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error)
	ImageFunc   func(ctx context.Context, prompt string, aspect llm.AspectRatio) (*llm.Image, error)

	SummaryCalls atomic.Int32
	ReportCalls  atomic.Int32
	ReplyCalls   atomic.Int32
	SlidesCalls  atomic.Int32
	ImageCalls   atomic.Int32

	mu          sync.Mutex
	lastSystem  string
	lastHistory []llm.Message
}

var _ llm.Gateway = (*Gateway)(nil)

// StructuredSummary implements llm.Gateway.
func (g *Gateway) StructuredSummary(ctx context.Context, req llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
	g.SummaryCalls.Add(1)
	if g.SummaryFunc != nil {
		return g.SummaryFunc(ctx, req)
	}
	return json.RawMessage(`{"stage":"Revenue","objective":"Close 3 customers","risk":"Runway",` +
		`"decision":"Focus on one ICP","doNotDo":["Paid ads"],"focusNext":"Pipeline"}`), nil, nil
}

// FreeformReport implements llm.Gateway.
func (g *Gateway) FreeformReport(ctx context.Context, system, prompt string) (string, *llm.LLMCallStats, error) {
	g.ReportCalls.Add(1)
	if g.ReportFunc != nil {
		return g.ReportFunc(ctx, system, prompt)
	}
	return "test report", nil, nil
}

// ConversationalReply implements llm.Gateway.
func (g *Gateway) ConversationalReply(ctx context.Context, system string, history []llm.Message) (string, *llm.LLMCallStats, error) {
	g.ReplyCalls.Add(1)
	g.mu.Lock()
	g.lastSystem = system
	g.lastHistory = history
	g.mu.Unlock()
	if g.ReplyFunc != nil {
		return g.ReplyFunc(ctx, system, history)
	}
	return "test response", nil, nil
}

// StructuredSlides implements llm.Gateway.
func (g *Gateway) StructuredSlides(ctx context.Context, req llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
	g.SlidesCalls.Add(1)
	if g.SlidesFunc != nil {
		return g.SlidesFunc(ctx, req)
	}
	return Slides(3), nil, nil
}

// ImageFromDescription implements llm.Gateway.
func (g *Gateway) ImageFromDescription(ctx context.Context, prompt string, aspect llm.AspectRatio) (*llm.Image, error) {
	g.ImageCalls.Add(1)
	if g.ImageFunc != nil {
		return g.ImageFunc(ctx, prompt, aspect)
	}
	return &llm.Image{Data: []byte("png:" + prompt), MimeType: "image/png"}, nil
}

// LastReply returns the system instructions and history of the latest
// ConversationalReply call.
func (g *Gateway) LastReply() (string, []llm.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSystem, g.lastHistory
}

// Calls returns the total number of gateway calls.
func (g *Gateway) Calls() int {
	return int(g.SummaryCalls.Load() + g.ReportCalls.Load() + g.ReplyCalls.Load() +
		g.SlidesCalls.Load() + g.ImageCalls.Load())
}

var layouts = []string{"Title", "Problem", "Solution", "Market", "Traction", "BusinessModel", "Team", "Ask"}

// Slides returns a valid {"slides": [...]} document with n slides titled
// "Slide 1" through "Slide n".
func Slides(n int) json.RawMessage {
	type slide struct {
		Title          string `json:"title"`
		Content        string `json:"content"`
		VisualGuidance string `json:"visualGuidance"`
		LayoutType     string `json:"layoutType"`
	}
	out := struct {
		Slides []slide `json:"slides"`
	}{}
	for i := 0; i < n; i++ {
		out.Slides = append(out.Slides, slide{
			Title:          "Slide " + strconv.Itoa(i+1),
			Content:        "content " + strconv.Itoa(i+1),
			VisualGuidance: "visual " + strconv.Itoa(i+1),
			LayoutType:     layouts[i%len(layouts)],
		})
	}
	data, _ := json.Marshal(out)
	return data
}
