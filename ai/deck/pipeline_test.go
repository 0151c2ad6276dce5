package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/core/llm"
	"github.com/hrygo/boardroom/ai/core/llm/llmtest"
)

func deckRequest() Request {
	return Request{
		Context: board.StartupContext{Name: "Nexus AI", TargetCustomers: "SaaS CTOs", Goal: "Close 3 paying customers"},
		Brief:   "Build a seed pitch deck for us",
		Mode:    board.ModeTraction,
	}
}

func TestPipeline_Run(t *testing.T) {
	gw := &llmtest.Gateway{SlidesFunc: func(_ context.Context, req llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
		assert.Equal(t, "pitch_deck", req.SchemaName)
		assert.NotNil(t, req.Schema)
		assert.Contains(t, req.Prompt, "FUNDRAISING MODE: Traction")
		return llmtest.Slides(5), nil, nil
	}}

	var aspects atomic.Int32
	gw.ImageFunc = func(_ context.Context, prompt string, aspect llm.AspectRatio) (*llm.Image, error) {
		if aspect == llm.AspectLandscape {
			aspects.Add(1)
		}
		return &llm.Image{Data: []byte(prompt), MimeType: "image/png"}, nil
	}

	res, err := NewPipeline(gw, nil).Run(context.Background(), deckRequest())
	require.NoError(t, err)

	require.Len(t, res.Slides, 5)
	assert.Equal(t, 0, res.ImageFailures)
	assert.Equal(t, int32(1), gw.SlidesCalls.Load())
	assert.Equal(t, int32(5), gw.ImageCalls.Load())
	assert.Equal(t, int32(5), aspects.Load())
	for i, s := range res.Slides {
		assert.Equal(t, fmt.Sprintf("Slide %d", i+1), s.Title)
		assert.True(t, s.HasImage())
		assert.Contains(t, string(s.Image), s.Title, "image must stay on its own slide")
	}
}

// N slides with K failing image calls returning in random order.
func TestPipeline_PartialImageFailures(t *testing.T) {
	const n = 8
	failing := map[string]bool{"Slide 2": true, "Slide 5": true, "Slide 8": true}

	gw := &llmtest.Gateway{
		SlidesFunc: func(context.Context, llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
			return llmtest.Slides(n), nil, nil
		},
		ImageFunc: func(_ context.Context, prompt string, _ llm.AspectRatio) (*llm.Image, error) {
			time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
			for title := range failing {
				if strings.Contains(prompt, `"`+title+`"`) {
					if title == "Slide 5" {
						return nil, nil // empty result
					}
					return nil, errors.New("image backend down")
				}
			}
			return &llm.Image{Data: []byte(prompt), MimeType: "image/png"}, nil
		},
	}

	res, err := NewPipeline(gw, nil, WithImageConcurrency(3)).Run(context.Background(), deckRequest())
	require.NoError(t, err)

	require.Len(t, res.Slides, n)
	assert.Equal(t, len(failing), res.ImageFailures)

	unset := 0
	for i, s := range res.Slides {
		assert.Equal(t, fmt.Sprintf("Slide %d", i+1), s.Title)
		if failing[s.Title] {
			assert.False(t, s.HasImage(), s.Title)
			unset++
		} else {
			assert.Contains(t, string(s.Image), s.Title)
		}
	}
	assert.Equal(t, len(failing), unset)
}

func TestPipeline_AllImagesFail(t *testing.T) {
	gw := &llmtest.Gateway{ImageFunc: func(context.Context, string, llm.AspectRatio) (*llm.Image, error) {
		return nil, llm.ErrTimeout
	}}

	res, err := NewPipeline(gw, nil).Run(context.Background(), deckRequest())
	require.NoError(t, err)
	assert.Len(t, res.Slides, 3)
	assert.Equal(t, 3, res.ImageFailures)
}

func TestPipeline_ContentFailureSkipsImages(t *testing.T) {
	gw := &llmtest.Gateway{SlidesFunc: func(context.Context, llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
		return nil, nil, errors.New("quota exceeded")
	}}

	_, err := NewPipeline(gw, nil).Run(context.Background(), deckRequest())
	require.Error(t, err)
	assert.Equal(t, int32(0), gw.ImageCalls.Load())
}

func TestPipeline_InvalidSlideFailsWholeDeck(t *testing.T) {
	gw := &llmtest.Gateway{SlidesFunc: func(context.Context, llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
		return json.RawMessage(`{"slides":[
			{"title":"A","content":"a","visualGuidance":"g","layoutType":"Title"},
			{"title":"B","content":"","visualGuidance":"g","layoutType":"Problem"}]}`), nil, nil
	}}

	_, err := NewPipeline(gw, nil).Run(context.Background(), deckRequest())
	assert.ErrorIs(t, err, llm.ErrMalformedResponse)
	assert.Equal(t, int32(0), gw.ImageCalls.Load())
}

func TestPipeline_ImageConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	gw := &llmtest.Gateway{
		SlidesFunc: func(context.Context, llm.StructuredRequest) (json.RawMessage, *llm.LLMCallStats, error) {
			return llmtest.Slides(8), nil, nil
		},
		ImageFunc: func(context.Context, string, llm.AspectRatio) (*llm.Image, error) {
			cur := inFlight.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(15 * time.Millisecond)
			inFlight.Add(-1)
			return &llm.Image{Data: []byte{1}}, nil
		},
	}

	_, err := NewPipeline(gw, nil, WithImageConcurrency(2)).Run(context.Background(), deckRequest())
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Greater(t, peak.Load(), int32(1), "image calls should overlap")
}

func TestDecodeSlides(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, slides []board.PitchDeckSlide)
	}{
		{
			name: "bare array with chart",
			raw: `[{"title":"Traction","content":"MRR","visualGuidance":"bars","layoutType":"Traction",
				"chartData":[{"label":"Q1","value":10},{"label":"Q2","value":25}]}]`,
			check: func(t *testing.T, slides []board.PitchDeckSlide) {
				require.Len(t, slides[0].ChartData, 2)
				assert.Equal(t, 25.0, slides[0].ChartData[1].Value)
			},
		},
		{
			name: "empty chart is dropped",
			raw:  `{"slides":[{"title":"T","content":"c","visualGuidance":"g","layoutType":"Team","chartData":[]}]}`,
			check: func(t *testing.T, slides []board.PitchDeckSlide) {
				assert.Nil(t, slides[0].ChartData)
			},
		},
		{name: "unknown layout", raw: `{"slides":[{"title":"T","content":"c","visualGuidance":"g","layoutType":"Appendix"}]}`, wantErr: true},
		{name: "missing layout", raw: `{"slides":[{"title":"T","content":"c","visualGuidance":"g"}]}`, wantErr: true},
		{name: "negative chart value", raw: `{"slides":[{"title":"T","content":"c","visualGuidance":"g","layoutType":"Market","chartData":[{"label":"x","value":-1}]}]}`, wantErr: true},
		{name: "no slides", raw: `{"slides":[]}`, wantErr: true},
		{name: "wrong shape", raw: `{"slides":"nope"}`, wantErr: true},
		{name: "not json", raw: `slides`, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slides, err := DecodeSlides(json.RawMessage(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, llm.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			tc.check(t, slides)
		})
	}
}

func TestSlidesSchema(t *testing.T) {
	data, err := json.Marshal(SlidesSchema())
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"slides"`)
	assert.Contains(t, s, `"BusinessModel"`)
	assert.Contains(t, s, `"required":["title","content","visualGuidance","layoutType"]`)
}
