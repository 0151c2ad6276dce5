package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/configloader"
	"github.com/hrygo/boardroom/ai/core/llm"
)

func TestParseAgentType(t *testing.T) {
	for _, a := range AllAgents {
		got, err := ParseAgentType(strings.ToLower(string(a)))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	_, err := ParseAgentType("CTO")
	assert.Error(t, err)
	assert.False(t, AgentType("").Valid())
}

func nexus() board.StartupContext {
	return board.StartupContext{
		Name:            "Nexus AI",
		Domain:          board.DomainWeb2AI,
		Stage:           board.StageRevenue,
		TargetCustomers: "SaaS CTOs",
		Goal:            "Close 3 paying customers",
		Region:          "EU",
	}
}

func TestBasePrompt(t *testing.T) {
	p := BasePrompt(nexus())
	assert.Contains(t, p, "Name: Nexus AI")
	assert.Contains(t, p, "Customers: SaaS CTOs")
	assert.Contains(t, p, "Region: EU")
	assert.NotContains(t, p, "Constraints:")
}

func TestPrompts_RouterInstructions(t *testing.T) {
	p := DefaultPrompts()

	plain := p.RouterInstructions(nexus(), AuditNone)
	assert.Contains(t, plain, "ACTIVATING")
	assert.NotContains(t, plain, "AUDIT DIRECTIVE")

	deck := p.RouterInstructions(nexus(), AuditDeck)
	assert.Contains(t, deck, p.AuditDeck)
	assert.Contains(t, deck, "Nexus AI")

	assert.Contains(t, p.RouterInstructions(nexus(), AuditVisual), p.AuditVisual)
}

func TestPrompts_Templates(t *testing.T) {
	p := DefaultPrompts()

	for _, a := range AllAgents {
		assert.NotEmpty(t, p.Mandates[a], a)
		assert.Contains(t, p.ReportPrompt(a, nexus()), "ROLE: "+string(a))
	}

	deck := p.DeckPrompt(nexus(), " Build a seed deck ", board.ModeTraction)
	assert.Contains(t, deck, "FUNDRAISING MODE: Traction")
	assert.Contains(t, deck, "FOUNDER BRIEF: Build a seed deck\n")

	img := p.SlideImagePrompt(board.PitchDeckSlide{
		Title: "Market", LayoutType: board.LayoutMarket, VisualGuidance: "TAM rings",
	})
	assert.Contains(t, img, "Market pitch slide")
	assert.Contains(t, img, "TAM rings")
	assert.NotContains(t, img, "{")
}

func TestLoadPrompts(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		p, err := LoadPrompts(configloader.NewLoader(t.TempDir()))
		require.NoError(t, err)
		assert.Equal(t, DefaultPrompts().Router, p.Router)
	})

	t.Run("overlay", func(t *testing.T) {
		dir := t.TempDir()
		yaml := "router: custom router\nmandates:\n  CFO: lean finance\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, PromptsFile), []byte(yaml), 0o600))

		p, err := LoadPrompts(configloader.NewLoader(dir))
		require.NoError(t, err)
		assert.Equal(t, "custom router", p.Router)
		assert.Equal(t, "lean finance", p.Mandates[AgentCFO])
		assert.Equal(t, DefaultPrompts().Mandates[AgentCEO], p.Mandates[AgentCEO])
		assert.Equal(t, DefaultPrompts().Summary, p.Summary)
	})

	t.Run("unknown agent", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, PromptsFile), []byte("mandates:\n  CTO: x\n"), 0o600))
		_, err := LoadPrompts(configloader.NewLoader(dir))
		assert.Error(t, err)
	})

	t.Run("nil loader", func(t *testing.T) {
		p, err := LoadPrompts(nil)
		require.NoError(t, err)
		assert.Len(t, p.Suggestions, 5)
	})
}

func TestClassifyError(t *testing.T) {
	var syntaxErr error = &json.SyntaxError{}

	testCases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"gateway timeout", fmt.Errorf("chat: %w", llm.ErrTimeout), ErrorClassTimeout},
		{"context deadline", context.DeadlineExceeded, ErrorClassTimeout},
		{"malformed", fmt.Errorf("slides: %w", llm.ErrMalformedResponse), ErrorClassMalformed},
		{"json syntax", fmt.Errorf("decode: %w", syntaxErr), ErrorClassMalformed},
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, ErrorClassTransient},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, ErrorClassTransient},
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, ErrorClassPermanent},
		{"request timeout", &openai.RequestError{HTTPStatusCode: http.StatusGatewayTimeout, Err: errors.New("x")}, ErrorClassTimeout},
		{"connection refused", errors.New("dial tcp 127.0.0.1:1: connection refused"), ErrorClassTransient},
		{"empty", llm.ErrEmptyResponse, ErrorClassTransient},
		{"unknown", errors.New("something odd"), ErrorClassPermanent},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := ClassifyError(tc.err)
			require.NotNil(t, c)
			assert.Equal(t, tc.want, c.Class, c.Class.String())
			assert.ErrorIs(t, c, tc.err)
		})
	}

	assert.Nil(t, ClassifyError(nil))
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "timeout", ErrorClassTimeout.String())
	assert.Equal(t, "transient", ErrorClassTransient.String())
	assert.Equal(t, "malformed", ErrorClassMalformed.String())
	assert.Equal(t, "permanent", ErrorClassPermanent.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
	assert.True(t, (&ClassifiedError{Class: ErrorClassTimeout}).IsTransient())
}
