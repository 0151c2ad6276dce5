package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Gateway errors. Callers classify failures with errors.Is.
var (
	ErrTimeout           = errors.New("model gateway timeout")
	ErrEmptyResponse     = errors.New("empty response from model")
	ErrMalformedResponse = errors.New("malformed structured response")
)

// Part is an inline binary payload attached to a message (image or document).
type Part struct {
	Data     []byte
	MimeType string
	FileName string
}

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
	Parts   []Part
}

// LLMCallStats represents statistics for a single LLM call.
type LLMCallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	CacheReadTokens  int   `json:"cache_read_tokens,omitempty"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// StructuredRequest asks for a JSON document constrained by Schema.
type StructuredRequest struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     *JSONSchema
	// Strict requires every property to be listed as required.
	Strict bool
}

// AspectRatio is the requested shape of a generated image.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// Image is a generated image payload.
type Image struct {
	Data     []byte
	MimeType string
}

// Gateway is the model gateway used by the orchestrator and the deck pipeline.
type Gateway interface {
	// StructuredSummary returns a JSON object matching req.Schema.
	StructuredSummary(ctx context.Context, req StructuredRequest) (json.RawMessage, *LLMCallStats, error)

	// FreeformReport returns a long-form text report for a single prompt.
	FreeformReport(ctx context.Context, system, prompt string) (string, *LLMCallStats, error)

	// ConversationalReply continues a multi-turn conversation. History entries
	// may carry inline parts.
	ConversationalReply(ctx context.Context, system string, history []Message) (string, *LLMCallStats, error)

	// StructuredSlides returns a JSON document holding the slide list.
	StructuredSlides(ctx context.Context, req StructuredRequest) (json.RawMessage, *LLMCallStats, error)

	// ImageFromDescription generates one image. A nil image with a nil error
	// means the provider returned nothing.
	ImageFromDescription(ctx context.Context, prompt string, aspect AspectRatio) (*Image, error)
}

// Config represents model gateway configuration.
type Config struct {
	Provider        string // openai, deepseek, siliconflow, openrouter, gemini, ollama, ...
	Model           string // chat and report model
	StructuredModel string // JSON-schema calls (default: Model)
	ImageModel      string // default: dall-e-3
	APIKey          string
	BaseURL         string
	MaxTokens       int     // 0 lets the provider decide
	Temperature     float32 // default: 0.7
	Timeout         int     // per text call, seconds (default: 120)
	ImageTimeout    int     // per image call, seconds (default: 90)
	ImageRPS        float64 // image calls per second, 0 = unlimited
	ImageBurst      int     // default: 4
}

var providerBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"zai":         "https://open.bigmodel.cn/api/paas/v4",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"gemini":      "https://generativelanguage.googleapis.com/v1beta/openai",
	"ollama":      "http://localhost:11434/v1",
}

// Service is the go-openai backed Gateway.
type Service struct {
	client          *openai.Client
	provider        string
	model           string
	structuredModel string
	imageModel      string
	maxTokens       int
	temperature     float32
	timeout         time.Duration
	imageTimeout    time.Duration
	imageLimiter    *rate.Limiter
}

// NewService creates a new model gateway.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientConfig.BaseURL = cfg.BaseURL
	case providerBaseURLs[cfg.Provider] != "":
		clientConfig.BaseURL = providerBaseURLs[cfg.Provider]
	case cfg.Provider != "" && cfg.Provider != "openai":
		slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	imageTimeout := cfg.ImageTimeout
	if imageTimeout <= 0 {
		imageTimeout = 90
	}
	structuredModel := cfg.StructuredModel
	if structuredModel == "" {
		structuredModel = cfg.Model
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.ImageRPS > 0 {
		burst := cfg.ImageBurst
		if burst <= 0 {
			burst = 4
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.ImageRPS), burst)
	}

	return &Service{
		client:          openai.NewClientWithConfig(clientConfig),
		provider:        cfg.Provider,
		model:           cfg.Model,
		structuredModel: structuredModel,
		imageModel:      imageModel,
		maxTokens:       cfg.MaxTokens,
		temperature:     temperature,
		timeout:         time.Duration(timeout) * time.Second,
		imageTimeout:    time.Duration(imageTimeout) * time.Second,
		imageLimiter:    limiter,
	}, nil
}

var _ Gateway = (*Service)(nil)

func (s *Service) StructuredSummary(ctx context.Context, req StructuredRequest) (json.RawMessage, *LLMCallStats, error) {
	return s.structured(ctx, req)
}

func (s *Service) StructuredSlides(ctx context.Context, req StructuredRequest) (json.RawMessage, *LLMCallStats, error) {
	return s.structured(ctx, req)
}

func (s *Service) FreeformReport(ctx context.Context, system, prompt string) (string, *LLMCallStats, error) {
	messages := FormatMessages(system, prompt, nil)
	return s.chat(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	})
}

func (s *Service) ConversationalReply(ctx context.Context, system string, history []Message) (string, *LLMCallStats, error) {
	messages := make([]Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, SystemPrompt(system))
	}
	messages = append(messages, history...)
	return s.chat(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	})
}

func (s *Service) structured(ctx context.Context, req StructuredRequest) (json.RawMessage, *LLMCallStats, error) {
	if req.Schema == nil {
		return nil, nil, errors.New("structured request without schema")
	}
	name := req.SchemaName
	if name == "" {
		name = "response"
	}

	content, stats, err := s.chat(ctx, openai.ChatCompletionRequest{
		Model:       s.structuredModel,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(FormatMessages(req.System, req.Prompt, nil)),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: req.Schema,
				Strict: req.Strict,
			},
		},
	})
	if err != nil {
		return nil, nil, err
	}

	raw := stripCodeFence(content)
	if !json.Valid([]byte(raw)) {
		slog.Warn("LLM: structured response is not valid JSON",
			"schema", name,
			"content_length", len(content),
		)
		return nil, stats, fmt.Errorf("%w: schema %s", ErrMalformedResponse, name)
	}
	return json.RawMessage(raw), stats, nil
}

func (s *Service) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, *LLMCallStats, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.Debug("LLM: Chat request",
		"model", req.Model,
		"messages_count", len(req.Messages),
		"structured", req.ResponseFormat != nil,
	)

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			slog.Error("LLM: Chat request timed out", "model", req.Model, "timeout", s.timeout)
			return "", nil, fmt.Errorf("%w after %s: %v", ErrTimeout, s.timeout, err)
		}
		slog.Error("LLM: Chat request failed", "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		slog.Warn("LLM: Empty response from LLM", "model", req.Model)
		return "", nil, ErrEmptyResponse
	}

	totalDuration := time.Since(startTime)
	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		stats.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	slog.Debug("LLM: Chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *Service) ImageFromDescription(ctx context.Context, prompt string, aspect AspectRatio) (*Image, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.imageTimeout)
	defer cancel()

	if err := s.imageLimiter.Wait(callCtx); err != nil {
		return nil, fmt.Errorf("%w: image rate limiter: %v", ErrTimeout, err)
	}

	startTime := time.Now()
	resp, err := s.client.CreateImage(callCtx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.imageModel,
		N:              1,
		Size:           imageSize(aspect),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, s.imageTimeout, err)
		}
		return nil, fmt.Errorf("LLM image generation failed: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		slog.Debug("LLM: image generation returned no data", "model", s.imageModel)
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: image payload: %v", ErrMalformedResponse, err)
	}

	slog.Debug("LLM: image generated",
		"model", s.imageModel,
		"bytes", len(data),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return &Image{Data: data, MimeType: "image/png"}, nil
}

// Warmup sends a lightweight ping request to establish and warm up the LLM connection.
func (s *Service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("LLM: starting connection warmup",
		"provider", s.provider,
		"model", s.model,
	)

	startTime := time.Now()
	_, err := s.client.CreateChatCompletion(warmupCtx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	slog.Info("LLM: connection warmed up successfully",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

func imageSize(aspect AspectRatio) string {
	switch aspect {
	case AspectLandscape:
		return openai.CreateImageSize1792x1024
	case AspectPortrait:
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant", "model":
			role = openai.ChatMessageRoleAssistant
		}

		// Inline parts are only accepted on user messages.
		if len(m.Parts) == 0 || role != openai.ChatMessageRoleUser {
			llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
			continue
		}

		parts := make([]openai.ChatMessagePart, 0, len(m.Parts)+1)
		if m.Content != "" {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: m.Content,
			})
		}
		for _, p := range m.Parts {
			parts = append(parts, convertPart(p))
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, MultiContent: parts}
	}
	return llmMessages
}

// convertPart maps an inline payload to a chat content part. Images travel
// as data URLs. Text documents are inlined verbatim. Other documents are
// described by a label, since chat endpoints only accept image data URLs.
func convertPart(p Part) openai.ChatMessagePart {
	mime := strings.ToLower(p.MimeType)
	label := p.FileName
	if label == "" {
		label = "attachment"
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		}
	case strings.HasPrefix(mime, "text/") || mime == "application/json":
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("[Attached file: %s]\n%s", label, string(p.Data)),
		}
	default:
		if mime == "" {
			mime = "application/octet-stream"
		}
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("[Attached file: %s (%s, %d bytes)]", label, mime, len(p.Data)),
		}
	}
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages formats messages for prompt templates.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
