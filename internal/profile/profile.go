package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	LLMProvider        string // Provider identifier: openai, deepseek, zai, siliconflow, dashscope, openrouter, gemini, ollama
	LLMAPIKey          string
	LLMBaseURL         string // optional, has default per provider
	LLMModel           string // chat and briefing model
	LLMStructuredModel string // summary and deck content model (default: LLMModel)
	LLMImageModel      string // slide illustrations (default: dall-e-3)
	LLMTimeout         int    // per text call, seconds (default: 120)
	LLMImageTimeout    int    // per image call, seconds (default: 90)
	ImageRPS           float64
	ImageConcurrency   int

	// Orchestration
	ActivationDwellMs int
	SessionCapacity   int
	SessionIdleMins   int

	// Other configurations
	Mode       string
	Addr       string
	Port       int
	PromptsDir string
	LogLevel   string
	Version    string
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL or LLM_MODEL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o",
	},
	"gemini": {
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		Model:   "gemini-2.5-flash",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = strings.ToLower(getEnvOrDefault("BOARDROOM_LLM_PROVIDER", "openai"))
	p.LLMAPIKey = getEnvOrDefault("BOARDROOM_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("BOARDROOM_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("BOARDROOM_LLM_MODEL", "")
	p.LLMStructuredModel = getEnvOrDefault("BOARDROOM_LLM_STRUCTURED_MODEL", "")
	p.LLMImageModel = getEnvOrDefault("BOARDROOM_LLM_IMAGE_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("BOARDROOM_LLM_TIMEOUT_SECONDS", 120)
	p.LLMImageTimeout = getEnvOrDefaultInt("BOARDROOM_LLM_IMAGE_TIMEOUT_SECONDS", 90)
	p.ImageRPS = getEnvOrDefaultFloat("BOARDROOM_IMAGE_RPS", 0)
	p.ImageConcurrency = getEnvOrDefaultInt("BOARDROOM_IMAGE_CONCURRENCY", 8)

	p.ActivationDwellMs = getEnvOrDefaultInt("BOARDROOM_ACTIVATION_DWELL_MS", 1200)
	p.SessionCapacity = getEnvOrDefaultInt("BOARDROOM_SESSION_CAPACITY", 1000)
	p.SessionIdleMins = getEnvOrDefaultInt("BOARDROOM_SESSION_IDLE_MINUTES", 120)

	if p.PromptsDir == "" {
		p.PromptsDir = getEnvOrDefault("BOARDROOM_PROMPTS_DIR", "")
	}
	if p.LogLevel == "" {
		p.LogLevel = getEnvOrDefault("BOARDROOM_LOG_LEVEL", "info")
	}

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, treating as OpenAI-compatible", "provider", p.LLMProvider)
		return
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}
}

func checkDir(dir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dir) {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		dir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dir = strings.TrimRight(dir, "\\/")
	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to access prompts folder %s", dir)
	}
	if !info.IsDir() {
		return "", errors.Errorf("prompts path %s is not a directory", dir)
	}
	return dir, nil
}

// Validate normalizes the profile and reports settings the server cannot start with.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.LLMProvider != "ollama" && p.LLMAPIKey == "" {
		return errors.New("BOARDROOM_LLM_API_KEY is required")
	}
	if p.LLMModel == "" {
		return errors.Errorf("no model configured for provider %q", p.LLMProvider)
	}
	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = 120
	}
	if p.ImageConcurrency <= 0 {
		p.ImageConcurrency = 8
	}
	if p.ActivationDwellMs < 0 {
		p.ActivationDwellMs = 0
	}

	if p.PromptsDir != "" {
		dir, err := checkDir(p.PromptsDir)
		if err != nil {
			slog.Error("failed to check prompts dir", slog.String("dir", p.PromptsDir), slog.String("error", err.Error()))
			return err
		}
		p.PromptsDir = dir
	}

	return nil
}
