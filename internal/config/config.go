package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Prompt assembly strategies. The two observed front-end builds differed here,
// so the style is configuration instead of duplicated code paths.
const (
	PromptStyleMessages = "messages"
	PromptStyleFlat     = "flat"
)

// Config aggregates every configuration surface of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
	// ShutdownTimeout bounds the graceful drain on termination.
	ShutdownTimeout time.Duration
}

func loadServerConfig() (ServerConfig, error) {
	shutdown := 10 * time.Second
	if override, err := parseOptionalIntEnv("SHUTDOWN_TIMEOUT_SECONDS"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ServerConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS value %d: must be at least 1", *override)
		}
		shutdown = time.Duration(*override) * time.Second
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port, ShutdownTimeout: shutdown}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, ShutdownTimeout: shutdown}, nil
}

// AIConfig describes the chat model provider plus the invocation policy.
type AIConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	// Models is the enumerated set of selectable model identifiers.
	// The first entry is the default.
	Models      []string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// PromptStyle selects how history and persona are assembled into a
	// request: PromptStyleMessages or PromptStyleFlat.
	PromptStyle string
	// MaxRetries bounds attempts per exchange, including the first one.
	MaxRetries int
	// BackoffCap caps the exponential retry delay.
	BackoffCap time.Duration
	// HistoryWindow is the number of trailing turns sent with each request.
	HistoryWindow int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return len(c.Models) > 0 && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// DefaultModel returns the first entry of the enumerated model set.
func (c AIConfig) DefaultModel() string {
	if len(c.Models) == 0 {
		return ""
	}
	return c.Models[0]
}

// NewChatModel creates a provider model instance bound to the given model id.
func (c AIConfig) NewChatModel(ctx context.Context, modelName string) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY or the ARK_ACCESS_KEY/ARK_SECRET_KEY pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       modelName,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	style := strings.ToLower(getEnvOrDefault("AI_PROMPT_STYLE", PromptStyleMessages))
	if style != PromptStyleMessages && style != PromptStyleFlat {
		return AIConfig{}, fmt.Errorf("invalid AI_PROMPT_STYLE value %q: want %q or %q", style, PromptStyleMessages, PromptStyleFlat)
	}

	maxRetries := 3
	if override, err := parseOptionalIntEnv("AI_MAX_RETRIES"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("invalid AI_MAX_RETRIES value %d: must be at least 1", *override)
		}
		maxRetries = *override
	}

	capSeconds := 8
	if override, err := parseOptionalIntEnv("AI_BACKOFF_CAP_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("invalid AI_BACKOFF_CAP_SECONDS value %d: must be at least 1", *override)
		}
		capSeconds = *override
	}

	window := 12
	if override, err := parseOptionalIntEnv("AI_HISTORY_WINDOW"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return AIConfig{}, fmt.Errorf("invalid AI_HISTORY_WINDOW value %d: must not be negative", *override)
		}
		window = *override
	}

	return AIConfig{
		APIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Models:        loadModelList(),
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		PromptStyle:   style,
		MaxRetries:    maxRetries,
		BackoffCap:    time.Duration(capSeconds) * time.Second,
		HistoryWindow: window,
	}, nil
}

// loadModelList parses the enumerated model set from CHAT_MODELS, falling
// back to the single Model variable for compatibility with older deploys.
func loadModelList() []string {
	raw := strings.TrimSpace(os.Getenv("CHAT_MODELS"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("Model"))
	}
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	models := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		models = append(models, name)
	}
	return models
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
