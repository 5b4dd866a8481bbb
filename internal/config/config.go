package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Image backends accepted by IMAGE_GENERATION_SERVICE.
const (
	ServiceVolcano = "volcano"
	ServiceOpenAI  = "openai"
	ServiceDemo    = "demo"
)

// placeholderKeys are sample values from .env templates that mean "unset".
var placeholderKeys = map[string]bool{
	"YOUR_API_KEY_HERE":        true,
	"YOUR_REAL_API_KEY_HERE":   true,
	"YOUR_OPENAI_API_KEY_HERE": true,
}

// Config holds all application configuration.
type Config struct {
	// Database
	DatabasePath string

	// HTTP
	HTTPAddr    string
	CORSOrigins []string

	// Ark (OpenAI-compatible) chat model
	ArkAPIKey      string
	ArkBaseURL     string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Image generation
	ImageService      string // volcano, openai or demo (default: demo)
	VolcanoImageModel string
	VolcanoImageSize  string
	OpenAIAPIKey      string
	OpenAIImageModel  string
	OpenAIImageSize   string
	ImageTimeout      time.Duration
	ImageConcurrency  int
	ImageRateInterval time.Duration
	RetryAttempts     int

	// Card rendering
	FontPath string
	CacheTTL time.Duration

	// Prompt archive (disabled when VecLitePath is empty)
	VecLitePath   string
	VecLiteConfig string

	// Requests
	DefaultStyle  string
	MaxTextLength int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:      getEnv("DATABASE_PATH", "data/postcraft.db"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		ArkAPIKey:         getKey("VOLCANO_ARK_API_KEY"),
		ArkBaseURL:        getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		LLMModel:          getEnv("LLM_MODEL", "doubao-seed-1.6-thinking"),
		ImageService:      strings.ToLower(getEnv("IMAGE_GENERATION_SERVICE", ServiceDemo)),
		VolcanoImageModel: getEnv("VOLCANO_IMAGE_MODEL", "doubao-seedream-4-0-250828"),
		VolcanoImageSize:  getEnv("VOLCANO_IMAGE_SIZE", "768x1024"),
		OpenAIAPIKey:      getKey("OPENAI_API_KEY"),
		OpenAIImageModel:  getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIImageSize:   getEnv("OPENAI_IMAGE_SIZE", "1024x1792"),
		FontPath:          getEnv("FONT_PATH", ""),
		VecLitePath:       getEnv("VECLITE_PATH", ""),
		VecLiteConfig:     getEnv("VECLITE_CONFIG", ""),
		DefaultStyle:      getEnv("DEFAULT_STYLE", "现代简约风格"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"LLM_TIMEOUT", "120s", &cfg.LLMTimeout},
		{"IMAGE_TIMEOUT", "90s", &cfg.ImageTimeout},
		{"IMAGE_RATE_INTERVAL", "1s", &cfg.ImageRateInterval},
		{"CACHE_TTL", "30m", &cfg.CacheTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	ints := []struct {
		key string
		def string
		dst *int
	}{
		{"LLM_MAX_TOKENS", "6000", &cfg.LLMMaxTokens},
		{"IMAGE_CONCURRENCY", "3", &cfg.ImageConcurrency},
		{"RETRY_ATTEMPTS", "3", &cfg.RetryAttempts},
		{"MAX_TEXT_LENGTH", "10000", &cfg.MaxTextLength},
	}
	for _, n := range ints {
		v, err := strconv.Atoi(getEnv(n.key, n.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", n.key, err)
		}
		*n.dst = v
	}

	temp, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.6"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}
	cfg.LLMTemperature = temp

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be positive")
	}
	return nil
}

// LLMEnabled reports whether the chat model can be used.
func (c *Config) LLMEnabled() bool {
	return c.ArkAPIKey != ""
}

// ArchiveEnabled reports whether the prompt archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.VecLitePath != ""
}

// ValidateForLLM checks configuration needed to call the chat model.
func (c *Config) ValidateForLLM() error {
	if c.ArkAPIKey == "" {
		return fmt.Errorf("VOLCANO_ARK_API_KEY is required for model analysis")
	}
	if c.ArkBaseURL == "" {
		return fmt.Errorf("ARK_BASE_URL is required for model analysis")
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	return nil
}

// ValidateForImages checks the image backend settings. A remote backend
// without its key is allowed; it falls back to demo at startup.
func (c *Config) ValidateForImages() error {
	switch c.ImageService {
	case ServiceVolcano, ServiceOpenAI, ServiceDemo:
	default:
		return fmt.Errorf("invalid IMAGE_GENERATION_SERVICE: %s (must be 'volcano', 'openai' or 'demo')", c.ImageService)
	}
	if c.ImageConcurrency <= 0 {
		return fmt.Errorf("IMAGE_CONCURRENCY must be positive")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("RETRY_ATTEMPTS must be positive")
	}
	return nil
}

// ValidateForArchive checks configuration needed for the prompt archive.
func (c *Config) ValidateForArchive() error {
	if c.VecLitePath == "" {
		return fmt.Errorf("VECLITE_PATH is required for the prompt archive")
	}
	return nil
}

// ValidateForServe checks configuration needed for serve mode.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return c.ValidateForImages()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getKey reads an API key, treating template placeholders as unset.
func getKey(key string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if placeholderKeys[val] {
		return ""
	}
	return val
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
