// Package llm talks to the OpenAI-compatible chat endpoint that drafts
// segment summaries and image prompts.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultBaseURL     = "https://ark.cn-beijing.volces.com/api/v3"
	defaultModel       = "doubao-seed-1.6-thinking"
	defaultMaxTokens   = 6000
	defaultTemperature = 0.6
	defaultTimeout     = 120 * time.Second
	defaultAttempts    = 3
	defaultRetryDelay  = time.Second
)

// ErrEmptyResponse is returned when the model replies with no choices.
var ErrEmptyResponse = errors.New("empty response from API")

// Config holds configuration for the chat client.
type Config struct {
	APIKey      string
	BaseURL     string        // OpenAI-compatible endpoint (default: Ark)
	Model       string        // Chat model (default: doubao-seed-1.6-thinking)
	MaxTokens   int           // Completion budget (default: 6000)
	Temperature float64       // Sampling temperature (default: 0.6)
	Timeout     time.Duration // HTTP timeout (default: 120s)
	Attempts    int           // Attempts per completion (default: 3)
	RetryDelay  time.Duration // Base delay between attempts (default: 1s)
	HTTPClient  *http.Client  // Optional (tests)
}

// Client is a chat completion client.
type Client struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	attempts    uint
	retryDelay  time.Duration
}

// NewClient creates a new chat client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// the SDK does not retry; Complete does
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &Client{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		attempts:    uint(cfg.Attempts),
		retryDelay:  cfg.RetryDelay,
	}
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single user prompt and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	}

	var content string
	err := retry.Do(
		func() error {
			resp, err := c.client.Chat.Completions.New(ctx, params)
			if err != nil {
				return mapError(err)
			}
			if len(resp.Choices) == 0 {
				return ErrEmptyResponse
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// statusError is a non-2xx reply from the API.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &statusError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return err
}

// isRetryable reports whether another attempt could succeed. Client errors
// other than rate limiting are final.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}
