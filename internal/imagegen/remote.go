package imagegen

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

// ErrNoImage is returned when the backend replies without an image URL.
var ErrNoImage = errors.New("no image in response")

// RemoteConfig holds configuration for an OpenAI-compatible image backend.
type RemoteConfig struct {
	Name        string
	APIKey      string
	BaseURL     string            // Optional; the SDK default is used when empty
	Model       string
	DefaultSize string            // Used when the requested size is unknown
	Sizes       map[string]string // Ratio to pixel size
	Timeout     time.Duration     // HTTP timeout (default: 90s)
	Attempts    int               // Attempts per image (default: 3)
	RetryDelay  time.Duration     // Base delay between attempts (default: 2s)
	HTTPClient  *http.Client      // Optional (tests)
}

// RemoteGenerator calls an OpenAI-compatible images endpoint.
type RemoteGenerator struct {
	name        string
	client      openai.Client
	model       string
	defaultSize string
	sizes       map[string]string
	attempts    uint
	retryDelay  time.Duration
}

// NewRemoteGenerator creates a new remote image generator.
func NewRemoteGenerator(cfg RemoteConfig) *RemoteGenerator {
	if cfg.Name == "" {
		cfg.Name = OpenAI
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.DefaultSize == "" {
		cfg.DefaultSize = "1024x1024"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &RemoteGenerator{
		name:        cfg.Name,
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		defaultSize: cfg.DefaultSize,
		sizes:       cfg.Sizes,
		attempts:    uint(cfg.Attempts),
		retryDelay:  cfg.RetryDelay,
	}
}

// Name returns the backend identifier.
func (g *RemoteGenerator) Name() string {
	return g.name
}

// Generate requests one image and returns its URL. The style prompt is
// prefixed to the image prompt.
func (g *RemoteGenerator) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if style := strings.TrimSpace(req.StylePrompt); style != "" {
		prompt = style + ", " + prompt
	}

	params := openai.ImageGenerateParams{
		Prompt:         prompt,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(ResolveSize(req.Size, g.sizes, g.defaultSize)),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	}
	if g.model != "" {
		params.Model = openai.ImageModel(g.model)
	}

	var url string
	err := retry.Do(
		func() error {
			resp, err := g.client.Images.Generate(ctx, params)
			if err != nil {
				return mapError(err)
			}
			if len(resp.Data) == 0 || resp.Data[0].URL == "" {
				return retry.Unrecoverable(ErrNoImage)
			}
			url = resp.Data[0].URL
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("%s image generate: %w", g.name, err)
	}
	return url, nil
}

func mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	wrapped := fmt.Errorf("API error (status %d): %s", apiErr.StatusCode, apiErr.Message)
	if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
		return retry.Unrecoverable(wrapped)
	}
	return wrapped
}
