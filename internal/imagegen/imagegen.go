// Package imagegen produces an image URL for a segment's image prompt.
package imagegen

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/abdulachik/postcraft/internal/matcher"
)

// Backend names.
const (
	Volcano = "volcano"
	OpenAI  = "openai"
	Demo    = "demo"
)

// Request describes one image to produce.
type Request struct {
	Prompt      string
	StylePrompt string
	SegmentID   int
	Size        string // ratio like "3:4" or pixels like "768x1024"
}

// Generator produces an image URL for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Config selects and configures a backend.
type Config struct {
	Service string // volcano, openai or demo

	ArkAPIKey     string
	ArkBaseURL    string
	VolcanoModel  string
	VolcanoSize   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAISize    string
	RemoteOptions RemoteConfig // shared timeout and retry settings
}

// New returns the configured backend. Backends without credentials fall
// back to stock images from m.
func New(cfg Config, m *matcher.Matcher) Generator {
	stock := NewStockGenerator(m)

	switch strings.ToLower(strings.TrimSpace(cfg.Service)) {
	case Volcano:
		if cfg.ArkAPIKey == "" {
			slog.Warn("volcano image backend selected without API key, using stock images")
			return stock
		}
		rc := cfg.RemoteOptions
		rc.Name = Volcano
		rc.APIKey = cfg.ArkAPIKey
		rc.BaseURL = cfg.ArkBaseURL
		rc.Model = cfg.VolcanoModel
		rc.DefaultSize = cfg.VolcanoSize
		rc.Sizes = volcanoSizes
		return NewRemoteGenerator(rc)

	case OpenAI:
		if cfg.OpenAIAPIKey == "" {
			slog.Warn("openai image backend selected without API key, using stock images")
			return stock
		}
		rc := cfg.RemoteOptions
		rc.Name = OpenAI
		rc.APIKey = cfg.OpenAIAPIKey
		rc.Model = cfg.OpenAIModel
		rc.DefaultSize = cfg.OpenAISize
		rc.Sizes = openAISizes
		return NewRemoteGenerator(rc)

	default:
		return stock
	}
}

var (
	volcanoSizes = map[string]string{
		"3:4":  "768x1024",
		"9:16": "720x1280",
		"1:1":  "1024x1024",
		"4:3":  "1024x768",
		"16:9": "1280x720",
	}
	openAISizes = map[string]string{
		"3:4":  "1024x1792",
		"9:16": "1024x1792",
		"1:1":  "1024x1024",
		"4:3":  "1792x1024",
		"16:9": "1792x1024",
	}

	pixelSize = regexp.MustCompile(`^\d+x\d+$`)
)

// ResolveSize maps a requested size to a pixel size using sizes. Explicit
// WxH values pass through; anything unknown yields def.
func ResolveSize(requested string, sizes map[string]string, def string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if pixelSize.MatchString(requested) {
		return requested
	}
	if s, ok := sizes[requested]; ok {
		return s
	}
	return def
}

// StockGenerator picks deterministic stock images with the matcher.
type StockGenerator struct {
	matcher *matcher.Matcher
}

// NewStockGenerator creates a new stock image generator.
func NewStockGenerator(m *matcher.Matcher) *StockGenerator {
	return &StockGenerator{matcher: m}
}

// Name returns the backend identifier.
func (g *StockGenerator) Name() string {
	return Demo
}

// Generate returns the matched stock image URL. It ignores the style prompt
// and size.
func (g *StockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	match := g.matcher.Match(req.Prompt, req.SegmentID)
	slog.Debug("stock image matched", "segment", req.SegmentID, "theme", match.Theme, "index", match.Index)
	return match.URL, nil
}
