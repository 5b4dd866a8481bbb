// Package pipeline turns long text into segments with image prompts and
// turns segments into finished image cards.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/abdulachik/postcraft/internal/analyzer"
	"github.com/abdulachik/postcraft/internal/health"
	"github.com/abdulachik/postcraft/internal/imagegen"
	"github.com/abdulachik/postcraft/internal/llm"
	"github.com/abdulachik/postcraft/internal/matcher"
	"github.com/abdulachik/postcraft/internal/prompt"
	"github.com/abdulachik/postcraft/internal/segmenter"
	"github.com/abdulachik/postcraft/internal/style"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

// Config wires the pipeline's collaborators. Only Matcher is required to
// be usable; every other collaborator degrades to a local fallback.
type Config struct {
	Analyzer   SegmentAnalyzer
	Generator  imagegen.Generator
	Matcher    *matcher.Matcher
	Compositor Compositor
	Store      Store
	Archive    Archive
	Notifier   Notifier
	Health     *health.Tracker
	Segmenter  *segmenter.Segmenter

	MaxTextLength      int           // Runes (default: 10000)
	DefaultMaxSegments int           // Used when a request sets none (default: 10)
	SecondsPerImage    int           // For estimated_time (default: 30)
	DefaultImageSize   string        // (default: 3:4)
	Concurrency        int           // Segments processed at once (default: 3)
	RateInterval       time.Duration // Min gap between backend calls; 0 disables
	RateBurst          int           // (default: 2)
	CacheTTL           time.Duration // 0 disables caching
}

// Pipeline runs analysis and generation requests. It is safe for
// concurrent use.
type Pipeline struct {
	analyzer   SegmentAnalyzer
	generator  imagegen.Generator
	matcher    *matcher.Matcher
	compositor Compositor
	store      Store
	archive    Archive
	notifier   Notifier
	health     *health.Tracker
	segmenter  *segmenter.Segmenter
	limiter    *rate.Limiter

	analyses *cache.Cache
	cards    *cache.Cache

	maxTextLength      int
	defaultMaxSegments int
	secondsPerImage    int
	defaultImageSize   string
	concurrency        int
}

// New creates a pipeline, filling defaults for unset fields.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Matcher == nil {
		m, err := matcher.New(matcher.Config{})
		if err != nil {
			return nil, fmt.Errorf("create matcher: %w", err)
		}
		cfg.Matcher = m
	}
	if cfg.Generator == nil {
		cfg.Generator = imagegen.NewStockGenerator(cfg.Matcher)
	}
	if cfg.Health == nil {
		cfg.Health = health.NewTracker()
	}
	if cfg.Segmenter == nil {
		cfg.Segmenter = segmenter.New(segmenter.DefaultConfig())
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 10000
	}
	if cfg.DefaultMaxSegments == 0 {
		cfg.DefaultMaxSegments = 10
	}
	if cfg.SecondsPerImage == 0 {
		cfg.SecondsPerImage = 30
	}
	if cfg.DefaultImageSize == "" {
		cfg.DefaultImageSize = "3:4"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 2
	}

	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	p := &Pipeline{
		analyzer:           cfg.Analyzer,
		generator:          cfg.Generator,
		matcher:            cfg.Matcher,
		compositor:         cfg.Compositor,
		store:              cfg.Store,
		archive:            cfg.Archive,
		notifier:           cfg.Notifier,
		health:             cfg.Health,
		segmenter:          cfg.Segmenter,
		limiter:            rate.NewLimiter(limit, cfg.RateBurst),
		maxTextLength:      cfg.MaxTextLength,
		defaultMaxSegments: cfg.DefaultMaxSegments,
		secondsPerImage:    cfg.SecondsPerImage,
		defaultImageSize:   cfg.DefaultImageSize,
		concurrency:        cfg.Concurrency,
	}
	if cfg.CacheTTL > 0 {
		p.analyses = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
		p.cards = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return p, nil
}

// Health returns the tracker the pipeline reports to.
func (p *Pipeline) Health() *health.Tracker {
	return p.health
}

// Backend returns the name of the image backend in use.
func (p *Pipeline) Backend() string {
	return p.generator.Name()
}

// Matcher returns the stock image matcher.
func (p *Pipeline) Matcher() *matcher.Matcher {
	return p.matcher
}

func (p *Pipeline) validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Message: MsgEmptyText}
	}
	if utf8.RuneCountInString(text) > p.maxTextLength {
		return &ValidationError{Message: MsgTextTooLong}
	}
	return nil
}

// Analyze splits text into segments and drafts a summary and image prompt
// for each. The model's drafts are used where available; every missing
// piece is generated locally.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if err := p.validateText(req.Text); err != nil {
		return nil, err
	}

	maxSegments := req.MaxSegments
	if maxSegments <= 0 {
		maxSegments = p.defaultMaxSegments
	}

	key := analysisKey(req.Text, req.StylePrompt, maxSegments)
	if p.analyses != nil {
		if cached, ok := p.analyses.Get(key); ok {
			slog.Debug("analysis cache hit")
			result := cached.(AnalyzeResult)
			result.Segments = slices.Clone(result.Segments)
			return &result, nil
		}
	}

	textType := segmenter.Classify(req.Text)
	chunks := p.segmenter.Split(req.Text, textType)
	slog.Info("text segmented", "text_type", textType, "chunks", len(chunks))

	tmpl := style.Resolve(analyzer.Analyze(req.Text), req.StylePrompt)

	styleHint := strings.TrimSpace(req.StylePrompt)
	if styleHint == "" || styleHint == style.DefaultHint {
		styleHint = tmpl.BaseStyle
	}

	drafts := p.draft(ctx, llm.Request{TextType: textType, StylePrompt: styleHint, Chunks: chunks})

	segments := make([]TextSegment, 0, len(chunks))
	for i, chunk := range chunks {
		segments = append(segments, localFill(i+1, chunk, draftAt(drafts, i), tmpl, textType))
	}

	if len(segments) > maxSegments {
		segments = segments[:maxSegments]
	}

	source := "local"
	if drafts != nil {
		source = "llm"
	}

	result := AnalyzeResult{
		Segments:      segments,
		TotalCount:    len(segments),
		EstimatedTime: len(segments) * p.secondsPerImage,
		TextType:      string(textType),
		Style:         tmpl.Name,
		Source:        source,
	}

	p.archiveSegments(ctx, segments, tmpl.Name, textType)

	if p.analyses != nil {
		stored := result
		stored.Segments = slices.Clone(segments)
		p.analyses.Set(key, stored, cache.DefaultExpiration)
	}
	return &result, nil
}

// draft asks the analyzer for drafts and returns nil when local generation
// should be used instead.
func (p *Pipeline) draft(ctx context.Context, req llm.Request) []llm.Draft {
	if p.analyzer == nil {
		return nil
	}

	res := p.analyzer.Analyze(ctx, req)
	if errors.Is(res.Err, llm.ErrNotConfigured) {
		return nil
	}
	p.health.Record(health.LLM, res.Err)

	if !res.OK() {
		slog.Warn("llm analysis failed, using local generation", "error", res.Err)
		return nil
	}
	if len(res.Drafts) == 0 {
		slog.Warn("llm returned no drafts, using local generation")
		return nil
	}
	if len(res.Drafts) != len(req.Chunks) {
		slog.Warn("llm draft count mismatch", "drafts", len(res.Drafts), "chunks", len(req.Chunks))
	}
	return res.Drafts
}

func draftAt(drafts []llm.Draft, i int) llm.Draft {
	if i < len(drafts) {
		return drafts[i]
	}
	return llm.Draft{}
}

// localFill builds segment id from chunk, keeping whatever the draft
// supplied. The segment content is always the source chunk.
func localFill(id int, chunk string, d llm.Draft, tmpl style.Template, textType segmenter.TextType) TextSegment {
	seg := TextSegment{
		ID:          id,
		Content:     chunk,
		Summary:     strings.TrimSpace(d.Summary),
		ImagePrompt: prompt.Truncate(strings.TrimSpace(d.ImagePrompt), prompt.MaxLength),
	}
	if seg.Summary == "" {
		seg.Summary = prompt.Summary(chunk, id, textType)
	}
	if seg.ImagePrompt == "" {
		seg.ImagePrompt = prompt.Compose(analyzer.Analyze(chunk), tmpl, chunk, textType)
	}
	return seg
}

func (p *Pipeline) archiveSegments(ctx context.Context, segments []TextSegment, styleName string, textType segmenter.TextType) {
	if p.archive == nil || len(segments) == 0 {
		return
	}

	entries := make([]vectorstore.Entry, 0, len(segments))
	for _, s := range segments {
		entries = append(entries, vectorstore.Entry{
			SegmentID: s.ID,
			Content:   s.Content,
			Summary:   s.Summary,
			Prompt:    s.ImagePrompt,
			Style:     styleName,
			TextType:  string(textType),
		})
	}

	err := p.archive.Archive(ctx, entries)
	p.health.Record(health.Archive, err)
	if err != nil {
		slog.Warn("archive segments failed", "error", err)
	}
}
