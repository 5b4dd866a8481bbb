package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdulachik/postcraft/internal/segmenter"
)

// ErrNotConfigured means no chat client is available.
var ErrNotConfigured = errors.New("llm not configured")

// Completer sends a prompt and returns the model's reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Request describes one analysis call.
type Request struct {
	TextType    segmenter.TextType
	StylePrompt string
	Chunks      []string
}

// Result is the outcome of an analysis call. Exactly one of Drafts or Err
// is meaningful; OK selects which.
type Result struct {
	Drafts []Draft
	Err    error
}

// OK reports whether the drafts can be used.
func (r Result) OK() bool {
	return r.Err == nil
}

// Analyzer drafts summaries and image prompts for text chunks.
type Analyzer struct {
	completer Completer
}

// NewAnalyzer creates a new analyzer. A nil completer yields an analyzer
// whose results always carry ErrNotConfigured.
func NewAnalyzer(c Completer) *Analyzer {
	return &Analyzer{completer: c}
}

// Analyze asks the model for drafts. It never fails outright; problems are
// reported through Result.Err so callers can fall back to local generation.
func (a *Analyzer) Analyze(ctx context.Context, req Request) Result {
	if a == nil || a.completer == nil {
		return Result{Err: ErrNotConfigured}
	}
	if len(req.Chunks) == 0 {
		return Result{}
	}

	prompt := BuildPrompt(req.TextType, req.StylePrompt, req.Chunks)

	response, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{Err: fmt.Errorf("complete: %w", err)}
	}
	slog.Debug("llm response received", "length", len(response))

	drafts, err := ParseDrafts(response)
	if err != nil {
		return Result{Err: err}
	}

	slog.Debug("llm drafts parsed", "drafts", len(drafts), "chunks", len(req.Chunks))
	return Result{Drafts: drafts}
}
