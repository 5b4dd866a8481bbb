package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/abdulachik/postcraft/internal/db"
	"github.com/abdulachik/postcraft/internal/health"
	"github.com/abdulachik/postcraft/internal/imagegen"
)

const fallbackPromptRunes = 100

// Generate produces one card per segment. Segments are processed
// concurrently and the result keeps request order. A failing backend call
// falls back to a stock image, so the call only fails on invalid input,
// cancellation, or when no segment produced anything.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if len(req.Segments) == 0 {
		return nil, &ValidationError{Message: MsgEmptySegments}
	}

	batchID := uuid.New().String()
	if req.BatchID != "" {
		if id, err := uuid.Parse(req.BatchID); err == nil {
			batchID = id.String()
		} else {
			slog.Warn("ignoring invalid batch id", "batch_id", req.BatchID)
		}
	}

	size := req.ImageSize
	if strings.TrimSpace(size) == "" {
		size = p.defaultImageSize
	}

	b := &batch{
		p:       p,
		id:      batchID,
		req:     req,
		size:    size,
		images:  make([]GeneratedImage, len(req.Segments)),
		total:   len(req.Segments),
		created: true,
	}

	slog.Info("generating batch", "batch_id", batchID, "segments", b.total, "backend", p.generator.Name())
	b.start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range req.Segments {
		g.Go(func() error {
			return b.process(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		b.finish(context.WithoutCancel(ctx), StatusFailed)
		return nil, fmt.Errorf("generate batch %s: %w", batchID, err)
	}

	if b.completed == 0 {
		b.finish(ctx, StatusFailed)
		return nil, ErrNothingProduced
	}
	b.finish(ctx, StatusCompleted)

	return &GenerateResult{
		Images:     b.images,
		BatchID:    batchID,
		TotalCount: len(b.images),
	}, nil
}

// batch is the state of one Generate call.
type batch struct {
	p       *Pipeline
	id      string
	req     GenerateRequest
	size    string
	created bool

	mu        sync.Mutex
	images    []GeneratedImage
	completed int
	failed    int
	total     int
}

func (b *batch) start(ctx context.Context) {
	if b.p.store != nil {
		err := b.p.store.CreateBatch(ctx, db.CreateBatchParams{
			ID:          b.id,
			StylePrompt: b.req.StylePrompt,
			ImageSize:   b.size,
			Backend:     b.p.generator.Name(),
			TotalCount:  int64(b.total),
		})
		b.p.health.Record(health.Database, err)
		if err != nil {
			slog.Warn("persist batch failed", "batch_id", b.id, "error", err)
			b.created = false
		}

		for i, seg := range b.req.Segments {
			b.saveImage(ctx, i, seg, GeneratedImage{SegmentID: seg.ID, Status: StatusGenerating})
		}
	}

	b.publish(Event{Type: EventBatchStarted, BatchID: b.id, Total: b.total})
}

// process runs one segment. It returns an error only on cancellation so
// one failing segment never stops the others.
func (b *batch) process(ctx context.Context, i int) error {
	seg := b.req.Segments[i]

	imagePrompt := strings.TrimSpace(seg.ImagePrompt)
	if imagePrompt == "" {
		imagePrompt = fallbackPrompt(b.req.StylePrompt, seg.Content)
	}

	url, err := b.p.imageURL(ctx, imagegen.Request{
		Prompt:      imagePrompt,
		StylePrompt: b.req.StylePrompt,
		SegmentID:   seg.ID,
		Size:        b.size,
	})
	if err != nil {
		return err
	}

	img := GeneratedImage{SegmentID: seg.ID, Status: StatusFailed}
	if url != "" {
		card := b.p.compose(ctx, url, seg.Content, seg.Summary)
		img = GeneratedImage{
			SegmentID:    seg.ID,
			ImageURL:     card,
			ThumbnailURL: card,
			Status:       StatusCompleted,
		}
	}

	b.mu.Lock()
	b.images[i] = img
	if img.Status == StatusCompleted {
		b.completed++
	} else {
		b.failed++
	}
	completed, failed := b.completed, b.failed
	b.mu.Unlock()

	b.saveImage(ctx, i, seg, img)
	b.saveProgress(ctx, completed, failed)
	b.publish(Event{
		Type:      EventSegmentDone,
		BatchID:   b.id,
		SegmentID: seg.ID,
		Status:    img.Status,
		Completed: completed + failed,
		Total:     b.total,
	})
	return nil
}

// imageURL asks the backend for an image, falling back to a stock image
// when the backend fails. An error is returned only on cancellation.
func (p *Pipeline) imageURL(ctx context.Context, req imagegen.Request) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}

	url, err := p.generator.Generate(ctx, req)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	p.health.Record(health.Images, err)
	if err == nil && url != "" {
		return url, nil
	}

	slog.Warn("image generation failed, using stock image",
		"segment_id", req.SegmentID,
		"backend", p.generator.Name(),
		"error", err,
	)
	if p.matcher == nil {
		return "", nil
	}
	return p.matcher.Match(req.Prompt, req.SegmentID).URL, nil
}

// compose renders the card, reusing a cached card for identical input.
func (p *Pipeline) compose(ctx context.Context, url, content, summary string) string {
	if p.compositor == nil {
		return url
	}

	key := cardKey(url, summary, content)
	if p.cards != nil {
		if card, ok := p.cards.Get(key); ok {
			return card.(string)
		}
	}

	card := p.compositor.Compose(ctx, url, content, summary)
	if p.cards != nil && card != url {
		p.cards.Set(key, card, cache.DefaultExpiration)
	}
	return card
}

func (b *batch) saveImage(ctx context.Context, i int, seg TextSegment, img GeneratedImage) {
	if b.p.store == nil || !b.created {
		return
	}
	err := b.p.store.UpsertBatchImage(ctx, db.UpsertBatchImageParams{
		BatchID:      b.id,
		SegmentID:    int64(seg.ID),
		Position:     int64(i),
		Summary:      seg.Summary,
		ImagePrompt:  seg.ImagePrompt,
		ImageURL:     img.ImageURL,
		ThumbnailURL: img.ThumbnailURL,
		Status:       img.Status,
	})
	if err != nil {
		b.p.health.SetUnhealthy(health.Database, err)
		slog.Warn("persist image failed", "batch_id", b.id, "segment_id", seg.ID, "error", err)
	}
}

func (b *batch) saveProgress(ctx context.Context, completed, failed int) {
	if b.p.store == nil || !b.created {
		return
	}
	err := b.p.store.UpdateBatchProgress(ctx, db.UpdateBatchProgressParams{
		ID:             b.id,
		CompletedCount: int64(completed),
		FailedCount:    int64(failed),
	})
	if err != nil {
		b.p.health.SetUnhealthy(health.Database, err)
		slog.Warn("persist progress failed", "batch_id", b.id, "error", err)
	}
}

func (b *batch) finish(ctx context.Context, status string) {
	b.mu.Lock()
	completed, failed := b.completed, b.failed
	b.mu.Unlock()

	if b.p.store != nil && b.created {
		err := b.p.store.CompleteBatch(ctx, db.CompleteBatchParams{
			ID:             b.id,
			Status:         status,
			CompletedCount: int64(completed),
			FailedCount:    int64(failed),
		})
		b.p.health.Record(health.Database, err)
		if err != nil {
			slog.Warn("persist batch completion failed", "batch_id", b.id, "error", err)
		}
	}

	eventType := EventBatchCompleted
	if status == StatusFailed {
		eventType = EventBatchFailed
	}
	b.publish(Event{Type: eventType, BatchID: b.id, Status: status, Completed: completed + failed, Total: b.total})

	slog.Info("batch finished",
		"batch_id", b.id,
		"status", status,
		"completed", completed,
		"failed", failed,
	)
}

func (b *batch) publish(e Event) {
	if b.p.notifier != nil {
		b.p.notifier.Publish(e)
	}
}

// fallbackPrompt builds an image prompt for a segment that arrived without one.
func fallbackPrompt(stylePrompt, content string) string {
	if utf8.RuneCountInString(content) > fallbackPromptRunes {
		content = string([]rune(content)[:fallbackPromptRunes])
	}
	return stylePrompt + "，" + content + "..."
}
