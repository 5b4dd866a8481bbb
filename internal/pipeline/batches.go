package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/abdulachik/postcraft/internal/db"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

// BatchStatus reports the stored progress of a batch.
func (p *Pipeline) BatchStatus(ctx context.Context, batchID string) (*BatchStatus, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}

	b, err := p.store.GetBatch(ctx, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	rows, err := p.store.ListBatchImages(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch images: %w", err)
	}

	status := toBatchStatus(b)
	status.Images = make([]GeneratedImage, 0, len(rows))
	for _, r := range rows {
		status.Images = append(status.Images, GeneratedImage{
			SegmentID:    int(r.SegmentID),
			ImageURL:     r.ImageURL,
			ThumbnailURL: r.ThumbnailURL,
			Status:       r.Status,
		})
	}
	return &status, nil
}

// RecentBatches lists the newest batches without their images.
func (p *Pipeline) RecentBatches(ctx context.Context, limit int) ([]BatchStatus, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 {
		limit = 20
	}

	batches, err := p.store.ListRecentBatches(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	out := make([]BatchStatus, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchStatus(b))
	}
	return out, nil
}

func toBatchStatus(b db.Batch) BatchStatus {
	s := BatchStatus{
		BatchID:        b.ID,
		Status:         b.Status,
		CompletedCount: int(b.CompletedCount),
		FailedCount:    int(b.FailedCount),
		TotalCount:     int(b.TotalCount),
		Backend:        b.Backend,
		CreatedAt:      b.CreatedAt,
	}
	if b.TotalCount > 0 {
		s.Progress = int((b.CompletedCount + b.FailedCount) * 100 / b.TotalCount)
	}
	if b.CompletedAt.Valid {
		t := b.CompletedAt.Time
		s.CompletedAt = &t
	}
	return s
}

// SearchPrompts looks up archived segments. Keyword search uses BM25 over
// the stored fields; otherwise the query is embedded and matched by meaning.
func (p *Pipeline) SearchPrompts(ctx context.Context, query string, k int, keyword bool) ([]vectorstore.SearchResult, error) {
	if p.archive == nil {
		return nil, ErrArchiveDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Message: "查询内容不能为空"}
	}
	if k <= 0 {
		k = 5
	}

	if keyword {
		return p.archive.TextSearch(ctx, query, k)
	}
	return p.archive.Search(ctx, query, k)
}
