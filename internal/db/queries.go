package db

import (
	"context"
)

const batchColumns = `id, status, style_prompt, image_size, backend, total_count,
	completed_count, failed_count, created_at, updated_at, completed_at`

const createBatch = `INSERT INTO batches (id, status, style_prompt, image_size, backend, total_count)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateBatchParams struct {
	ID          string
	StylePrompt string
	ImageSize   string
	Backend     string
	TotalCount  int64
}

// CreateBatch inserts a batch in the generating state.
func (q *Queries) CreateBatch(ctx context.Context, arg CreateBatchParams) error {
	_, err := q.db.ExecContext(ctx, createBatch,
		arg.ID,
		StatusGenerating,
		arg.StylePrompt,
		arg.ImageSize,
		arg.Backend,
		arg.TotalCount,
	)
	return err
}

const getBatch = `SELECT ` + batchColumns + ` FROM batches WHERE id = ?`

// GetBatch returns sql.ErrNoRows for an unknown id.
func (q *Queries) GetBatch(ctx context.Context, id string) (Batch, error) {
	row := q.db.QueryRowContext(ctx, getBatch, id)
	var b Batch
	err := row.Scan(
		&b.ID,
		&b.Status,
		&b.StylePrompt,
		&b.ImageSize,
		&b.Backend,
		&b.TotalCount,
		&b.CompletedCount,
		&b.FailedCount,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.CompletedAt,
	)
	return b, err
}

const updateBatchProgress = `UPDATE batches
SET completed_count = ?, failed_count = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateBatchProgressParams struct {
	ID             string
	CompletedCount int64
	FailedCount    int64
}

func (q *Queries) UpdateBatchProgress(ctx context.Context, arg UpdateBatchProgressParams) error {
	_, err := q.db.ExecContext(ctx, updateBatchProgress, arg.CompletedCount, arg.FailedCount, arg.ID)
	return err
}

const completeBatch = `UPDATE batches
SET status = ?, completed_count = ?, failed_count = ?,
    updated_at = CURRENT_TIMESTAMP, completed_at = CURRENT_TIMESTAMP
WHERE id = ?`

type CompleteBatchParams struct {
	ID             string
	Status         string
	CompletedCount int64
	FailedCount    int64
}

func (q *Queries) CompleteBatch(ctx context.Context, arg CompleteBatchParams) error {
	_, err := q.db.ExecContext(ctx, completeBatch, arg.Status, arg.CompletedCount, arg.FailedCount, arg.ID)
	return err
}

const upsertBatchImage = `INSERT INTO batch_images (
    batch_id, segment_id, position, summary, image_prompt,
    image_url, thumbnail_url, status, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (batch_id, position) DO UPDATE SET
    segment_id = excluded.segment_id,
    summary = excluded.summary,
    image_prompt = excluded.image_prompt,
    image_url = excluded.image_url,
    thumbnail_url = excluded.thumbnail_url,
    status = excluded.status,
    error = excluded.error,
    updated_at = CURRENT_TIMESTAMP`

type UpsertBatchImageParams struct {
	BatchID      string
	SegmentID    int64
	Position     int64
	Summary      string
	ImagePrompt  string
	ImageURL     string
	ThumbnailURL string
	Status       string
	Error        string
}

func (q *Queries) UpsertBatchImage(ctx context.Context, arg UpsertBatchImageParams) error {
	_, err := q.db.ExecContext(ctx, upsertBatchImage,
		arg.BatchID,
		arg.SegmentID,
		arg.Position,
		arg.Summary,
		arg.ImagePrompt,
		arg.ImageURL,
		arg.ThumbnailURL,
		arg.Status,
		arg.Error,
	)
	return err
}

const listBatchImages = `SELECT batch_id, segment_id, position, summary, image_prompt,
    image_url, thumbnail_url, status, error, created_at, updated_at
FROM batch_images
WHERE batch_id = ?
ORDER BY position`

func (q *Queries) ListBatchImages(ctx context.Context, batchID string) ([]BatchImage, error) {
	rows, err := q.db.QueryContext(ctx, listBatchImages, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BatchImage
	for rows.Next() {
		var i BatchImage
		if err := rows.Scan(
			&i.BatchID,
			&i.SegmentID,
			&i.Position,
			&i.Summary,
			&i.ImagePrompt,
			&i.ImageURL,
			&i.ThumbnailURL,
			&i.Status,
			&i.Error,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecentBatches = `SELECT ` + batchColumns + ` FROM batches
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

func (q *Queries) ListRecentBatches(ctx context.Context, limit int64) ([]Batch, error) {
	rows, err := q.db.QueryContext(ctx, listRecentBatches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(
			&b.ID,
			&b.Status,
			&b.StylePrompt,
			&b.ImageSize,
			&b.Backend,
			&b.TotalCount,
			&b.CompletedCount,
			&b.FailedCount,
			&b.CreatedAt,
			&b.UpdatedAt,
			&b.CompletedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countBatches = `SELECT COUNT(*) FROM batches`

func (q *Queries) CountBatches(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countBatches).Scan(&count)
	return count, err
}

const countImagesByStatus = `SELECT status, COUNT(*) FROM batch_images
GROUP BY status
ORDER BY status`

func (q *Queries) CountImagesByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := q.db.QueryContext(ctx, countImagesByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []StatusCount
	for rows.Next() {
		var i StatusCount
		if err := rows.Scan(&i.Status, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
