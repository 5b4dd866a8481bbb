package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBatch(t *testing.T, q *Queries, id string, total int64) {
	t.Helper()
	require.NoError(t, q.CreateBatch(context.Background(), CreateBatchParams{
		ID:          id,
		StylePrompt: "温馨治愈风格",
		ImageSize:   "3:4",
		Backend:     "demo",
		TotalCount:  total,
	}))
}

func TestQueries_Batches(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	createTestBatch(t, store.Queries, "b1", 3)

	t.Run("get", func(t *testing.T) {
		b, err := store.GetBatch(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, StatusGenerating, b.Status)
		assert.Equal(t, "温馨治愈风格", b.StylePrompt)
		assert.Equal(t, int64(3), b.TotalCount)
		assert.False(t, b.CompletedAt.Valid)
		assert.False(t, b.CreatedAt.IsZero())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.GetBatch(ctx, "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("progress and completion", func(t *testing.T) {
		require.NoError(t, store.UpdateBatchProgress(ctx, UpdateBatchProgressParams{ID: "b1", CompletedCount: 1}))
		b, err := store.GetBatch(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), b.CompletedCount)

		require.NoError(t, store.CompleteBatch(ctx, CompleteBatchParams{
			ID: "b1", Status: StatusCompleted, CompletedCount: 2, FailedCount: 1,
		}))
		b, err = store.GetBatch(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, b.Status)
		assert.Equal(t, int64(2), b.CompletedCount)
		assert.Equal(t, int64(1), b.FailedCount)
		assert.True(t, b.CompletedAt.Valid)
	})

	t.Run("recent and count", func(t *testing.T) {
		createTestBatch(t, store.Queries, "b2", 1)

		recent, err := store.ListRecentBatches(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "b2", recent[0].ID)

		limited, err := store.ListRecentBatches(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		n, err := store.CountBatches(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestQueries_BatchImages(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()
	createTestBatch(t, store.Queries, "b1", 2)

	upsert := func(segmentID, position int64, status, url string) {
		require.NoError(t, store.UpsertBatchImage(ctx, UpsertBatchImageParams{
			BatchID:      "b1",
			SegmentID:    segmentID,
			Position:     position,
			Summary:      "摘要",
			ImagePrompt:  "提示",
			ImageURL:     url,
			ThumbnailURL: url,
			Status:       status,
		}))
	}

	upsert(2, 1, StatusGenerating, "")
	upsert(1, 0, StatusGenerating, "")
	upsert(2, 1, StatusCompleted, "https://img/2")

	images, err := store.ListBatchImages(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, int64(1), images[0].SegmentID, "ordered by position")
	assert.Equal(t, StatusCompleted, images[1].Status)
	assert.Equal(t, "https://img/2", images[1].ImageURL)

	counts, err := store.CountImagesByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{
		{Status: StatusCompleted, Count: 1},
		{Status: StatusGenerating, Count: 1},
	}, counts)

	t.Run("segments sharing an id keep separate rows", func(t *testing.T) {
		createTestBatch(t, store.Queries, "b2", 2)
		for pos := int64(0); pos < 2; pos++ {
			require.NoError(t, store.UpsertBatchImage(ctx, UpsertBatchImageParams{
				BatchID:  "b2",
				Position: pos,
				ImageURL: fmt.Sprintf("https://img/%d", pos),
				Status:   StatusCompleted,
			}))
		}

		images, err := store.ListBatchImages(ctx, "b2")
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, int64(0), images[0].SegmentID)
		assert.Equal(t, int64(0), images[1].SegmentID)
		assert.Equal(t, "https://img/0", images[0].ImageURL)
		assert.Equal(t, "https://img/1", images[1].ImageURL)
	})

	t.Run("unknown batch is rejected", func(t *testing.T) {
		err := store.UpsertBatchImage(ctx, UpsertBatchImageParams{BatchID: "nope", SegmentID: 1, Status: StatusFailed})
		assert.Error(t, err)
	})
}

func newMockQueries(t *testing.T) (*Queries, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestQueries_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("database is locked")

	t.Run("create batch", func(t *testing.T) {
		q, mock := newMockQueries(t)
		mock.ExpectExec("INSERT INTO batches").
			WithArgs("b1", StatusGenerating, "s", "3:4", "demo", int64(2)).
			WillReturnError(boom)

		err := q.CreateBatch(ctx, CreateBatchParams{ID: "b1", StylePrompt: "s", ImageSize: "3:4", Backend: "demo", TotalCount: 2})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list images query", func(t *testing.T) {
		q, mock := newMockQueries(t)
		mock.ExpectQuery("SELECT (.+) FROM batch_images").WithArgs("b1").WillReturnError(boom)

		_, err := q.ListBatchImages(ctx, "b1")
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list images scan", func(t *testing.T) {
		q, mock := newMockQueries(t)
		mock.ExpectQuery("SELECT (.+) FROM batch_images").
			WithArgs("b1").
			WillReturnRows(sqlmock.NewRows([]string{"batch_id"}).AddRow("b1"))

		_, err := q.ListBatchImages(ctx, "b1")
		assert.Error(t, err)
	})

	t.Run("row error", func(t *testing.T) {
		q, mock := newMockQueries(t)
		mock.ExpectQuery("SELECT status, COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("completed", 1).
				RowError(0, boom))

		_, err := q.CountImagesByStatus(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("complete batch", func(t *testing.T) {
		q, mock := newMockQueries(t)
		mock.ExpectExec("UPDATE batches").
			WithArgs(StatusFailed, int64(0), int64(2), "b1").
			WillReturnError(boom)

		err := q.CompleteBatch(ctx, CompleteBatchParams{ID: "b1", Status: StatusFailed, FailedCount: 2})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("count batches", func(t *testing.T) {
		q, mock := newMockQueries(t)
		mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)

		_, err := q.CountBatches(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
