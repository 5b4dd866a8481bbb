package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/postcraft/internal/health"
)

func testSegments(n int) []TextSegment {
	segs := make([]TextSegment, n)
	for i := range segs {
		segs[i] = TextSegment{
			ID:          i + 1,
			Content:     fmt.Sprintf("第%d段的内容。", i+1),
			Summary:     fmt.Sprintf("第%d段", i+1),
			ImagePrompt: fmt.Sprintf("小红书爆款配图，场景%d", i+1),
		}
	}
	return segs
}

func TestGenerate_Validation(t *testing.T) {
	p := newPipeline(t, Config{})
	_, err := p.Generate(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, MsgEmptySegments, err.Error())
}

func TestGenerate(t *testing.T) {
	store := newTestStore(t)
	gen := &fakeGenerator{}
	comp := &fakeCompositor{}
	notifier := &fakeNotifier{}
	tracker := health.NewTracker()

	p := newPipeline(t, Config{
		Generator:   gen,
		Compositor:  comp,
		Store:       store,
		Notifier:    notifier,
		Health:      tracker,
		Concurrency: 2,
	})

	segs := testSegments(5)
	res, err := p.Generate(context.Background(), GenerateRequest{Segments: segs, StylePrompt: "温馨治愈风格"})
	require.NoError(t, err)

	_, err = uuid.Parse(res.BatchID)
	assert.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)
	require.Len(t, res.Images, 5)
	for i, img := range res.Images {
		want := fmt.Sprintf("card:https://img.test/%d", i+1)
		assert.Equal(t, segs[i].ID, img.SegmentID, "request order is kept")
		assert.Equal(t, want, img.ImageURL)
		assert.Equal(t, want, img.ThumbnailURL)
		assert.Equal(t, StatusCompleted, img.Status)
	}

	req, ok := gen.request(3)
	require.True(t, ok)
	assert.Equal(t, "温馨治愈风格", req.StylePrompt)
	assert.Equal(t, "3:4", req.Size, "default size")
	assert.Equal(t, segs[2].ImagePrompt, req.Prompt)

	t.Run("batch is persisted", func(t *testing.T) {
		status, err := p.BatchStatus(context.Background(), res.BatchID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, status.Status)
		assert.Equal(t, 100, status.Progress)
		assert.Equal(t, 5, status.CompletedCount)
		assert.Equal(t, 0, status.FailedCount)
		assert.Equal(t, 5, status.TotalCount)
		assert.Equal(t, "fake", status.Backend)
		assert.Equal(t, res.Images, status.Images)
		assert.NotNil(t, status.CompletedAt)

		recent, err := p.RecentBatches(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, res.BatchID, recent[0].BatchID)
	})

	t.Run("progress events", func(t *testing.T) {
		events := notifier.Events()
		require.Len(t, events, 7)
		assert.Equal(t, EventBatchStarted, events[0].Type)
		assert.Equal(t, EventBatchCompleted, events[6].Type)
		assert.Equal(t, 5, events[6].Completed)

		seen := map[int]bool{}
		for _, e := range events[1:6] {
			assert.Equal(t, EventSegmentDone, e.Type)
			assert.Equal(t, res.BatchID, e.BatchID)
			assert.Equal(t, 5, e.Total)
			seen[e.SegmentID] = true
		}
		assert.Len(t, seen, 5)
	})

	t.Run("health", func(t *testing.T) {
		for _, c := range []string{health.Images, health.Database} {
			s, ok := tracker.Get(c)
			require.True(t, ok, c)
			assert.True(t, s.Healthy, c)
		}
	})
}

func TestGenerate_BackendFailureUsesStockImage(t *testing.T) {
	gen := &fakeGenerator{fail: map[int]bool{2: true}}
	tracker := health.NewTracker()
	p := newPipeline(t, Config{Generator: gen, Health: tracker})

	segs := testSegments(3)
	res, err := p.Generate(context.Background(), GenerateRequest{Segments: segs})
	require.NoError(t, err)

	stock := p.Matcher().Match(segs[1].ImagePrompt, 2).URL
	assert.Equal(t, stock, res.Images[1].ImageURL)
	assert.Equal(t, StatusCompleted, res.Images[1].Status)
	assert.Equal(t, "https://img.test/1", res.Images[0].ImageURL)

	_, tracked := tracker.Get(health.Images)
	assert.True(t, tracked)
}

func TestGenerate_FallbackPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	p := newPipeline(t, Config{Generator: gen})

	content := strings.Repeat("文", 120)
	_, err := p.Generate(context.Background(), GenerateRequest{
		Segments:    []TextSegment{{ID: 1, Content: content, Summary: "摘要"}},
		StylePrompt: "清新自然风格",
		ImageSize:   "16:9",
	})
	require.NoError(t, err)

	req, ok := gen.request(1)
	require.True(t, ok)
	assert.Equal(t, "清新自然风格，"+strings.Repeat("文", 100)+"...", req.Prompt)
	assert.Equal(t, "16:9", req.Size)
}

func TestGenerate_BatchID(t *testing.T) {
	p := newPipeline(t, Config{Generator: &fakeGenerator{}})
	segs := testSegments(1)

	supplied := uuid.New().String()
	res, err := p.Generate(context.Background(), GenerateRequest{Segments: segs, BatchID: supplied})
	require.NoError(t, err)
	assert.Equal(t, supplied, res.BatchID)

	res, err = p.Generate(context.Background(), GenerateRequest{Segments: segs, BatchID: "not-a-uuid"})
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", res.BatchID)
	_, err = uuid.Parse(res.BatchID)
	assert.NoError(t, err)
}

func TestGenerate_Cancelled(t *testing.T) {
	store := newTestStore(t)
	p := newPipeline(t, Config{Generator: &fakeGenerator{}, Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batchID := uuid.New().String()
	_, err := p.Generate(ctx, GenerateRequest{Segments: testSegments(3), BatchID: batchID})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_NothingProduced(t *testing.T) {
	gen := &fakeGenerator{fail: map[int]bool{1: true, 2: true}}
	notifier := &fakeNotifier{}
	p := newPipeline(t, Config{Generator: gen, Notifier: notifier})
	p.matcher = nil

	_, err := p.Generate(context.Background(), GenerateRequest{Segments: testSegments(2)})
	assert.ErrorIs(t, err, ErrNothingProduced)

	events := notifier.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, EventBatchFailed, events[len(events)-1].Type)
}

func TestGenerate_CardCache(t *testing.T) {
	comp := &fakeCompositor{}
	p := newPipeline(t, Config{Generator: &fakeGenerator{}, Compositor: comp, CacheTTL: time.Minute})

	req := GenerateRequest{Segments: testSegments(2)}
	_, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, comp.Calls())
}

func TestGenerate_RateLimited(t *testing.T) {
	p := newPipeline(t, Config{
		Generator:    &fakeGenerator{},
		Concurrency:  4,
		RateInterval: 20 * time.Millisecond,
		RateBurst:    1,
	})

	start := time.Now()
	_, err := p.Generate(context.Background(), GenerateRequest{Segments: testSegments(4)})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBatchStatus(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		_, err := newPipeline(t, Config{}).BatchStatus(context.Background(), "x")
		assert.ErrorIs(t, err, ErrNoStore)

		_, err = newPipeline(t, Config{}).RecentBatches(context.Background(), 5)
		assert.ErrorIs(t, err, ErrNoStore)
	})

	t.Run("unknown batch", func(t *testing.T) {
		p := newPipeline(t, Config{Store: newTestStore(t)})
		_, err := p.BatchStatus(context.Background(), uuid.New().String())
		assert.ErrorIs(t, err, ErrBatchNotFound)
	})
}

func TestGenerate_DuplicateSegmentIDsPersisted(t *testing.T) {
	p := newPipeline(t, Config{Generator: &fakeGenerator{}, Store: newTestStore(t)})
	ctx := context.Background()

	segs := testSegments(3)
	for i := range segs {
		segs[i].ID = 0
	}

	res, err := p.Generate(ctx, GenerateRequest{Segments: segs})
	require.NoError(t, err)
	require.Len(t, res.Images, 3)

	status, err := p.BatchStatus(ctx, res.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalCount)
	assert.Len(t, status.Images, 3)
	assert.Equal(t, 100, status.Progress)
}

func TestFallbackPrompt(t *testing.T) {
	assert.Equal(t, "风格，短...", fallbackPrompt("风格", "短"))
	assert.Equal(t, "，"+strings.Repeat("a", 100)+"...", fallbackPrompt("", strings.Repeat("a", 150)))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, analysisKey("t", "s", 10), analysisKey("t", "s", 10))
	assert.NotEqual(t, analysisKey("t", "s", 10), analysisKey("t", "s", 9))
	assert.NotEqual(t, cardKey("ab", "c", ""), cardKey("a", "bc", ""))
}
