package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/abdulachik/postcraft/internal/db"
	"github.com/abdulachik/postcraft/internal/llm"
	"github.com/abdulachik/postcraft/internal/vectorstore"
)

// Image statuses.
const (
	StatusGenerating = db.StatusGenerating
	StatusCompleted  = db.StatusCompleted
	StatusFailed     = db.StatusFailed
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid request")

	// ErrNothingProduced is returned when no segment of a batch got an image.
	ErrNothingProduced = errors.New("no image could be produced")

	// ErrBatchNotFound is returned for an unknown batch id.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNoStore is returned by batch queries when persistence is disabled.
	ErrNoStore = errors.New("batch store not configured")

	// ErrArchiveDisabled is returned by searches when no archive is configured.
	ErrArchiveDisabled = errors.New("prompt archive not configured")
)

// Validation messages, returned to API clients verbatim.
const (
	MsgEmptyText     = "文本内容不能为空"
	MsgTextTooLong   = "文本长度不能超过10000字"
	MsgEmptySegments = "文本段落不能为空"
)

// ValidationError is a client input error. Nothing has been processed when
// one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TextSegment is one chunk of the source text with its summary and image prompt.
type TextSegment struct {
	ID          int    `json:"id"`
	Content     string `json:"content"`
	Summary     string `json:"summary"`
	ImagePrompt string `json:"image_prompt"`
}

// GeneratedImage is the outcome for one segment of a batch.
type GeneratedImage struct {
	SegmentID    int    `json:"segment_id"`
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Status       string `json:"status"`
}

type AnalyzeRequest struct {
	Text        string `json:"text"`
	StylePrompt string `json:"style_prompt"`
	MaxSegments int    `json:"max_segments"`
}

type AnalyzeResult struct {
	Segments      []TextSegment `json:"segments"`
	TotalCount    int           `json:"total_count"`
	EstimatedTime int           `json:"estimated_time"`
	TextType      string        `json:"text_type"`
	Style         string        `json:"style"`
	Source        string        `json:"source"` // "llm" or "local"
}

type GenerateRequest struct {
	Segments    []TextSegment `json:"segments"`
	StylePrompt string        `json:"style_prompt"`
	ImageSize   string        `json:"image_size"`
	BatchID     string        `json:"batch_id,omitempty"`
}

type GenerateResult struct {
	Images     []GeneratedImage `json:"images"`
	BatchID    string           `json:"batch_id"`
	TotalCount int              `json:"total_count"`
}

// BatchStatus is the stored state of a batch.
type BatchStatus struct {
	BatchID        string           `json:"batch_id"`
	Status         string           `json:"status"`
	Progress       int              `json:"progress"`
	CompletedCount int              `json:"completed_count"`
	FailedCount    int              `json:"failed_count"`
	TotalCount     int              `json:"total_count"`
	Backend        string           `json:"backend"`
	Images         []GeneratedImage `json:"images,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// Event types published while a batch runs.
const (
	EventBatchStarted   = "batch_started"
	EventSegmentDone    = "segment_done"
	EventBatchCompleted = "batch_completed"
	EventBatchFailed    = "batch_failed"
)

// Event reports batch progress.
type Event struct {
	Type      string `json:"type"`
	BatchID   string `json:"batch_id"`
	SegmentID int    `json:"segment_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// SegmentAnalyzer drafts summaries and prompts for chunks.
type SegmentAnalyzer interface {
	Analyze(ctx context.Context, req llm.Request) llm.Result
}

// Compositor renders an image and its text into a card. It returns imageURL
// unchanged when it cannot.
type Compositor interface {
	Compose(ctx context.Context, imageURL, content, summary string) string
}

// Notifier receives progress events. Publish must not block.
type Notifier interface {
	Publish(Event)
}

// Store persists batches.
type Store interface {
	CreateBatch(ctx context.Context, arg db.CreateBatchParams) error
	GetBatch(ctx context.Context, id string) (db.Batch, error)
	UpdateBatchProgress(ctx context.Context, arg db.UpdateBatchProgressParams) error
	CompleteBatch(ctx context.Context, arg db.CompleteBatchParams) error
	UpsertBatchImage(ctx context.Context, arg db.UpsertBatchImageParams) error
	ListBatchImages(ctx context.Context, batchID string) ([]db.BatchImage, error)
	ListRecentBatches(ctx context.Context, limit int64) ([]db.Batch, error)
}

// Archive stores analyzed segments for later search.
type Archive interface {
	Archive(ctx context.Context, entries []vectorstore.Entry) error
	Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error)
	TextSearch(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error)
}
