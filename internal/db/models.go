package db

import (
	"database/sql"
	"time"
)

// Batch and image statuses stored in the database.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Batch struct {
	ID             string
	Status         string
	StylePrompt    string
	ImageSize      string
	Backend        string
	TotalCount     int64
	CompletedCount int64
	FailedCount    int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    sql.NullTime
}

type BatchImage struct {
	BatchID      string
	SegmentID    int64
	Position     int64
	Summary      string
	ImagePrompt  string
	ImageURL     string
	ThumbnailURL string
	Status       string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type StatusCount struct {
	Status string
	Count  int64
}
