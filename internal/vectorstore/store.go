// Package vectorstore archives analyzed segments in VecLite so earlier
// prompts can be found again by meaning or by keyword.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdul-hamid-achik/veclite"
)

const segmentsCollection = "segments"

// Config holds configuration for the SegmentStore.
type Config struct {
	// Path to the VecLite database file (e.g., "data/segments.veclite").
	Path string

	// ConfigPath is the path to veclite.yaml (optional).
	// If empty, searches ./veclite.yaml, ~/.veclite/config.yaml.
	ConfigPath string
}

// Entry is one archived segment.
type Entry struct {
	SegmentID int
	Content   string
	Summary   string
	Prompt    string
	Style     string
	TextType  string
}

// SearchResult is an archived segment with its similarity to the query.
type SearchResult struct {
	ID         uint64  `json:"id"`
	SegmentID  int     `json:"segment_id"`
	Content    string  `json:"content"`
	Summary    string  `json:"summary"`
	Prompt     string  `json:"image_prompt"`
	Style      string  `json:"style"`
	TextType   string  `json:"text_type"`
	Similarity float32 `json:"similarity"`
}

// SegmentStore wraps a VecLite collection of segments.
type SegmentStore struct {
	vecdb *veclite.DB
	coll  *veclite.Collection
}

// New opens the archive using veclite.yaml for the embedder settings.
func New(cfg Config) (*SegmentStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("veclite path is required")
	}
	slog.Debug("opening segment archive", "path", cfg.Path, "config_path", cfg.ConfigPath)

	vecliteCfg, err := veclite.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load veclite config: %w", err)
	}

	embedder, err := veclite.NewEmbedderFromConfig(vecliteCfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	slog.Info("segment archive embedder ready",
		"provider", vecliteCfg.Embedder.Provider,
		"dimension", embedder.Dimension(),
	)

	vecdb, err := veclite.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open veclite db: %w", err)
	}

	coll, err := vecdb.CreateCollection(segmentsCollection,
		veclite.WithDimension(embedder.Dimension()),
		veclite.WithDistanceType(veclite.DistanceCosine),
		veclite.WithHNSW(16, 200),
		veclite.WithTextIndex("summary", "prompt", "style", "text_type"),
		veclite.WithEmbedder(embedder),
	)
	if err != nil {
		// already created on an earlier run
		coll, err = vecdb.GetCollection(segmentsCollection)
		if err != nil {
			vecdb.Close()
			return nil, fmt.Errorf("get collection: %w", err)
		}
	}

	return &SegmentStore{vecdb: vecdb, coll: coll}, nil
}

// Close closes the VecLite database.
func (s *SegmentStore) Close() error {
	if s.vecdb != nil {
		return s.vecdb.Close()
	}
	return nil
}

// Insert embeds and stores one segment.
func (s *SegmentStore) Insert(ctx context.Context, e Entry) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id, err := s.coll.InsertText(embedText(e), payload(e))
	if err != nil {
		return 0, fmt.Errorf("insert segment %d: %w", e.SegmentID, err)
	}
	return id, nil
}

// Archive stores every entry and syncs the collection to disk.
func (s *SegmentStore) Archive(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if _, err := s.Insert(ctx, e); err != nil {
			return err
		}
	}
	return s.Sync()
}

// Search finds segments similar to query using vector search.
func (s *SegmentStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, err := s.coll.SearchText(query, veclite.TopK(k))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return convertResults(results), nil
}

// TextSearch performs BM25 search on summary, prompt, style and text type.
func (s *SegmentStore) TextSearch(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, err := s.coll.TextSearch(query, veclite.TopK(k))
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return convertResults(results), nil
}

// Count returns the number of archived segments.
func (s *SegmentStore) Count() int {
	return s.coll.Count()
}

// Stats returns statistics about the collection.
func (s *SegmentStore) Stats() veclite.CollectionStats {
	return s.coll.Stats()
}

// Sync persists pending changes to disk.
func (s *SegmentStore) Sync() error {
	return s.vecdb.Sync()
}

func embedText(e Entry) string {
	return strings.TrimSpace(e.Summary + "\n" + e.Content)
}

func payload(e Entry) map[string]any {
	return map[string]any{
		"segment_id": e.SegmentID,
		"content":    e.Content,
		"summary":    e.Summary,
		"prompt":     e.Prompt,
		"style":      e.Style,
		"text_type":  e.TextType,
	}
}

func convertResults(results []veclite.Result) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, fromPayload(r.Record.ID, r.Score, r.Record.Content, r.Record.Payload))
	}
	return out
}

// fromPayload rebuilds a result from a stored payload. Numbers may come back
// as any numeric type after a round trip through disk.
func fromPayload(id uint64, score float32, content string, p map[string]any) SearchResult {
	sr := SearchResult{ID: id, Similarity: score}

	switch v := p["segment_id"].(type) {
	case int:
		sr.SegmentID = v
	case int64:
		sr.SegmentID = int(v)
	case float64:
		sr.SegmentID = int(v)
	}

	str := func(key string) string {
		s, _ := p[key].(string)
		return s
	}
	sr.Content = str("content")
	sr.Summary = str("summary")
	sr.Prompt = str("prompt")
	sr.Style = str("style")
	sr.TextType = str("text_type")

	if sr.Content == "" {
		sr.Content = content
	}
	return sr
}
