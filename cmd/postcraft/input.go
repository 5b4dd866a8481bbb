package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdulachik/postcraft/internal/pipeline"
)

const jpegDataPrefix = "data:image/jpeg;base64,"

// readInput returns the contents of the named file, or of r when no file
// is given or the name is "-".
func readInput(args []string, r io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// manifest is written next to the cards as batch.json.
type manifest struct {
	BatchID  string                 `json:"batch_id"`
	Style    string                 `json:"style_prompt"`
	Segments []pipeline.TextSegment `json:"segments"`
	Images   []manifestImage        `json:"images"`
}

type manifestImage struct {
	SegmentID int    `json:"segment_id"`
	Status    string `json:"status"`
	File      string `json:"file,omitempty"`
	URL       string `json:"url,omitempty"`
}

// writeCards saves composed cards as segment-N.jpg under dir and writes a
// batch.json manifest. Images that are plain URLs are recorded by URL.
func writeCards(dir, style string, segments []pipeline.TextSegment, res *pipeline.GenerateResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	m := manifest{BatchID: res.BatchID, Style: style, Segments: segments}
	for _, img := range res.Images {
		entry := manifestImage{SegmentID: img.SegmentID, Status: img.Status}
		if data, ok := strings.CutPrefix(img.ImageURL, jpegDataPrefix); ok {
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				return fmt.Errorf("decode card %d: %w", img.SegmentID, err)
			}
			entry.File = fmt.Sprintf("segment-%d.jpg", img.SegmentID)
			if err := os.WriteFile(filepath.Join(dir, entry.File), raw, 0644); err != nil {
				return fmt.Errorf("write card %d: %w", img.SegmentID, err)
			}
		} else {
			entry.URL = img.ImageURL
		}
		m.Images = append(m.Images, entry)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "batch.json"), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
