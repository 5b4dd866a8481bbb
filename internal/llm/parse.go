package llm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed drafts.schema.json
var draftsSchemaJSON []byte

// ErrNoJSON is returned when a reply contains nothing that looks like JSON.
var ErrNoJSON = errors.New("no JSON found in response")

// Draft is one segment as proposed by the model. Only the summary and the
// image prompt are used; ids and content are assigned locally.
type Draft struct {
	Content     string `json:"content"`
	Summary     string `json:"summary"`
	ImagePrompt string `json:"image_prompt"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func draftsSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("drafts.schema.json", bytes.NewReader(draftsSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load drafts schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("drafts.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile drafts schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ParseDrafts extracts and validates the JSON array of drafts in a model reply.
func ParseDrafts(response string) ([]Draft, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, ErrNoJSON
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	s, err := draftsSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match schema: %w", err)
	}

	var drafts []Draft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		return nil, fmt.Errorf("decode drafts: %w", err)
	}
	return drafts, nil
}

// extractJSON finds the JSON payload in a reply: a ```json fence, else the
// span from the first [ to the last ], else the whole trimmed reply.
func extractJSON(text string) string {
	if start := strings.Index(text, "```json"); start != -1 {
		body := text[start+len("```json"):]
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}
