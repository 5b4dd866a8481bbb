package matcher

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
)

//go:embed data/themes.json
var themesJSON []byte

// Theme is one stock-image category with the vocabulary used to score it.
type Theme struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Semantic []string `json:"semantic"`
	Emotions []string `json:"emotions"`
	Images   []string `json:"images"`
}

type themeFile struct {
	Themes []Theme `json:"themes"`
}

// LoadThemes decodes a theme table from r.
func LoadThemes(r io.Reader) ([]Theme, error) {
	var f themeFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}
	if len(f.Themes) == 0 {
		return nil, fmt.Errorf("theme table is empty")
	}
	return f.Themes, nil
}

// DefaultThemes returns the built-in theme table.
func DefaultThemes() []Theme {
	themes, err := LoadThemes(bytes.NewReader(themesJSON))
	if err != nil {
		panic(fmt.Sprintf("matcher: embedded themes: %v", err))
	}
	return themes
}
