// Package matcher deterministically picks a stock image for an image prompt.
package matcher

import (
	"crypto/md5"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// Weights combine the four partial scores into a theme total.
type Weights struct {
	Keyword     float64
	Semantic    float64
	Emotion     float64
	Description float64
}

// DefaultWeights returns the standard score weights.
func DefaultWeights() Weights {
	return Weights{Keyword: 0.4, Semantic: 0.3, Emotion: 0.2, Description: 0.1}
}

// DefaultTheme is used when nothing else applies.
const DefaultTheme = "nature_sky"

// Config holds configuration for the matcher.
type Config struct {
	Themes       []Theme // Theme table (default: built-in table)
	Weights      Weights // Score weights (default: DefaultWeights)
	DefaultTheme string  // Fallback theme (default: nature_sky)
}

// Match is the image chosen for a prompt.
type Match struct {
	Theme string  `json:"theme"`
	URL   string  `json:"url"`
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score is the breakdown of one theme's score for a prompt.
type Score struct {
	Theme       string  `json:"theme"`
	Keyword     int     `json:"keyword"`
	Semantic    int     `json:"semantic"`
	Emotion     int     `json:"emotion"`
	Description int     `json:"description"`
	Total       float64 `json:"total"`
}

// Matcher scores prompts against the theme table. It is safe for
// concurrent use.
type Matcher struct {
	themes       []Theme
	byName       map[string]int
	weights      Weights
	defaultTheme string
}

// zero-score rules, checked in order
var defaultRules = []struct {
	Words []string
	Theme string
}{
	{[]string{"自然", "风景", "户外", "天空", "云"}, "nature_sky"},
	{[]string{"城市", "建筑", "现代", "都市"}, "city_modern"},
	{[]string{"动物", "宠物", "可爱"}, "animal_cat"},
	{[]string{"食物", "美食", "料理"}, "life_food"},
}

// New creates a new Matcher.
func New(cfg Config) (*Matcher, error) {
	themes := cfg.Themes
	if len(themes) == 0 {
		themes = DefaultThemes()
	}

	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}

	def := cfg.DefaultTheme
	if def == "" {
		def = DefaultTheme
	}

	m := &Matcher{
		themes:  make([]Theme, len(themes)),
		byName:  make(map[string]int, len(themes)),
		weights: weights,
	}
	for i, t := range themes {
		if t.Name == "" {
			return nil, fmt.Errorf("theme %d has no name", i)
		}
		if _, dup := m.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate theme %q", t.Name)
		}
		if len(t.Images) == 0 {
			return nil, fmt.Errorf("theme %q has no images", t.Name)
		}
		m.themes[i] = Theme{
			Name:     t.Name,
			Keywords: lowerAll(t.Keywords),
			Semantic: lowerAll(t.Semantic),
			Emotions: lowerAll(t.Emotions),
			Images:   append([]string(nil), t.Images...),
		}
		m.byName[t.Name] = i
	}

	if _, ok := m.byName[def]; !ok {
		def = m.themes[0].Name
	}
	m.defaultTheme = def

	return m, nil
}

// Themes returns the names of all themes in table order.
func (m *Matcher) Themes() []string {
	names := make([]string, len(m.themes))
	for i, t := range m.themes {
		names[i] = t.Name
	}
	return names
}

// Match picks an image for prompt. The result depends only on prompt and
// segmentID.
func (m *Matcher) Match(prompt string, segmentID int) Match {
	best, bestTotal := "", 0.0
	for _, s := range m.Scores(prompt) {
		if s.Total > bestTotal {
			best, bestTotal = s.Theme, s.Total
		}
	}
	if best == "" {
		best = m.defaultFor(strings.ToLower(prompt))
	}

	images := m.pool(best)
	idx := imageIndex(prompt, segmentID, len(images))

	return Match{
		Theme: best,
		URL:   images[idx],
		Index: idx,
		Score: bestTotal,
	}
}

// Scores returns every theme's score for prompt, in table order.
func (m *Matcher) Scores(prompt string) []Score {
	p := strings.ToLower(prompt)
	words := strings.Fields(p)
	desc := Describe(p)
	promptLen := utf8.RuneCountInString(p)

	scores := make([]Score, len(m.themes))
	for i, t := range m.themes {
		s := Score{
			Theme:       t.Name,
			Keyword:     keywordScore(p, promptLen, t),
			Semantic:    semanticScore(p, words, t),
			Emotion:     emotionScore(p, words, t),
			Description: descriptionScore(desc, t),
		}
		s.Total = float64(s.Keyword)*m.weights.Keyword +
			float64(s.Semantic)*m.weights.Semantic +
			float64(s.Emotion)*m.weights.Emotion +
			float64(s.Description)*m.weights.Description
		scores[i] = s
	}
	return scores
}

func keywordScore(p string, promptLen int, t Theme) int {
	score := 0
	for _, kw := range t.Keywords {
		pos := strings.Index(p, kw)
		if pos < 0 {
			continue
		}
		score += 3
		if float64(utf8.RuneCountInString(p[:pos])) < float64(promptLen)*0.3 {
			score++
		}
		score += min(strings.Count(p, kw)-1, 2)
	}
	return score
}

func semanticScore(p string, words []string, t Theme) int {
	related := t.Keywords[:min(5, len(t.Keywords))]

	score := 0
	for _, sw := range t.Semantic {
		if !strings.Contains(p, sw) {
			continue
		}
		score += 2
		if window := wordWindow(words, sw); window != "" && containsAny(window, related) {
			score++
		}
	}
	return score
}

func emotionScore(p string, words []string, t Theme) int {
	score := 0
	for _, e := range t.Emotions {
		if !strings.Contains(p, e) {
			continue
		}
		score += 2
		if wordWindow(words, e) != "" {
			score++
		}
	}
	return score
}

func descriptionScore(d Description, t Theme) int {
	score := 0
	for _, part := range strings.Split(d.SceneType, "_") {
		if part != "" && strings.Contains(t.Name, part) {
			score += 3
			break
		}
	}
	if contains(t.Emotions, d.DominantEmotion) {
		score += 2
	}
	for _, el := range d.VisualElements {
		if contains(t.Keywords, el) || contains(t.Semantic, el) {
			score++
		}
	}
	return score
}

// wordWindow returns the two words either side of the first whitespace
// word containing target, or "" when no single word contains it.
func wordWindow(words []string, target string) string {
	for i, w := range words {
		if strings.Contains(w, target) {
			return strings.Join(words[max(0, i-2):min(len(words), i+3)], " ")
		}
	}
	return ""
}

func (m *Matcher) defaultFor(p string) string {
	for _, rule := range defaultRules {
		if containsAny(p, rule.Words) {
			if _, ok := m.byName[rule.Theme]; ok {
				return rule.Theme
			}
			break
		}
	}
	return m.defaultTheme
}

func (m *Matcher) pool(theme string) []string {
	if i, ok := m.byName[theme]; ok {
		return m.themes[i].Images
	}
	return m.themes[m.byName[m.defaultTheme]].Images
}

// imageIndex hashes prompt and segmentID into [0, n).
func imageIndex(prompt string, segmentID, n int) int {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", prompt, segmentID)))
	v := new(big.Int).SetBytes(sum[:])
	return int(v.Mod(v, big.NewInt(int64(n))).Int64())
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
