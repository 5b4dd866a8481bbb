package segmenter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule controls how paragraphs are grouped for one text type.
type Rule struct {
	// Markers start a new chunk when found in an incoming paragraph
	// and the current chunk is longer than MinChars.
	Markers []string
	// MinChars is the length a chunk must exceed before a marker can split it.
	MinChars int
	// MaxChars is the length a chunk may not exceed by absorbing another paragraph.
	MaxChars int
}

// Config holds configuration for the segmenter. Lengths are in runes.
type Config struct {
	Rules map[TextType]Rule

	// MinChunks and MaxChunks bound an acceptable primary result.
	// Anything outside falls back to equal slicing.
	MinChunks int
	MaxChunks int

	// SliceChars is the nominal slice size for the fallback.
	SliceChars int
	// MinSlices and MaxSlices clamp the fallback slice count.
	MinSlices int
	MaxSlices int

	// Limit caps the number of returned chunks.
	Limit int
}

// DefaultConfig returns the standard segmentation thresholds.
func DefaultConfig() Config {
	return Config{
		Rules: map[TextType]Rule{
			Narrative: {
				Markers:  []string{"突然", "接着", "然后", "后来", "最后", "终于", "此时", "这时", "当时", "那天", "第二天"},
				MinChars: 500,
				MaxChars: 1200,
			},
			Argumentative: {
				Markers:  []string{"首先", "其次", "再次", "最后", "另外", "此外", "然而", "但是", "因此", "所以"},
				MinChars: 600,
				MaxChars: 1500,
			},
			Descriptive: {
				Markers:  []string{"外观", "功能", "特点", "优势", "方法", "步骤", "原理", "结构", "用途", "效果"},
				MinChars: 600,
				MaxChars: 1200,
			},
		},
		MinChunks:  2,
		MaxChunks:  8,
		SliceChars: 800,
		MinSlices:  3,
		MaxSlices:  5,
		Limit:      6,
	}
}

// Segmenter splits text into chunks using type-specific paragraph rules.
type Segmenter struct {
	config Config
}

// New creates a new segmenter with the given config.
func New(config Config) *Segmenter {
	def := DefaultConfig()
	if config.Rules == nil {
		config.Rules = def.Rules
	}
	if config.SliceChars <= 0 {
		config.SliceChars = def.SliceChars
	}
	if config.MinSlices <= 0 {
		config.MinSlices = def.MinSlices
	}
	if config.MaxSlices < config.MinSlices {
		config.MaxSlices = config.MinSlices
	}
	if config.Limit <= 0 {
		config.Limit = def.Limit
	}
	return &Segmenter{config: config}
}

var blankLine = regexp.MustCompile(`\n[ \t\f\v\x{3000}]*\n`)

// Paragraphs splits text on blank lines, dropping empty paragraphs.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Split breaks text into at most Limit non-empty chunks in source order.
func (s *Segmenter) Split(text string, textType TextType) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	rule, ok := s.config.Rules[textType]
	if !ok {
		rule = s.config.Rules[Descriptive]
	}

	chunks := s.group(Paragraphs(text), rule)

	length := utf8.RuneCountInString(text)
	tooFew := len(chunks) < s.config.MinChunks && length >= s.config.SliceChars
	tooMany := s.config.MaxChunks > 0 && len(chunks) > s.config.MaxChunks
	if tooFew || tooMany {
		chunks = s.slice(text)
	}

	return capChunks(chunks, s.config.Limit)
}

// group accumulates paragraphs into chunks according to rule.
func (s *Segmenter) group(paragraphs []string, rule Rule) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, c)
		}
		current.Reset()
		currentLen = 0
	}

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)

		if currentLen > 0 {
			markerSplit := containsAny(para, rule.Markers) && currentLen > rule.MinChars
			overflow := rule.MaxChars > 0 && currentLen+paraLen > rule.MaxChars
			if markerSplit || overflow {
				flush()
			}
		}

		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += paraLen
	}
	flush()

	return chunks
}

// slice cuts text into roughly equal rune slices.
func (s *Segmenter) slice(text string) []string {
	runes := []rune(text)
	target := len(runes) / s.config.SliceChars
	target = max(s.config.MinSlices, min(s.config.MaxSlices, target))

	size := max(1, len(runes)/target)

	var out []string
	for i := 0; i < len(runes); i += size {
		end := min(len(runes), i+size)
		if part := strings.TrimSpace(string(runes[i:end])); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// capChunks limits chunks to limit entries, folding the overflow into the last one.
func capChunks(chunks []string, limit int) []string {
	if len(chunks) <= limit {
		return chunks
	}
	out := make([]string, limit)
	copy(out, chunks[:limit-1])
	out[limit-1] = strings.Join(chunks[limit-1:], "\n\n")
	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
