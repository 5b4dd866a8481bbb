package segmenter

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected TextType
	}{
		{name: "no keywords", text: "今天天气很好，我们去公园散步。", expected: Descriptive},
		{name: "narrative", text: "这个故事发生在一个小镇，人物不多。", expected: Narrative},
		{name: "argumentative", text: "我认为这个观点是对的，因为论证充分。", expected: Argumentative},
		{name: "descriptive", text: "本文介绍产品的功能和特点。", expected: Descriptive},
		{name: "narrative wins ties", text: "故事里的观点", expected: Narrative},
		{name: "argumentative beats descriptive on tie", text: "首先介绍", expected: Argumentative},
		{name: "repeated keyword counts once", text: "介绍介绍介绍，故事，人物", expected: Narrative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.text))
		})
	}
}

func TestParseTextType(t *testing.T) {
	assert.Equal(t, Narrative, ParseTextType("narrative"))
	assert.Equal(t, Argumentative, ParseTextType(" Argumentative "))
	assert.Equal(t, Descriptive, ParseTextType("unknown"))
	assert.Equal(t, "叙事类", Narrative.Label())
}

func TestParagraphs(t *testing.T) {
	text := "第一段\n\n  \n第二段\r\n\r\n第三段\n  \n\n"
	assert.Equal(t, []string{"第一段", "第二段", "第三段"}, Paragraphs(text))
}

func TestSegmenter_Split(t *testing.T) {
	seg := New(DefaultConfig())

	t.Run("short paragraph stays whole", func(t *testing.T) {
		text := "  " + strings.Repeat("安", 50) + "\n"
		chunks := seg.Split(text, Classify(text))
		require.Len(t, chunks, 1)
		assert.Equal(t, strings.TrimSpace(text), chunks[0])
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, seg.Split("   \n\n ", Narrative))
	})

	t.Run("narrative splits on scene markers", func(t *testing.T) {
		paras := []string{
			strings.Repeat("甲", 300),
			strings.Repeat("乙", 300),
			"突然" + strings.Repeat("丙", 300),
			strings.Repeat("丁", 300),
		}
		chunks := seg.Split(strings.Join(paras, "\n\n"), Narrative)
		require.Len(t, chunks, 2)
		assert.Equal(t, paras[0]+"\n\n"+paras[1], chunks[0])
		assert.True(t, strings.HasPrefix(chunks[1], "突然"))
	})

	t.Run("argumentative flushes on max length", func(t *testing.T) {
		paras := []string{
			strings.Repeat("论", 700),
			strings.Repeat("据", 700),
			strings.Repeat("证", 700),
		}
		chunks := seg.Split(strings.Join(paras, "\n\n"), Argumentative)
		require.Len(t, chunks, 2)
		assert.Equal(t, paras[0]+"\n\n"+paras[1], chunks[0])
		assert.Equal(t, paras[2], chunks[1])
	})

	t.Run("single long paragraph falls back to slices", func(t *testing.T) {
		text := strings.Repeat("长", 2400)
		chunks := seg.Split(text, Descriptive)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.Equal(t, 800, utf8.RuneCountInString(c))
		}
	})

	t.Run("too many chunks fall back to slices", func(t *testing.T) {
		var paras []string
		for i := 0; i < 12; i++ {
			paras = append(paras, "然后"+strings.Repeat("事", 600))
		}
		chunks := seg.Split(strings.Join(paras, "\n\n"), Narrative)
		assert.LessOrEqual(t, len(chunks), 6)
		assert.GreaterOrEqual(t, len(chunks), 3)
	})

	t.Run("caps chunk count without dropping text", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxChunks = 0
		s := New(cfg)

		var paras []string
		for i := 0; i < 8; i++ {
			paras = append(paras, "首先"+strings.Repeat("点", 650))
		}
		text := strings.Join(paras, "\n\n")
		chunks := s.Split(text, Argumentative)
		require.Len(t, chunks, 6)
		assert.Equal(t, stripSpace(text), stripSpace(strings.Join(chunks, "")))
	})
}

func TestSegmenter_SplitCoverage(t *testing.T) {
	seg := New(DefaultConfig())

	inputs := []string{
		"一句话",
		strings.Repeat("春天来了，花开了。\n\n", 40),
		strings.Repeat("首先我们认为这是对的。然而事实并非如此。\n\n", 120),
		strings.Repeat("x", 9999),
		"第一段\n\n\n\n第二段 有空格\n\n  第三段  ",
	}

	for _, text := range inputs {
		chunks := seg.Split(text, Classify(text))
		require.NotEmpty(t, chunks)
		assert.LessOrEqual(t, len(chunks), 6)
		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
		assert.Equal(t, stripSpace(text), stripSpace(strings.Join(chunks, "")))
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
