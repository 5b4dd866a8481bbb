package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault(t *testing.T) *Matcher {
	t.Helper()
	m, err := New(Config{})
	require.NoError(t, err)
	return m
}

func TestDefaultThemes(t *testing.T) {
	themes := DefaultThemes()
	require.Len(t, themes, 36)

	seen := make(map[string]bool)
	for _, th := range themes {
		assert.False(t, seen[th.Name], "duplicate %s", th.Name)
		seen[th.Name] = true
		assert.Len(t, th.Images, 5, th.Name)
		assert.NotEmpty(t, th.Keywords, th.Name)
	}
	assert.Equal(t, "nature_mountain", themes[0].Name)
}

func TestMatch_Mountain(t *testing.T) {
	m := newDefault(t)

	match := m.Match("山", 1)
	assert.Equal(t, "nature_mountain", match.Theme)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=400&h=600&fit=crop", match.URL)
	assert.InDelta(t, 1.9, match.Score, 1e-9)

	// a different segment id may move within the same pool
	other := m.Match("山", 2)
	assert.Equal(t, "nature_mountain", other.Theme)
	assert.Equal(t, 4, other.Index)
}

func TestMatch_Pure(t *testing.T) {
	m := newDefault(t)
	prompts := []string{
		"【风格定位】温馨治愈风格；【核心内容】海边的日落",
		"一只可爱的猫咪在窗台上晒太阳",
		"城市夜景 霓虹灯 繁华",
		"",
	}
	for _, p := range prompts {
		for id := 1; id <= 3; id++ {
			first := m.Match(p, id)
			again := m.Match(p, id)
			assert.Equal(t, first, again)

			fresh := newDefault(t).Match(p, id)
			assert.Equal(t, first, fresh)
		}
	}
}

func TestMatch_NoScoreUsesDefaultTheme(t *testing.T) {
	m := newDefault(t)
	match := m.Match("你好", 3)
	assert.Equal(t, "nature_sky", match.Theme)
	assert.Equal(t, 2, match.Index)
	assert.Zero(t, match.Score)
}

func TestMatch_DefaultRules(t *testing.T) {
	themes := []Theme{
		{Name: "nature_sky", Keywords: []string{"zzz"}, Images: []string{"sky.jpg"}},
		{Name: "city_modern", Keywords: []string{"zzz"}, Images: []string{"city.jpg"}},
		{Name: "animal_cat", Keywords: []string{"zzz"}, Images: []string{"cat.jpg"}},
	}
	m, err := New(Config{
		Themes:  themes,
		Weights: Weights{Keyword: 0.4, Semantic: 0.3, Emotion: 0.2},
	})
	require.NoError(t, err)

	tests := []struct {
		prompt   string
		expected string
	}{
		{"户外", "nature_sky"},
		{"都市", "city_modern"},
		{"宠物", "animal_cat"},
		// rule theme missing from the table
		{"美食", "nature_sky"},
		{"其他", "nature_sky"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Match(tt.prompt, 1).Theme)
		})
	}
}

func TestScores(t *testing.T) {
	m, err := New(Config{Themes: []Theme{
		{
			Name:     "nature_ocean",
			Keywords: []string{"海", "海边"},
			Semantic: []string{"辽阔"},
			Emotions: []string{"自由", "浪漫"},
			Images:   []string{"a", "b"},
		},
		{
			Name:     "city_night",
			Keywords: []string{"CBD"},
			Images:   []string{"c"},
		},
	}})
	require.NoError(t, err)

	scores := m.Scores("海边 辽阔 自由 海")
	require.Len(t, scores, 2)

	ocean := scores[0]
	// 海: 3 + 1 (early) + 1 (twice); 海边: 3 + 1
	assert.Equal(t, 9, ocean.Keyword)
	// 辽阔 present, 海 in its word window
	assert.Equal(t, 3, ocean.Semantic)
	// 自由 present inside a word
	assert.Equal(t, 3, ocean.Emotion)
	// scene nature_ocean shares "ocean"
	assert.Equal(t, 3, ocean.Description)
	assert.InDelta(t, 9*0.4+3*0.3+3*0.2+3*0.1, ocean.Total, 1e-9)

	// table keywords are matched case-insensitively
	assert.Equal(t, 4, m.Scores("cbd")[1].Keyword)
}

func TestDescribe(t *testing.T) {
	d := Describe("雪山 之巅 壮观 光线 构图")
	assert.Equal(t, "nature_mountain", d.SceneType)
	assert.Equal(t, "壮观", d.DominantEmotion)
	assert.Equal(t, []string{"光线", "构图"}, d.VisualElements)

	empty := Describe("nothing here")
	assert.Equal(t, "general", empty.SceneType)
	assert.Equal(t, "neutral", empty.DominantEmotion)
	assert.Empty(t, empty.VisualElements)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Themes: []Theme{{Name: "a"}}})
	assert.Error(t, err)

	_, err = New(Config{Themes: []Theme{
		{Name: "a", Images: []string{"x"}},
		{Name: "a", Images: []string{"y"}},
	}})
	assert.Error(t, err)

	m, err := New(Config{Themes: []Theme{{Name: "only", Images: []string{"x"}}}})
	require.NoError(t, err)
	assert.Equal(t, "only", m.Match("anything", 1).Theme)
}

func TestLoadThemes(t *testing.T) {
	themes, err := LoadThemes(strings.NewReader(`{"themes":[{"name":"t","images":["u"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "t", themes[0].Name)

	_, err = LoadThemes(strings.NewReader(`{"themes":[]}`))
	assert.Error(t, err)

	_, err = LoadThemes(strings.NewReader(`not json`))
	assert.Error(t, err)
}
