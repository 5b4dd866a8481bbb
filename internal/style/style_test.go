package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/postcraft/internal/analyzer"
)

func TestResolve_Hint(t *testing.T) {
	plain := analyzer.Analysis{Atmosphere: "自然"}

	tests := []struct {
		hint     string
		expected string
	}{
		{"温馨治愈风格", WarmHealing},
		{"想要治愈一点", WarmHealing},
		{"Cozy vibes", WarmHealing},
		{"清新一点", FreshNatural},
		{"natural light", FreshNatural},
		{"文艺范", LiteraryRetro},
		{"Vintage", LiteraryRetro},
		{"青春洋溢", YouthfulEnergetic},
		{"赛博朋克", ModernMinimal},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(plain, tt.hint).Name)
		})
	}
}

func TestResolve_Analysis(t *testing.T) {
	tests := []struct {
		name     string
		analysis analyzer.Analysis
		expected string
	}{
		{"warm atmosphere", analyzer.Analysis{Atmosphere: "温馨"}, WarmHealing},
		{"natural atmosphere", analyzer.Analysis{Atmosphere: "自然"}, FreshNatural},
		{"happy feelings", analyzer.Analysis{Atmosphere: "简约", Feelings: []string{"宁静", "快乐"}}, YouthfulEnergetic},
		{"nostalgic atmosphere", analyzer.Analysis{Atmosphere: "怀旧"}, LiteraryRetro},
		{"nothing matches", analyzer.Analysis{Atmosphere: "现代"}, ModernMinimal},
		{"empty analysis", analyzer.Analysis{}, ModernMinimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.analysis, "").Name)
			// the default hint behaves like no hint
			assert.Equal(t, tt.expected, Resolve(tt.analysis, DefaultHint).Name)
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	a := analyzer.Analyze("清晨的阳光洒在公园的草地上，孩子们快乐地奔跑。")
	first := Resolve(a, "")
	assert.Equal(t, first, Resolve(a, ""))
	assert.Equal(t, first, Resolve(a, first.Name))
}

func TestCatalog(t *testing.T) {
	all := Catalog()
	require.Len(t, all, 5)

	all[0].Name = "changed"
	tmpl, ok := Lookup(WarmHealing)
	require.True(t, ok)
	assert.Equal(t, "温馨治愈风格", tmpl.BaseStyle)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
