// Package style holds the fixed catalog of visual style templates and picks
// one for a piece of text.
package style

import (
	"strings"

	"github.com/abdulachik/postcraft/internal/analyzer"
)

// Template names.
const (
	WarmHealing       = "温馨治愈"
	FreshNatural      = "清新自然"
	ModernMinimal     = "现代简约"
	LiteraryRetro     = "文艺复古"
	YouthfulEnergetic = "活力青春"
)

// DefaultHint is the hint clients send when the user did not pick a style.
// It is treated the same as no hint at all.
const DefaultHint = "现代简约风格"

// Template describes one visual style.
type Template struct {
	Name         string `json:"name"`
	BaseStyle    string `json:"base_style"`
	ColorPalette string `json:"color_palette"`
	Lighting     string `json:"lighting"`
	Composition  string `json:"composition"`
	Texture      string `json:"texture"`
	Mood         string `json:"mood"`
}

var catalog = []Template{
	{
		Name:         WarmHealing,
		BaseStyle:    "温馨治愈风格",
		ColorPalette: "暖色调，米色，奶茶色，浅粉色",
		Lighting:     "柔和自然光，温暖光线",
		Composition:  "居中构图，温馨氛围",
		Texture:      "柔和质感，温润材质",
		Mood:         "温馨舒适，治愈感",
	},
	{
		Name:         FreshNatural,
		BaseStyle:    "清新自然风格",
		ColorPalette: "清新色调，绿色，白色，浅蓝色",
		Lighting:     "明亮自然光，清晨阳光",
		Composition:  "简洁构图，自然布局",
		Texture:      "清爽质感，自然材质",
		Mood:         "清新舒适，自然感",
	},
	{
		Name:         ModernMinimal,
		BaseStyle:    "现代简约风格",
		ColorPalette: "简约色调，黑白灰，高级灰",
		Lighting:     "均匀光线，现代感照明",
		Composition:  "几何构图，简洁布局",
		Texture:      "光滑质感，现代材质",
		Mood:         "简约大气，现代感",
	},
	{
		Name:         LiteraryRetro,
		BaseStyle:    "文艺复古风格",
		ColorPalette: "复古色调，棕色，深绿，暗红",
		Lighting:     "柔和侧光，复古氛围",
		Composition:  "经典构图，文艺布局",
		Texture:      "复古质感，怀旧材质",
		Mood:         "文艺气息，复古感",
	},
	{
		Name:         YouthfulEnergetic,
		BaseStyle:    "活力青春风格",
		ColorPalette: "明亮色调，橙色，黄色，粉色",
		Lighting:     "明亮光线，活力照明",
		Composition:  "动感构图，活跃布局",
		Texture:      "光泽质感，活力材质",
		Mood:         "青春活力，动感十足",
	},
}

// Catalog returns a copy of all templates in catalog order.
func Catalog() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the template with the given name.
func Lookup(name string) (Template, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

func mustLookup(name string) Template {
	t, ok := Lookup(name)
	if !ok {
		panic("style: unknown template " + name)
	}
	return t
}

var hintRules = []struct {
	Keywords []string
	Name     string
}{
	{[]string{"温馨", "治愈", "warm", "healing", "cozy"}, WarmHealing},
	{[]string{"清新", "自然", "fresh", "natural"}, FreshNatural},
	{[]string{"文艺", "复古", "literary", "retro", "vintage"}, LiteraryRetro},
	{[]string{"活力", "青春", "energetic", "youthful"}, YouthfulEnergetic},
}

// Resolve picks a template. An explicit hint wins; otherwise the analysis
// atmosphere and feelings decide, falling back to modern minimal.
func Resolve(a analyzer.Analysis, hint string) Template {
	hint = strings.TrimSpace(hint)
	if hint != "" && hint != DefaultHint {
		lower := strings.ToLower(hint)
		for _, rule := range hintRules {
			if containsAny(lower, rule.Keywords) {
				return mustLookup(rule.Name)
			}
		}
		return mustLookup(ModernMinimal)
	}

	switch {
	case containsAny(a.Atmosphere, []string{"温馨", "温暖"}):
		return mustLookup(WarmHealing)
	case containsAny(a.Atmosphere, []string{"清新", "自然"}):
		return mustLookup(FreshNatural)
	case hasAny(a.Feelings, "快乐", "愉悦"):
		return mustLookup(YouthfulEnergetic)
	case containsAny(a.Atmosphere, []string{"文艺", "怀旧"}):
		return mustLookup(LiteraryRetro)
	default:
		return mustLookup(ModernMinimal)
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func hasAny(list []string, words ...string) bool {
	for _, l := range list {
		for _, w := range words {
			if l == w {
				return true
			}
		}
	}
	return false
}
