// Package prompt builds structured image-generation prompts and local
// segment summaries.
package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/abdulachik/postcraft/internal/analyzer"
	"github.com/abdulachik/postcraft/internal/segmenter"
	"github.com/abdulachik/postcraft/internal/style"
)

// Section labels, in prompt order.
const (
	LabelStyle   = "【风格定位】"
	LabelContent = "【核心内容】"
	LabelVisual  = "【视觉元素】"
	LabelLayout  = "【排版要求】"
	LabelDetail  = "【细节补充】"
)

const (
	sectionSep = "；"
	partSep    = "，"

	layoutRequirements = "竖版构图9:16，小红书风格排版，清晰易读，视觉层次分明"

	defaultStyle   = "清新自然风格"
	defaultContent = "温馨故事场景"
	defaultVisual  = "柔和光线，温暖色调"
	defaultScene   = "温馨生活场景"
	defaultDetail  = "高清摄影，专业构图"

	subjectMaxRunes = 20
	sceneMaxRunes   = 15
	maxVisualParts  = 4
	maxContentParts = 2
)

// Per-section limits used when the full prompt is too long.
var sectionLimits = [5]int{15, 50, 60, 30, 25}

// brackets from the source text would read as extra section labels
var labelBrackets = strings.NewReplacer("【", "「", "】", "」")

// descriptive characters that make a sentence a good core-content candidate
var descriptiveMarks = []string{"的", "在", "像", "如", "美", "光", "色", "温", "柔"}

// Sections is a prompt broken into its five labelled parts.
type Sections struct {
	Style   string
	Content string
	Visual  string
	Layout  string
	Detail  string
}

// String joins the sections with their labels.
func (s Sections) String() string {
	parts := []string{
		LabelStyle + s.Style,
		LabelContent + s.Content,
		LabelVisual + s.Visual,
		LabelLayout + s.Layout,
		LabelDetail + s.Detail,
	}
	return strings.Join(parts, sectionSep)
}

func (s Sections) truncated() Sections {
	return Sections{
		Style:   Truncate(s.Style, sectionLimits[0]),
		Content: Truncate(s.Content, sectionLimits[1]),
		Visual:  Truncate(s.Visual, sectionLimits[2]),
		Layout:  Truncate(s.Layout, sectionLimits[3]),
		Detail:  Truncate(s.Detail, sectionLimits[4]),
	}
}

// Build assembles the five prompt sections for text using analysis a and
// template tmpl.
func Build(a analyzer.Analysis, tmpl style.Template, text string, textType segmenter.TextType) Sections {
	return Sections{
		Style:   unlabel(orDefault(joinNonEmpty(tmpl.BaseStyle, tmpl.Mood), defaultStyle)),
		Content: unlabel(orDefault(coreContent(a, text), defaultContent)),
		Visual:  unlabel(orDefault(visualElements(a, tmpl), defaultVisual)),
		Layout:  layoutRequirements,
		Detail:  unlabel(orDefault(detailSupplement(tmpl, textType), defaultDetail)),
	}
}

// Compose returns the full labelled prompt, never longer than MaxLength runes.
func Compose(a analyzer.Analysis, tmpl style.Template, text string, textType segmenter.TextType) string {
	sections := Build(a, tmpl, text, textType)

	full := sections.String()
	if FitsInLimit(full, MaxLength) {
		return full
	}

	full = sections.truncated().String()
	if !FitsInLimit(full, MaxLength) {
		full = string([]rune(full)[:MaxLength])
	}
	return full
}

func unlabel(s string) string {
	return labelBrackets.Replace(s)
}

func coreContent(a analyzer.Analysis, text string) string {
	var parts []string

	candidates := analyzer.Sentences(text, 15, 40)
	for _, s := range candidates[:min(3, len(candidates))] {
		if containsAny(s, descriptiveMarks) {
			parts = append(parts, s)
			break
		}
	}

	if a.Subject != "" && (len(parts) == 0 || !strings.Contains(parts[0], a.Subject)) {
		parts = append(parts, a.Subject)
	}

	if len(parts) == 0 {
		return defaultScene
	}
	return strings.Join(parts[:min(maxContentParts, len(parts))], partSep)
}

// MainSubject picks the short subject phrase used in the visual section.
func MainSubject(a analyzer.Analysis) string {
	switch {
	case len(a.SpecificDetails) > 0:
		return a.SpecificDetails[0]
	case a.Focus != "":
		return string([]rune(a.Focus)[:min(subjectMaxRunes, utf8.RuneCountInString(a.Focus))])
	default:
		return a.Subject + "场景"
	}
}

func sceneDescription(a analyzer.Analysis) string {
	var parts []string
	if a.Atmosphere != "" {
		parts = append(parts, a.Atmosphere+"氛围")
	}
	if len(a.Feelings) > 0 {
		parts = append(parts, a.Feelings[0]+"感")
	}
	if len(parts) == 0 {
		return defaultScene
	}
	return strings.Join(parts, partSep)
}

func visualElements(a analyzer.Analysis, tmpl style.Template) string {
	var parts []string

	if subject := MainSubject(a); subject != "" && utf8.RuneCountInString(subject) <= subjectMaxRunes {
		parts = append(parts, subject)
	}
	if scene := sceneDescription(a); utf8.RuneCountInString(scene) <= sceneMaxRunes {
		parts = append(parts, scene)
	}

	for _, p := range []string{tmpl.ColorPalette, tmpl.Lighting, tmpl.Composition} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts[:min(maxVisualParts, len(parts))], partSep)
}

func detailSupplement(tmpl style.Template, textType segmenter.TextType) string {
	emphasis := "视觉美感"
	switch textType {
	case segmenter.Narrative:
		emphasis = "情感表达"
	case segmenter.Descriptive:
		emphasis = "简洁明了"
	}
	return joinNonEmpty("高清摄影", "专业构图", tmpl.Texture, emphasis)
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, partSep)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
